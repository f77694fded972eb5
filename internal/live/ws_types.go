package live

type clientMessage struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Collection string            `json:"collection,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
}

type snapshotMessage struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Collection string `json:"collection"`
	Records    []any  `json:"records"`
}

type changeMessage struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Change Change `json:"change"`
}

type errorMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newSnapshotMessage(id, collection string, records []any) snapshotMessage {
	if records == nil {
		records = []any{}
	}
	return snapshotMessage{Type: "snapshot", ID: id, Collection: collection, Records: records}
}

func newChangeMessage(id string, c Change) changeMessage {
	return changeMessage{Type: "change", ID: id, Change: c}
}

func newErrorMessage(id, code, message string) errorMessage {
	return errorMessage{Type: "error", ID: id, Code: code, Message: message}
}
