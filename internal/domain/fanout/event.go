package fanout

import (
	"fmt"

	"lostfound/internal/domain/activity"
	"lostfound/internal/domain/item"
	"lostfound/internal/domain/notification"
	"lostfound/internal/domain/request"
)

type Transition string

const (
	TransitionApproved  Transition = "approved"
	TransitionRejected  Transition = "rejected"
	TransitionRetrieved Transition = "retrieved"
)

// Event describes one committed lifecycle transition. Item is nil when the
// request's item has been deleted.
type Event struct {
	RequestKind request.Kind
	Transition  Transition
	Request     *request.Request
	Item        *item.Item
	ActorID     string
}

// Type is the notification and activity type, e.g. "claim_approved".
func (e Event) Type() string {
	return fmt.Sprintf("%s_%s", e.RequestKind, e.Transition)
}

func (e Event) itemName() string {
	if e.Item == nil {
		return item.UnknownItemName
	}
	return e.Item.Name
}

func (e Event) itemID() string {
	if e.Item != nil {
		return e.Item.ID
	}
	return e.Request.ItemID
}

// Result of one Emit call. Duplicate means the event had already been
// emitted and nothing was written.
type Result struct {
	Notification *notification.Notification
	Activity     *activity.Activity
	Duplicate    bool
}
