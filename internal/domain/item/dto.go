package item

type CreateItemRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Landmark    string  `json:"landmark" validate:"required,max=200"`
	Contact     string  `json:"contact" validate:"required,max=120"`
	Description string  `json:"description" validate:"max=2000"`
	Images      []Image `json:"images" validate:"required,min=1,max=10,dive"`
	DateEvent   string  `json:"date_event" validate:"omitempty,max=32"`
	TimeEvent   string  `json:"time_event" validate:"omitempty,max=32"`
}

type ReviewRequest struct {
	Status Status `json:"status" validate:"required,oneof=approved rejected"`
}

// ListFilter selects items; zero values mean "any".
type ListFilter struct {
	Kind       Kind
	Status     Status
	ReporterID string
	Query      string
	Page       int
	Limit      int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
}

type ListResponse struct {
	Items []Item `json:"items"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
