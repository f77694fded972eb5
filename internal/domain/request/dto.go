package request

import (
	"lostfound/internal/domain/item"
	"lostfound/internal/pkg/apperr"
)

type SubmitRequest struct {
	Contact     string `json:"contact" validate:"required,max=120"`
	Description string `json:"description" validate:"required,max=2000"`
}

type ListFilter struct {
	Kind        Kind
	Status      Status
	RequesterID string
	ItemID      string
	Page        int
	Limit       int
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
	Requests []Request `json:"requests"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// View is a request with its item resolved. A deleted item yields
// placeholder values and an orphan-reference warning.
type View struct {
	Request  *Request         `json:"request"`
	Item     item.Summary     `json:"item"`
	Warnings []apperr.Warning `json:"warnings"`
}
