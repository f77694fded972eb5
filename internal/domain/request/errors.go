package request

import "lostfound/internal/pkg/apperr"

var (
	ErrRequestNotFound   = apperr.New(apperr.KindNotFound, "NOT_FOUND", "request not found")
	ErrInvalidKind       = apperr.New(apperr.KindValidation, "INVALID_KIND", "kind must be claim or found")
	ErrDuplicateRequest  = apperr.New(apperr.KindConflict, "DUPLICATE_REQUEST", "you already have an open request for this item")
	ErrOwnItem           = apperr.New(apperr.KindForbidden, "OWN_ITEM", "you cannot file a request against your own report")
	ErrItemNotAvailable  = apperr.New(apperr.KindConflict, "ITEM_NOT_AVAILABLE", "this item is not accepting requests")
	ErrInvalidTransition = apperr.ErrInvalidTransition
)
