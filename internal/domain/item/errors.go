package item

import "lostfound/internal/pkg/apperr"

var (
	ErrItemNotFound  = apperr.New(apperr.KindNotFound, "NOT_FOUND", "item not found")
	ErrInvalidKind   = apperr.New(apperr.KindValidation, "INVALID_KIND", "kind must be lost or found")
	ErrInvalidStatus = apperr.New(apperr.KindValidation, "INVALID_STATUS", "status must be approved or rejected")
	ErrNotPending    = apperr.ErrInvalidTransition
)
