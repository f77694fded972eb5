package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind string

const (
	KindInvalidTransition Kind = "invalid_transition"
	KindValidation        Kind = "validation"
	KindAuth              Kind = "auth"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindIO                Kind = "io"
	KindInternal          Kind = "internal"
)

// Error is the domain error carried across package boundaries.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on Code so sentinel errors compare equal to copies carrying details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

var (
	ErrInvalidTransition = New(KindInvalidTransition, "INVALID_TRANSITION", "this request was already handled")
	ErrValidation        = New(KindValidation, "VALIDATION_ERROR", "required fields are missing or invalid")
	ErrAuth              = New(KindAuth, "AUTH_ERROR", "authentication failed")
	ErrForbidden         = New(KindForbidden, "FORBIDDEN", "access denied: insufficient permissions")
	ErrNotFound          = New(KindNotFound, "NOT_FOUND", "resource not found")
	ErrConflict          = New(KindConflict, "CONFLICT", "resource already exists")
	ErrIO                = New(KindIO, "IO_ERROR", "backend unavailable, please retry")
)

// Validation builds a validation error listing the offending fields.
func Validation(fields map[string]string) *Error {
	return ErrValidation.WithDetails(map[string]any{"fields": fields})
}

// IO wraps a storage or network failure as a retryable error.
func IO(cause error) *Error {
	return ErrIO.WithDetails(map[string]any{"retryable": true}).Wrap(cause)
}

// As extracts an *Error. Context deadline and cancellation map to IO.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return IO(err), true
	}
	return nil, false
}

// HTTPStatus maps an error kind to a status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidTransition, KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindIO:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Warning is a non-fatal condition attached to a read model.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const CodeOrphanReference = "ORPHAN_REFERENCE"

func OrphanReference(collection, id string) Warning {
	return Warning{
		Code:    CodeOrphanReference,
		Message: fmt.Sprintf("referenced %s %s no longer exists", collection, id),
	}
}
