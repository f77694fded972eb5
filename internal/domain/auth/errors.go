package auth

import "lostfound/internal/pkg/apperr"

var (
	ErrInvalidCredentials = apperr.New(apperr.KindAuth, "AUTH_ERROR", "invalid email or password")
	ErrEmailAlreadyExists = apperr.New(apperr.KindConflict, "EMAIL_EXISTS", "this email is already registered")
	ErrUserNotFound       = apperr.New(apperr.KindNotFound, "NOT_FOUND", "user not found")
	ErrSessionRevoked     = apperr.New(apperr.KindAuth, "AUTH_ERROR", "session has been signed out")
)
