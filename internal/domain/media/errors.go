package media

import "lostfound/internal/pkg/apperr"

var (
	ErrMediaNotFound   = apperr.New(apperr.KindNotFound, "NOT_FOUND", "media not found")
	ErrNotOwner        = apperr.New(apperr.KindForbidden, "FORBIDDEN", "you do not own this media")
	ErrFileTooLarge    = apperr.New(apperr.KindValidation, "FILE_TOO_LARGE", "file exceeds maximum allowed size")
	ErrInvalidMimeType = apperr.New(apperr.KindValidation, "INVALID_MIME_TYPE", "only JPEG and PNG images are accepted")
	ErrEmptyFile       = apperr.New(apperr.KindValidation, "EMPTY_FILE", "file is empty")
	ErrUndecodable     = apperr.New(apperr.KindValidation, "INVALID_IMAGE", "image could not be decoded")
)
