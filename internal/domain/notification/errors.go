package notification

import "lostfound/internal/pkg/apperr"

var ErrNotificationNotFound = apperr.New(apperr.KindNotFound, "NOT_FOUND", "notification not found")
