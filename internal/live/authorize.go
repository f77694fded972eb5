package live

import (
	"errors"
	"fmt"

	"lostfound/internal/domain/access"
)

var ErrForbiddenQuery = errors.New("subscription not allowed")

// Authorize scopes q to what sess may observe. Items are public; requests and
// notifications are narrowed to the caller's own records unless the caller is
// an admin; activities are admin only.
func Authorize(sess access.Session, q Query) (Query, error) {
	filters := make(map[string]string, len(q.Filters)+1)
	for k, v := range q.Filters {
		filters[k] = v
	}
	out := Query{Collection: q.Collection, Filters: filters}

	switch q.Collection {
	case CollectionLostItems, CollectionFoundItems:
		return out, nil
	case CollectionClaimRequests, CollectionFoundRequests:
		if !sess.IsAdmin {
			filters["requester_id"] = sess.UserID
		}
		return out, nil
	case CollectionNotifications:
		filters["user_id"] = sess.UserID
		return out, nil
	case CollectionActivities:
		if !sess.IsAdmin {
			return Query{}, fmt.Errorf("%w: activities are admin only", ErrForbiddenQuery)
		}
		return out, nil
	default:
		return Query{}, fmt.Errorf("%w: unknown collection %q", ErrForbiddenQuery, q.Collection)
	}
}
