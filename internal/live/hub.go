// Package live streams collection changes to subscribers.
package live

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Collection names that can be subscribed to.
const (
	CollectionLostItems     = "lost_items"
	CollectionFoundItems    = "found_items"
	CollectionClaimRequests = "claim_requests"
	CollectionFoundRequests = "found_requests"
	CollectionNotifications = "notifications"
	CollectionActivities    = "activities"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
	// OpRemoved tells a subscriber that an update moved the record out of
	// its filtered result set.
	OpRemoved Op = "removed"
)

// Change is one whole-record mutation. Fields carries the filterable
// attributes of the record (status, user_id, requester_id, ...); Prev holds
// the same attributes as they were before an update.
type Change struct {
	Collection string            `json:"collection"`
	Op         Op                `json:"op"`
	ID         string            `json:"id"`
	Record     any               `json:"record,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Prev       map[string]string `json:"prev,omitempty"`
}

type Query struct {
	Collection string            `json:"collection"`
	Filters    map[string]string `json:"filters,omitempty"`
}

// Matches reports whether c belongs to the result set of q.
func (q Query) Matches(c Change) bool {
	return q.Collection == c.Collection && q.match(c.Fields)
}

// Left reports whether the update c moved a record out of q's result set.
func (q Query) Left(c Change) bool {
	return c.Op == OpUpdated && c.Prev != nil &&
		q.Collection == c.Collection && q.match(c.Prev) && !q.match(c.Fields)
}

func (q Query) match(fields map[string]string) bool {
	for k, v := range q.Filters {
		if fields[k] != v {
			return false
		}
	}
	return true
}

type Publisher interface {
	Publish(c Change)
}

type discard struct{}

func (discard) Publish(Change) {}

// Discard drops every change.
var Discard Publisher = discard{}

type subscription struct {
	query Query
	ch    chan Change
}

// Hub fans published changes out to matching subscriptions.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*subscription]struct{}
	buffer  int
	forward func(Change)
	log     *zap.Logger
}

func NewHub(log *zap.Logger, buffer int) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[*subscription]struct{}),
		buffer: buffer,
		log:    log,
	}
}

// Subscribe returns a channel of changes matching q. The channel is closed
// once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, q Query) <-chan Change {
	sub := &subscription{query: q, ch: make(chan Change, h.buffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		close(sub.ch)
		h.mu.Unlock()
	}()
	return sub.ch
}

// Publish delivers c locally and hands it to the forwarder, if any.
func (h *Hub) Publish(c Change) {
	h.deliver(c)

	h.mu.RLock()
	forward := h.forward
	h.mu.RUnlock()
	if forward != nil {
		forward(c)
	}
}

// SetForwarder registers f to receive every locally published change.
func (h *Hub) SetForwarder(f func(Change)) {
	h.mu.Lock()
	h.forward = f
	h.mu.Unlock()
}

func (h *Hub) deliver(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		out := c
		switch {
		case sub.query.Matches(c):
		case sub.query.Left(c):
			out.Op = OpRemoved
		default:
			continue
		}
		select {
		case sub.ch <- out:
		default:
			h.log.Warn("live subscriber too slow, change dropped",
				zap.String("collection", c.Collection),
				zap.String("id", c.ID),
			)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
