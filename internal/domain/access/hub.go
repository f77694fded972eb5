package access

import (
	"context"
	"sync"
)

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventRestored  EventType = "restored"
	EventSignedOut EventType = "signed_out"
)

type Event struct {
	Type    EventType
	Session Session
}

// SessionHub is the single subscription point for session changes.
type SessionHub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewSessionHub() *SessionHub {
	return &SessionHub{subs: make(map[chan Event]struct{})}
}

// Subscribe delivers session events until ctx ends, then closes the channel.
func (h *SessionHub) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

// Publish never blocks; a full subscriber misses the event.
func (h *SessionHub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *SessionHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
