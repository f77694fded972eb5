package live

import (
	"context"
	"fmt"
	"sync"
)

// SnapshotFunc returns the whole current result set of a query.
type SnapshotFunc func(ctx context.Context, filters map[string]string) ([]any, error)

type Snapshotter interface {
	Snapshot(ctx context.Context, q Query) ([]any, error)
}

// Registry resolves snapshots by collection name.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]SnapshotFunc
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]SnapshotFunc)}
}

func (r *Registry) Register(collection string, fn SnapshotFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[collection] = fn
}

func (r *Registry) Snapshot(ctx context.Context, q Query) ([]any, error) {
	r.mu.RLock()
	fn, ok := r.funcs[q.Collection]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", q.Collection)
	}
	return fn(ctx, q.Filters)
}

func (r *Registry) Has(collection string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[collection]
	return ok
}
