// Package memory provides the in-process refresh registry driver. A single
// mutex serialises all mutation, which trivially satisfies the per-token-id
// linearizability contract. Suitable for tests and single-node deployments;
// state does not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sentinelhq/gatekeep/internal/auth/registry"
)

type Registry struct {
	mu      sync.Mutex
	entries map[string]registry.Entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]registry.Entry)}
}

func (r *Registry) Register(_ context.Context, e registry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.TokenID]; ok {
		return registry.ErrDuplicateID
	}
	r.entries[e.TokenID] = e
	return nil
}

func (r *Registry) Lookup(_ context.Context, tokenID string) (registry.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[tokenID]
	if !ok {
		return registry.Entry{}, registry.ErrNotFound
	}
	return e, nil
}

func (r *Registry) Revoke(_ context.Context, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, tokenID) // absent id is a no-op
	return nil
}

func (r *Registry) Rotate(_ context.Context, oldID, identity string, next registry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.entries[oldID]
	if !ok || old.Identity != identity {
		return registry.ErrNotFound
	}
	if _, ok := r.entries[next.TokenID]; ok {
		return registry.ErrDuplicateID
	}

	delete(r.entries, oldID)
	r.entries[next.TokenID] = next
	return nil
}

func (r *Registry) RevokeAll(_ context.Context, identity string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, e := range r.entries {
		if e.Identity == identity {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}

func (r *Registry) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, e := range r.entries {
		if e.CreatedAt.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}

func (r *Registry) Ping(context.Context) error { return nil }

func (r *Registry) Close() error { return nil }
