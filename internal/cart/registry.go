package cart

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type registryEntry struct {
	store    *Store
	lastUsed time.Time
}

// Registry hands out one Store per session, loading it from the repository on first use.
// Evicted stores are reloaded from their snapshot, so eviction never loses a cart.
type Registry struct {
	mu      sync.Mutex
	repo    SnapshotRepository
	idleTTL time.Duration
	now     func() time.Time
	entries map[string]*registryEntry
}

// NewRegistry builds a registry; idleTTL <= 0 disables eviction.
func NewRegistry(repo SnapshotRepository, idleTTL time.Duration) (*Registry, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &Registry{
		repo:    repo,
		idleTTL: idleTTL,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}, nil
}

// Get returns the session's store, opening it when needed.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if entry, ok := r.entries[sessionID]; ok {
		entry.lastUsed = now
		return entry.store, nil
	}
	store, err := Open(ctx, sessionID, r.repo)
	if err != nil {
		return nil, err
	}
	r.entries[sessionID] = &registryEntry{store: store, lastUsed: now}
	return store, nil
}

// Sweep drops stores idle for longer than the TTL and reports how many were removed.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for id, entry := range r.entries {
		if entry.lastUsed.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of open stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
