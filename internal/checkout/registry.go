package checkout

import (
	"sync"
	"time"
)

type registryEntry struct {
	orchestrator *Orchestrator
	lastUsed     time.Time
}

// Registry owns one orchestrator per session. Listeners passed at construction are
// subscribed to every orchestrator it creates.
type Registry struct {
	mu        sync.Mutex
	deps      Deps
	listeners []Listener
	idleTTL   time.Duration
	now       func() time.Time
	entries   map[string]*registryEntry
}

// NewRegistry validates deps once so Get cannot fail on wiring errors.
func NewRegistry(deps Deps, idleTTL time.Duration, listeners ...Listener) (*Registry, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Registry{
		deps:      deps,
		listeners: listeners,
		idleTTL:   idleTTL,
		now:       time.Now,
		entries:   make(map[string]*registryEntry),
	}, nil
}

// Get returns the session's orchestrator, creating an idle one on first use.
func (r *Registry) Get(sessionID string) (*Orchestrator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if entry, ok := r.entries[sessionID]; ok {
		entry.lastUsed = now
		return entry.orchestrator, nil
	}
	orchestrator, err := NewOrchestrator(sessionID, r.deps)
	if err != nil {
		return nil, err
	}
	for _, listener := range r.listeners {
		orchestrator.Subscribe(listener)
	}
	r.entries[sessionID] = &registryEntry{orchestrator: orchestrator, lastUsed: now}
	return orchestrator, nil
}

// Sweep forgets orchestrators idle longer than the TTL. A forgotten session starts over
// at Idle; its cart and pending order live in Redis and are unaffected.
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
