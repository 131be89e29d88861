package server

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/credential-mapper/internal/pipeline"
)

// entry serializes access to one session
type entry struct {
	mu      sync.Mutex
	session *pipeline.Session
	created time.Time
}

// registry holds the sessions built by this server
type registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
}

func newRegistry() *registry {
	return &registry{entries: make(map[uuid.UUID]*entry)}
}

func (r *registry) add(session *pipeline.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[session.ID] = &entry{session: session, created: time.Now()}
}

func (r *registry) get(id uuid.UUID) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, &ErrSessionNotFound{ID: id}
	}
	return e, nil
}

func (r *registry) remove(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return &ErrSessionNotFound{ID: id}
	}
	delete(r.entries, id)
	return nil
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// list returns the entries oldest first
func (r *registry) list() []*entry {
	r.mu.RLock()
	out := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *entry) int {
		if c := a.created.Compare(b.created); c != 0 {
			return c
		}
		return slices.Compare(a.session.ID[:], b.session.ID[:])
	})
	return out
}
