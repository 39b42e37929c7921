package session

import (
	"context"
	"sync"

	"github.com/bioseqlab/crisprflow/core"
)

// InMemoryStore is a volatile SessionStore keeping state in a process-local
// map. It is safe for concurrent access and best suited for tests or
// ephemeral demo servers. State is cloned on both Save and Load so no caller
// ever aliases the store's internal copy.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]*core.State
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]*core.State)}
}

// Load returns a clone of the stored state or core.ErrSessionNotFound.
func (s *InMemoryStore) Load(_ context.Context, sessionID string) (*core.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sessionID]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return state.Clone(), nil
}

// Save stores a clone of the provided state snapshot.
func (s *InMemoryStore) Save(_ context.Context, sessionID string, state *core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = state.Clone()
	return nil
}

// ListSessions returns the ids of all stored sessions.
func (s *InMemoryStore) ListSessions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	return ids, nil
}
