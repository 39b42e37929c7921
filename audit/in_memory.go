package audit

import (
	"context"
	"sync"

	"github.com/bioseqlab/crisprflow/core"
)

// InMemorySink keeps audit partitions in a process-local map. Suited for
// tests and single-process prototypes.
type InMemorySink struct {
	mu     sync.RWMutex
	events map[string][]core.AuditEvent // sessionID -> ordered events
}

// NewInMemorySink constructs an empty in-memory sink.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{events: make(map[string][]core.AuditEvent)}
}

// Append adds an event to its session partition.
func (s *InMemorySink) Append(_ context.Context, event core.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.SessionID] = append(s.events[event.SessionID], event)
	return nil
}

// ReadEvents returns a copy of one session's partition in append order.
func (s *InMemorySink) ReadEvents(_ context.Context, sessionID string) ([]core.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]core.AuditEvent, len(s.events[sessionID]))
	copy(events, s.events[sessionID])
	return events, nil
}
