package core

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned by SessionStore.Load when no state has been
// persisted for the session id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists and restores per-session State across process
// invocations. Each call must be atomic: a concurrent Load never observes a
// partially written Save. Implementations return clones (or freshly decoded
// values) so callers cannot alias the store's internal state.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, state *State) error
}
