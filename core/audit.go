package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit event kinds emitted by the Runner.
const (
	AuditSessionStarted    = "session_started"
	AuditSessionReset      = "session_reset"
	AuditWorkflowStarted   = "workflow_started"
	AuditStepExecuted      = "step_executed"
	AuditWorkflowBranched  = "workflow_branched"
	AuditWorkflowCompleted = "workflow_completed"
	AuditSafetyBlock       = "safety_block"
	AuditTurnFailed        = "turn_failed"
)

// AuditEvent is one append-only observability record. Events are partitioned
// by SessionID; ordering is guaranteed only within a partition. The session
// id is always taken from the emitting call's own arguments, never from
// process-wide state, so events can never be tagged with another session's
// identifier.
type AuditEvent struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Kind      string         `json:"event"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"ts"`
}

// NewAuditEvent stamps a new event with a unique id and a UTC timestamp.
func NewAuditEvent(sessionID, kind string, payload map[string]any) AuditEvent {
	return AuditEvent{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// AuditSink records audit events. Appends from different sessions may run
// concurrently without coordination; prior entries are never mutated or
// reordered. Append failures are non-fatal to the turn: the Runner logs them
// and completes the turn anyway.
type AuditSink interface {
	Append(ctx context.Context, event AuditEvent) error
}
