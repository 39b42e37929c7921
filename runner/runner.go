package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bioseqlab/crisprflow/audit"
	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/logging"
	"github.com/bioseqlab/crisprflow/session"
)

// TurnStatus reports how a turn ended to the transport layer.
type TurnStatus string

const (
	// StatusAwaitingInput means the turn paused on a step prompt.
	StatusAwaitingInput TurnStatus = "awaiting_input"
	// StatusComplete means the current sequence finished.
	StatusComplete TurnStatus = "complete"
	// StatusError means the turn failed (configuration fault or
	// collaborator unavailability); the user sees an opaque message.
	StatusError TurnStatus = "error"
)

// genericFailureMessage is all a user ever sees of an internal fault. The
// full detail goes to the audit sink.
const genericFailureMessage = "Something went wrong on our side. Please try again, or type 'new' to start a fresh session."

const completedNotice = "This workflow is complete. Type 'new' to start another experiment."

// TurnResult is the ordered outgoing message buffer plus turn status
// returned to the user-facing transport.
type TurnResult struct {
	Messages   []string   `json:"messages"`
	Status     TurnStatus `json:"status"`
	WorkflowID string     `json:"workflow_id"`
	StepIndex  int        `json:"step_index"`
}

// InputScreen vets raw user input before any step runs. A blocked turn
// returns the notice to the user without advancing the pipeline.
type InputScreen interface {
	Check(text string) (blocked bool, notice string)
}

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// SessionStore persists state between turns. Defaults to in-memory.
	SessionStore core.SessionStore
	// AuditSink receives per-session audit events. Defaults to in-memory.
	AuditSink core.AuditSink
	// Logger for engine diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// Screen vets user input before the step loop. Nil disables screening.
	Screen InputScreen
	// DefaultWorkflow is the sequence a fresh session starts in.
	DefaultWorkflow string
	// MaxStepsPerTurn caps step executions per inbound message, guarding
	// against a misconfigured CONTINUE/BRANCH cycle that never pauses.
	// Zero derives the cap from the longest registered sequence.
	MaxStepsPerTurn int
}

// Runner executes the pipeline turn loop. Public methods are safe for
// concurrent use; turns on the same session id are serialized internally.
type Runner struct {
	router          *core.Router
	store           core.SessionStore
	audit           core.AuditSink
	logger          logging.Logger
	screen          InputScreen
	defaultWorkflow string
	maxStepsPerTurn int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a Runner over a fully registered Router.
func New(router *core.Router, optFns ...func(o *Options)) *Runner {
	opts := Options{
		SessionStore:    session.NewInMemoryStore(),
		AuditSink:       audit.NewInMemorySink(),
		Logger:          logging.NoOpLogger{},
		DefaultWorkflow: "intake",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	maxSteps := opts.MaxStepsPerTurn
	if maxSteps <= 0 {
		// Enough for one full pass through the longest sequence plus a
		// branch into another.
		maxSteps = 2*router.LongestSequence() + 8
	}

	return &Runner{
		router:          router,
		store:           opts.SessionStore,
		audit:           opts.AuditSink,
		logger:          opts.Logger,
		screen:          opts.Screen,
		defaultWorkflow: opts.DefaultWorkflow,
		maxStepsPerTurn: maxSteps,
		locks:           make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding sessionID, creating it on first use.
// The map only grows; entries are tiny and session cardinality is bounded by
// the store's retention policy.
func (r *Runner) lockFor(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	return l
}

// HandleTurn processes one inbound user message for sessionID and returns
// the ordered outgoing messages with the turn status. State is persisted on
// every terminal path, including faults, so mutations from completed steps
// are never silently lost between turns.
func (r *Runner) HandleTurn(ctx context.Context, sessionID, input string) (TurnResult, error) {
	lock := r.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := r.loadOrCreate(ctx, sessionID)
	if err != nil {
		return TurnResult{Status: StatusError, Messages: []string{genericFailureMessage}},
			fmt.Errorf("load session %s: %w", sessionID, err)
	}

	if r.screen != nil && input != "" {
		if blocked, notice := r.screen.Check(input); blocked {
			return r.blockTurn(ctx, state, input, notice)
		}
	}

	if isResetCommand(input) {
		r.appendAudit(ctx, core.NewAuditEvent(sessionID, core.AuditSessionReset, nil))
		state = core.NewState(sessionID, r.defaultWorkflow)
		input = ""
	}

	if input != "" {
		state.AppendMessage("user", input)
	}

	// The inbound message is step input only when the session paused on a
	// prompt; otherwise it was a side instruction handled above.
	var stepInput *string
	if state.AwaitingInput {
		in := input
		stepInput = &in
		state.AwaitingInput = false
	}

	return r.runLoop(ctx, state, stepInput)
}

// runLoop executes steps starting at the state's cursor until a pausing
// outcome, sequence completion, or a fault. stepInput is consumed by the
// first executed step only.
func (r *Runner) runLoop(ctx context.Context, state *core.State, stepInput *string) (TurnResult, error) {
	sessionID := state.SessionID

	steps, err := r.router.Resolve(state.WorkflowID)
	if err != nil {
		return r.failTurn(ctx, state, err, map[string]any{"workflow_id": state.WorkflowID})
	}

	var messages []string
	emit := func(msg string) {
		if msg == "" {
			return
		}
		messages = append(messages, msg)
		state.AppendMessage("assistant", msg)
	}

	status := StatusComplete

	for iter := 0; ; iter++ {
		if err := ctx.Err(); err != nil {
			// Cancelled mid-turn: nothing was acknowledged, so skip the
			// persist and leave the last successful save as durable state.
			r.logger.Warn("turn cancelled", "session_id", sessionID, "workflow_id", state.WorkflowID)
			return TurnResult{Status: StatusError, WorkflowID: state.WorkflowID, StepIndex: state.StepIndex}, err
		}
		if iter >= r.maxStepsPerTurn {
			err := fmt.Errorf("step cap %d exceeded in workflow %q: sequence never paused", r.maxStepsPerTurn, state.WorkflowID)
			return r.failTurn(ctx, state, err, map[string]any{
				"workflow_id": state.WorkflowID,
				"step_index":  state.StepIndex,
				"cap":         r.maxStepsPerTurn,
			})
		}

		if state.StepIndex >= len(steps) {
			// Sequence already complete; the message was not step input.
			if len(messages) == 0 {
				emit(completedNotice)
			}
			break
		}

		step := steps[state.StepIndex]
		r.logger.Debug("executing step",
			"session_id", sessionID,
			"workflow_id", state.WorkflowID,
			"step", step.Name(),
			"step_index", state.StepIndex,
		)

		outcome, err := step.Execute(ctx, state, stepInput)
		stepInput = nil
		if err != nil {
			return r.failTurn(ctx, state, fmt.Errorf("step %s: %w", step.Name(), err), map[string]any{
				"workflow_id": state.WorkflowID,
				"step_index":  state.StepIndex,
				"step":        step.Name(),
			})
		}

		r.appendAudit(ctx, core.NewAuditEvent(sessionID, core.AuditStepExecuted, map[string]any{
			"workflow_id": state.WorkflowID,
			"step_index":  state.StepIndex,
			"step":        step.Name(),
			"outcome":     outcome.Kind.String(),
		}))

		emit(outcome.Message)

		switch outcome.Kind {
		case core.OutcomeContinue:
			state.StepIndex++
			if state.StepIndex >= len(steps) {
				r.appendAudit(ctx, core.NewAuditEvent(sessionID, core.AuditWorkflowCompleted, map[string]any{
					"workflow_id": state.WorkflowID,
				}))
				status = StatusComplete
			} else {
				continue
			}

		case core.OutcomeWaitForInput:
			state.AwaitingInput = true
			status = StatusAwaitingInput

		case core.OutcomeDone:
			state.StepIndex = len(steps)
			state.AwaitingInput = false
			r.appendAudit(ctx, core.NewAuditEvent(sessionID, core.AuditWorkflowCompleted, map[string]any{
				"workflow_id": state.WorkflowID,
			}))
			status = StatusComplete

		case core.OutcomeBranch:
			target, index, err := r.router.BranchTarget(outcome.BranchTo)
			if err != nil {
				return r.failTurn(ctx, state, err, map[string]any{
					"workflow_id":   state.WorkflowID,
					"step_index":    state.StepIndex,
					"branch_target": outcome.BranchTo,
				})
			}
			r.appendAudit(ctx, core.NewAuditEvent(sessionID, core.AuditWorkflowBranched, map[string]any{
				"from": state.WorkflowID,
				"to":   target,
			}))
			state.WorkflowID = target
			state.StepIndex = index
			state.Modality = target
			steps, _ = r.router.Resolve(target)
			r.appendAudit(ctx, core.NewAuditEvent(sessionID, core.AuditWorkflowStarted, map[string]any{
				"workflow_id": target,
				"steps":       len(steps),
			}))
			continue

		default:
			err := fmt.Errorf("step %s returned unknown outcome kind %d", step.Name(), outcome.Kind)
			return r.failTurn(ctx, state, err, map[string]any{"workflow_id": state.WorkflowID})
		}
		break
	}

	if err := r.persist(ctx, state); err != nil {
		return TurnResult{Status: StatusError, Messages: []string{genericFailureMessage}}, err
	}

	return TurnResult{
		Messages:   messages,
		Status:     status,
		WorkflowID: state.WorkflowID,
		StepIndex:  state.StepIndex,
	}, nil
}

// loadOrCreate fetches the session state, creating fresh state positioned at
// the default workflow on first contact.
func (r *Runner) loadOrCreate(ctx context.Context, sessionID string) (*core.State, error) {
	state, err := r.store.Load(ctx, sessionID)
	if err == nil {
		return state, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	state = core.NewState(sessionID, r.defaultWorkflow)
	r.appendAudit(ctx, core.NewAuditEvent(sessionID, core.AuditSessionStarted, map[string]any{
		"workflow_id": r.defaultWorkflow,
	}))
	return state, nil
}

// blockTurn records a screened-out message and returns the safety notice
// without executing any step. The pipeline cursor does not move.
func (r *Runner) blockTurn(ctx context.Context, state *core.State, input, notice string) (TurnResult, error) {
	r.appendAudit(ctx, core.NewAuditEvent(state.SessionID, core.AuditSafetyBlock, map[string]any{
		"input_preview": preview(input, 100),
	}))
	state.AppendMessage("user", input)
	state.AppendMessage("assistant", notice)

	status := StatusComplete
	if state.AwaitingInput {
		status = StatusAwaitingInput
	}
	if err := r.persist(ctx, state); err != nil {
		return TurnResult{Status: StatusError, Messages: []string{genericFailureMessage}}, err
	}
	return TurnResult{
		Messages:   []string{notice},
		Status:     status,
		WorkflowID: state.WorkflowID,
		StepIndex:  state.StepIndex,
	}, nil
}

// failTurn audits an internal fault with full detail, persists whatever the
// completed steps already applied, and surfaces only an opaque message.
func (r *Runner) failTurn(ctx context.Context, state *core.State, cause error, detail map[string]any) (TurnResult, error) {
	if detail == nil {
		detail = map[string]any{}
	}
	detail["error"] = cause.Error()
	r.appendAudit(ctx, core.NewAuditEvent(state.SessionID, core.AuditTurnFailed, detail))
	r.logger.Error("turn failed", "session_id", state.SessionID, "error", cause)

	if err := r.persist(ctx, state); err != nil {
		r.logger.Error("persist after fault failed", "session_id", state.SessionID, "error", err)
	}
	return TurnResult{
		Messages:   []string{genericFailureMessage},
		Status:     StatusError,
		WorkflowID: state.WorkflowID,
		StepIndex:  state.StepIndex,
	}, cause
}

func (r *Runner) persist(ctx context.Context, state *core.State) error {
	state.Touch()
	if err := r.store.Save(ctx, state.SessionID, state); err != nil {
		r.appendAudit(ctx, core.NewAuditEvent(state.SessionID, core.AuditTurnFailed, map[string]any{
			"error": fmt.Sprintf("session save: %v", err),
		}))
		return fmt.Errorf("save session %s: %w", state.SessionID, err)
	}
	return nil
}

// appendAudit forwards an event to the sink. Append failures are non-fatal
// to the turn.
func (r *Runner) appendAudit(ctx context.Context, ev core.AuditEvent) {
	if err := r.audit.Append(ctx, ev); err != nil {
		r.logger.Warn("audit append failed", "session_id", ev.SessionID, "event", ev.Kind, "error", err)
	}
}

func isResetCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "new", "restart", "new session":
		return true
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrSessionNotFound)
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
