package core

import "context"

// Step is one unit of sequenced work inside a workflow. Implementations may
// mutate state in place as part of producing their Outcome; they must not
// touch any other session's state and must not drive engine transitions
// themselves (that is the Runner's job).
//
// input is non-nil only when the previous execution of this step returned
// WaitForInput and the user has replied; a step expecting no input must
// tolerate input == nil. Ordinary invalid user input is handled by returning
// WaitForInput with a corrective message, never by returning an error. A
// non-nil error is reserved for genuinely unrecoverable conditions and fails
// the whole turn.
type Step interface {
	// Name identifies the step in logs and audit events.
	Name() string

	Execute(ctx context.Context, state *State, input *string) (Outcome, error)
}

// StepFunc adapts a named function to the Step interface.
type StepFunc struct {
	name string
	fn   func(ctx context.Context, state *State, input *string) (Outcome, error)
}

// NewStep wraps fn as a Step with the given name.
func NewStep(name string, fn func(ctx context.Context, state *State, input *string) (Outcome, error)) StepFunc {
	return StepFunc{name: name, fn: fn}
}

// Name implements Step.
func (s StepFunc) Name() string { return s.name }

// Execute implements Step.
func (s StepFunc) Execute(ctx context.Context, state *State, input *string) (Outcome, error) {
	return s.fn(ctx, state, input)
}
