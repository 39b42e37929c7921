package core

// OutcomeKind enumerates the closed set of results a Step may produce. The
// Runner switches exhaustively over these; adding a kind is an engine change,
// not a workflow change.
type OutcomeKind int

const (
	// OutcomeContinue advances to the next step without waiting for input.
	OutcomeContinue OutcomeKind = iota
	// OutcomeWaitForInput pauses the turn; the next user message is
	// delivered to the same step.
	OutcomeWaitForInput
	// OutcomeDone completes the current sequence.
	OutcomeDone
	// OutcomeBranch switches to a different registered sequence.
	OutcomeBranch
)

// String returns the wire/log name of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeWaitForInput:
		return "wait_input"
	case OutcomeDone:
		return "done"
	case OutcomeBranch:
		return "branch"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of executing one Step. Message is optional for
// every kind except WaitForInput, where it carries the prompt shown to the
// user. BranchTo is set only when Kind is OutcomeBranch.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	Message  string      `json:"message,omitempty"`
	BranchTo string      `json:"branch_to,omitempty"`
}

// Continue proceeds automatically to the next step. message may be empty.
func Continue(message string) Outcome {
	return Outcome{Kind: OutcomeContinue, Message: message}
}

// WaitForInput pauses the turn and shows message as the prompt.
func WaitForInput(message string) Outcome {
	return Outcome{Kind: OutcomeWaitForInput, Message: message}
}

// Done finishes the current sequence. message may be empty.
func Done(message string) Outcome {
	return Outcome{Kind: OutcomeDone, Message: message}
}

// Branch switches to the sequence registered under target. message may be empty.
func Branch(target, message string) Outcome {
	return Outcome{Kind: OutcomeBranch, Message: message, BranchTo: target}
}
