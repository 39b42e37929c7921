package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeConstructors(t *testing.T) {
	o := Continue("next up")
	assert.Equal(t, OutcomeContinue, o.Kind)
	assert.Equal(t, "next up", o.Message)
	assert.Empty(t, o.BranchTo)

	o = WaitForInput("Which gene?")
	assert.Equal(t, OutcomeWaitForInput, o.Kind)
	assert.Equal(t, "Which gene?", o.Message)

	o = Done("all set")
	assert.Equal(t, OutcomeDone, o.Kind)

	o = Branch("knockout", "switching")
	assert.Equal(t, OutcomeBranch, o.Kind)
	assert.Equal(t, "knockout", o.BranchTo)
	assert.Equal(t, "switching", o.Message)
}

func TestOutcomeKindString(t *testing.T) {
	tests := []struct {
		kind OutcomeKind
		want string
	}{
		{OutcomeContinue, "continue"},
		{OutcomeWaitForInput, "wait_input"},
		{OutcomeDone, "done"},
		{OutcomeBranch, "branch"},
		{OutcomeKind(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}
