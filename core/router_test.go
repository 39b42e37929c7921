package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopStep(name string) Step {
	return NewStep(name, func(context.Context, *State, *string) (Outcome, error) {
		return Continue(""), nil
	})
}

func TestRouterResolve(t *testing.T) {
	r := NewRouter()
	r.Register("Knockout", noopStep("a"), noopStep("b"))

	// Identifiers are case-insensitive.
	steps, err := r.Resolve("knockout")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "a", steps[0].Name())

	steps, err = r.Resolve("KNOCKOUT")
	require.NoError(t, err)
	assert.Len(t, steps, 2)
}

func TestRouterResolveUnknown(t *testing.T) {
	r := NewRouter()
	r.Register("intake", noopStep("menu"))

	_, err := r.Resolve("no_such_flow")
	require.ErrorIs(t, err, ErrUnknownWorkflow)
	// The error names the registered flows to make misconfiguration obvious.
	assert.Contains(t, err.Error(), "intake")
}

func TestRouterRegisterReplaces(t *testing.T) {
	r := NewRouter()
	r.Register("intake", noopStep("old"))
	r.Register("intake", noopStep("new"), noopStep("newer"))

	steps, err := r.Resolve("intake")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "new", steps[0].Name())
}

func TestBranchTarget(t *testing.T) {
	r := NewRouter()
	r.Register("off_target", noopStep("entry"))

	id, idx, err := r.BranchTarget("Off_Target")
	require.NoError(t, err)
	assert.Equal(t, "off_target", id)
	assert.Equal(t, 0, idx)

	_, _, err = r.BranchTarget("missing")
	assert.ErrorIs(t, err, ErrUnknownWorkflow)
}

func TestWorkflowsSorted(t *testing.T) {
	r := NewRouter()
	r.Register("troubleshoot", noopStep("a"))
	r.Register("intake", noopStep("a"))
	r.Register("knockout", noopStep("a"))

	assert.Equal(t, []string{"intake", "knockout", "troubleshoot"}, r.Workflows())
}

func TestLongestSequence(t *testing.T) {
	r := NewRouter()
	assert.Equal(t, 0, r.LongestSequence())

	r.Register("short", noopStep("a"))
	r.Register("long", noopStep("a"), noopStep("b"), noopStep("c"))
	assert.Equal(t, 3, r.LongestSequence())
}
