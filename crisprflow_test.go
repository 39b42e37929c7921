package crisprflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioseqlab/crisprflow/runner"
	"github.com/bioseqlab/crisprflow/session"
	"github.com/bioseqlab/crisprflow/workflow"
)

func TestNewDefaults(t *testing.T) {
	app := New()

	require.NotNil(t, app.Runner())
	require.NotNil(t, app.Router())
	require.NotNil(t, app.SessionStore())
	assert.Contains(t, app.Router().Workflows(), workflow.WorkflowKnockout)

	id := app.NewSessionID()
	assert.Len(t, id, 12)
	assert.NotEqual(t, id, app.NewSessionID())
}

func TestHandleTurnThroughFacade(t *testing.T) {
	store := session.NewInMemoryStore()
	app := New(func(o *Options) {
		o.SessionStore = store
	})
	ctx := context.Background()

	result, err := app.HandleTurn(ctx, "sess-1", "")
	require.NoError(t, err)
	assert.Equal(t, runner.StatusAwaitingInput, result.Status)
	require.NotEmpty(t, result.Messages)
	assert.Contains(t, result.Messages[0], "Gene knockout")

	result, err = app.HandleTurn(ctx, "sess-1", "knockout")
	require.NoError(t, err)
	assert.Equal(t, workflow.WorkflowKnockout, result.WorkflowID)

	// The configured store saw the session.
	state, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.WorkflowKnockout, state.WorkflowID)
}

func TestDefaultWorkflowOverride(t *testing.T) {
	app := New(func(o *Options) {
		o.DefaultWorkflow = workflow.WorkflowTroubleshoot
	})

	result, err := app.HandleTurn(context.Background(), "sess-1", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.WorkflowTroubleshoot, result.WorkflowID)
	assert.Equal(t, runner.StatusAwaitingInput, result.Status)
}
