package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioseqlab/crisprflow/core"
)

func TestInMemorySinkPartitions(t *testing.T) {
	sink := NewInMemorySink()
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("a", core.AuditSessionStarted, nil)))
	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("b", core.AuditSessionStarted, nil)))
	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("a", core.AuditStepExecuted, map[string]any{"step": "menu"})))

	events, err := sink.ReadEvents(ctx, "a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, core.AuditSessionStarted, events[0].Kind)
	assert.Equal(t, core.AuditStepExecuted, events[1].Kind)
	assert.Equal(t, "menu", events[1].Payload["step"])

	events, err = sink.ReadEvents(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = sink.ReadEvents(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFileSinkRoundtrip(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("sess-1", core.AuditSessionStarted, nil)))
	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("sess-1", core.AuditWorkflowBranched, map[string]any{"to": "knockout"})))

	events, err := sink.ReadEvents(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, core.AuditSessionStarted, events[0].Kind)
	assert.Equal(t, "knockout", events[1].Payload["to"])
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestFileSinkMissingPartitionIsEmpty(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	require.NoError(t, err)

	events, err := sink.ReadEvents(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFileSinkSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("sess-1", core.AuditSessionStarted, nil)))

	f, err := os.OpenFile(filepath.Join(dir, "sess-1.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{corrupt\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("sess-1", core.AuditWorkflowCompleted, nil)))

	events, err := sink.ReadEvents(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, core.AuditSessionStarted, events[0].Kind)
	assert.Equal(t, core.AuditWorkflowCompleted, events[1].Kind)
}

func TestFileSinkConcurrentSessionsAppendIntact(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	const sessions = 8
	const perSession = 20

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("sess-%d", i)
			for j := 0; j < perSession; j++ {
				_ = sink.Append(ctx, core.NewAuditEvent(id, core.AuditStepExecuted, map[string]any{"n": j}))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < sessions; i++ {
		id := fmt.Sprintf("sess-%d", i)
		events, err := sink.ReadEvents(ctx, id)
		require.NoError(t, err)
		require.Len(t, events, perSession)
		for j, ev := range events {
			assert.Equal(t, id, ev.SessionID)
			assert.Equal(t, float64(j), ev.Payload["n"])
		}
	}
}

func TestFileSinkListSessions(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("zed", core.AuditSessionStarted, nil)))
	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("abe", core.AuditSessionStarted, nil)))

	ids, err := sink.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"abe", "zed"}, ids)
}

func TestSQLiteSinkRoundtrip(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("sess-1", core.AuditSessionStarted, nil)))
	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("sess-1", core.AuditStepExecuted, map[string]any{"step": "guide_design", "outcome": "continue"})))
	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("sess-2", core.AuditSessionStarted, nil)))

	events, err := sink.ReadEvents(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, core.AuditSessionStarted, events[0].Kind)
	assert.Equal(t, "guide_design", events[1].Payload["step"])
	assert.Equal(t, "sess-1", events[1].SessionID)

	ids, err := sink.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-1", "sess-2"}, ids)
}

func TestSQLiteSinkSequencesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("sess-1", core.AuditSessionStarted, nil)))
	require.NoError(t, sink.Close())

	sink, err = NewSQLiteSink(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	require.NoError(t, sink.Append(ctx, core.NewAuditEvent("sess-1", core.AuditWorkflowCompleted, nil)))

	events, err := sink.ReadEvents(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, core.AuditSessionStarted, events[0].Kind)
	assert.Equal(t, core.AuditWorkflowCompleted, events[1].Kind)
}
