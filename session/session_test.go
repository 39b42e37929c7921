package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioseqlab/crisprflow/core"
)

func sampleState(sessionID string) *core.State {
	state := core.NewState(sessionID, "knockout")
	state.TargetGene = "TP53"
	state.Species = "human"
	state.StepIndex = 2
	state.AwaitingInput = true
	state.Guides = []core.GuideRNA{{Sequence: "ACGTACGTACGTACGTACGT", Score: 90.1}}
	state.Extra["preferred_exon"] = "4"
	return state
}

func TestInMemoryStoreRoundtrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	saved := sampleState("sess-1")
	require.NoError(t, store.Save(ctx, "sess-1", saved))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "TP53", loaded.TargetGene)
	assert.Equal(t, 2, loaded.StepIndex)
	assert.True(t, loaded.AwaitingInput)
}

func TestInMemoryStoreClonesOnSaveAndLoad(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	saved := sampleState("sess-1")
	require.NoError(t, store.Save(ctx, "sess-1", saved))

	// Mutating the caller's copy after Save must not leak into the store.
	saved.TargetGene = "BRCA1"
	saved.Guides[0].Sequence = "TTTTTTTTTTTTTTTTTTTT"

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "TP53", loaded.TargetGene)
	assert.Equal(t, "ACGTACGTACGTACGTACGT", loaded.Guides[0].Sequence)

	// Mutating a loaded copy must not affect subsequent loads.
	loaded.Extra["preferred_exon"] = "9"
	again, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "4", again.Extra["preferred_exon"])
}

func TestFileStoreRoundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Load(ctx, "missing")
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "sess-1", sampleState("sess-1")))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "TP53", loaded.TargetGene)
	assert.Equal(t, "4", loaded.Extra["preferred_exon"])
	require.Len(t, loaded.Guides, 1)
	assert.Equal(t, "ACGTACGTACGTACGTACGT", loaded.Guides[0].Sequence)
}

func TestFileStoreWritesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "sess-1", sampleState("sess-1")))

	data, err := os.ReadFile(filepath.Join(dir, "sess-1.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "TP53", doc["target_gene"])

	// No temp file left behind after the rename.
	_, err = os.Stat(filepath.Join(dir, "sess-1.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreExtraSurvivesRoundtrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	// A fresh state has an empty Extra map; loading it back must hand steps
	// a writable map, not nil.
	require.NoError(t, store.Save(ctx, "sess-1", core.NewState("sess-1", "knockout")))
	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, loaded.Extra)
	loaded.Extra["preferred_exon"] = "4"

	// Documents written before the extra key existed decode the same way.
	legacy := []byte(`{"session_id": "legacy", "workflow_id": "knockout", "step_index": 1}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.json"), legacy, 0o644))
	loaded, err = store.Load(ctx, "legacy")
	require.NoError(t, err)
	require.NotNil(t, loaded.Extra)
	loaded.Extra["preferred_exon"] = "7"
}

func TestFileStoreListSessionsSorted(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, store.Save(ctx, id, sampleState(id)))
	}

	ids, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, ids)
}

func TestFileStoreCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, err = store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrSessionNotFound)
}

func newMiniredisStore(t *testing.T, opts ...RedisOption) *RedisStore {
	t.Helper()
	srv := miniredis.RunT(t)
	store := NewRedisStore(srv.Addr(), "", 0, opts...)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStoreRoundtrip(t *testing.T) {
	store := newMiniredisStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "sess-1", sampleState("sess-1")))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "TP53", loaded.TargetGene)
	assert.True(t, loaded.AwaitingInput)
}

func TestRedisStoreExtraSurvivesRoundtrip(t *testing.T) {
	store := newMiniredisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", core.NewState("sess-1", "knockout")))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, loaded.Extra)
	loaded.Extra["preferred_exon"] = "4"
}

func TestRedisStoreTTLExpiresSessions(t *testing.T) {
	srv := miniredis.RunT(t)
	store := NewRedisStore(srv.Addr(), "", 0, WithTTL(time.Minute))
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", sampleState("sess-1")))

	srv.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestRedisStoreListSessionsHonorsPrefix(t *testing.T) {
	srv := miniredis.RunT(t)
	store := NewRedisStore(srv.Addr(), "", 0, WithPrefix("designlab:"))
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", sampleState("a")))
	require.NoError(t, store.Save(ctx, "b", sampleState("b")))
	require.NoError(t, srv.Set("unrelated-key", "x"))

	ids, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}
