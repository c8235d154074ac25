package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/stores"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleState() conversations.State {
	state := conversations.NewState("NFA")
	state.ProblemContext = "strings ending in ab"
	state.Attempts = 3
	state.UnderstandingLevel = conversations.UnderstandingProgressing
	state.MasteryScores = map[string]float64{"dfa": 0.75, "nfa": 0.1}
	state.History = append(state.History,
		conversations.NewUserMessage("draw even a"),
		conversations.NewAssistantMessage("", conversations.ToolCall{ID: "call_1", Name: "draw_common_dfa", Arguments: `{"pattern_name":"even_a"}`}),
		conversations.NewToolResultMessage("call_1", "draw_common_dfa", `{"success":true}`, false),
	)
	state.DrawCommands = append(state.DrawCommands, conversations.DrawCommand{"type": "addState", "label": "q0", "isStart": true})
	return state
}

func TestSaveAndLoadRoundTripsState(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, ":memory:")

	state := sampleState()
	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, state.MasteryScores, loaded.MasteryScores)
	assert.Equal(t, state.History, loaded.History)
	assert.Equal(t, state.DrawCommands, loaded.DrawCommands)
	assert.Equal(t, 3, loaded.Attempts)
	assert.Equal(t, conversations.UnderstandingProgressing, loaded.UnderstandingLevel)
}

func TestEmptyMapsSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, ":memory:")

	state := conversations.NewState("DFA")
	state.CanvasState = map[string]any{}
	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, loaded.MasteryScores)
	require.NotNil(t, loaded.CanvasState)
	assert.Empty(t, loaded.MasteryScores)
	assert.Empty(t, loaded.CanvasState)
}

func TestSaveOverwritesPreviousState(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, ":memory:")

	state := sampleState()
	require.NoError(t, store.Save(ctx, "s1", state))
	state.Attempts = 4
	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Attempts)
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "tutor.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "s1", sampleState()))
	require.NoError(t, first.Close())

	second := openTestStore(t, path)
	loaded, err := second.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "strings ending in ab", loaded.ProblemContext)
}

func TestMissingAndDeletedSessions(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, ":memory:")

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, stores.ErrNotFound)

	require.NoError(t, store.Save(ctx, "s1", sampleState()))
	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, stores.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "s1"), stores.ErrNotFound)
}
