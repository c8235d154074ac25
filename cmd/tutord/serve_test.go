package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms/groq"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms/openai"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/stores/memory"
	"github.com/SharminSirajudeen/ai-tutor-mvp/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneratorSelectsProvider(t *testing.T) {
	assert.Equal(t, groq.DefaultModel, newGenerator(config.LLMConfig{Provider: config.ProviderGroq, APIKey: "k"}).Model())
	assert.Equal(t, openai.DefaultModel, newGenerator(config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: "k"}).Model())
	assert.Equal(t, "custom", newGenerator(config.LLMConfig{Provider: config.ProviderGroq, Model: "custom"}).Model())
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, config.StoreConfig{Type: config.StoreMemory})
	require.NoError(t, err)
	closeStore()
	assert.IsType(t, &memory.Store{}, store)

	path := filepath.Join(t.TempDir(), "nested", "tutor.db")
	store, closeStore, err = openStore(ctx, config.StoreConfig{Type: config.StoreSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer closeStore()

	require.NoError(t, store.Save(ctx, "s1", conversations.NewState("NFA")))
	state, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "NFA", state.Topic)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger("loud", false)
	assert.Error(t, err)

	logger, err := newLogger("debug", true)
	require.NoError(t, err)
	assert.Equal(t, "debug", logger.GetLevel().String())
}
