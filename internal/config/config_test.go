package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
	tempDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.T().Chdir(suite.tempDir)

	for _, env := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "TUTOR_LLM_PROVIDER", "CHECKPOINTER_TYPE", "SQLITE_PATH", "TUTOR_LLM_API_KEY", "TUTOR_STORE_TYPE", "TUTOR_STORE_SQLITE_PATH", "TUTOR_SERVER_ADDR"} {
		suite.T().Setenv(env, "")
		os.Unsetenv(env)
	}
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.tempDir, "tutor.yaml")
	require.NoError(suite.T(), os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (suite *ConfigTestSuite) TestLoadWithDefaults() {
	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), ":8000", cfg.Server.Addr)
	assert.Equal(suite.T(), 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(suite.T(), 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(suite.T(), ProviderGroq, cfg.LLM.Provider)
	assert.InDelta(suite.T(), 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(suite.T(), StoreMemory, cfg.Store.Type)
	assert.Equal(suite.T(), "./data/tutor.db", cfg.Store.SQLitePath)
	assert.Equal(suite.T(), 2*time.Minute, cfg.Turns.Timeout)
	assert.Equal(suite.T(), 64, cfg.Turns.EventBuffer)
	assert.Equal(suite.T(), "DFA", cfg.Defaults.Topic)
	assert.Equal(suite.T(), "info", cfg.Log.Level)

	assert.ErrorIs(suite.T(), cfg.Validate(), ErrMissingAPIKey)
}

func (suite *ConfigTestSuite) TestLoadWithFile() {
	path := suite.writeConfig(`
server:
  addr: ":9000"
llm:
  provider: openai
  api_key: file-key
  temperature: 0.2
store:
  type: sqlite
  sqlite_path: ./tutor.db
turns:
  timeout: 30s
  max_concurrent: 8
  reject_concurrent: true
`)

	cfg, err := Load(path)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), ":9000", cfg.Server.Addr)
	assert.Equal(suite.T(), ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(suite.T(), "file-key", cfg.LLM.APIKey)
	assert.Equal(suite.T(), StoreSQLite, cfg.Store.Type)
	assert.Equal(suite.T(), "./tutor.db", cfg.Store.SQLitePath)
	assert.Equal(suite.T(), 30*time.Second, cfg.Turns.Timeout)
	assert.Equal(suite.T(), int64(8), cfg.Turns.MaxConcurrent)
	assert.True(suite.T(), cfg.Turns.RejectConcurrent)
	assert.NoError(suite.T(), cfg.Validate())
}

func (suite *ConfigTestSuite) TestLoadMissingExplicitFileFails() {
	_, err := Load(filepath.Join(suite.tempDir, "missing.yaml"))
	assert.Error(suite.T(), err)
}

func (suite *ConfigTestSuite) TestLegacyEnvironmentNames() {
	suite.T().Setenv("GROQ_API_KEY", "legacy-key")
	suite.T().Setenv("CHECKPOINTER_TYPE", "sqlite")
	suite.T().Setenv("SQLITE_PATH", "/var/lib/tutor/state.db")

	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "legacy-key", cfg.LLM.APIKey)
	assert.Equal(suite.T(), StoreSQLite, cfg.Store.Type)
	assert.Equal(suite.T(), "/var/lib/tutor/state.db", cfg.Store.SQLitePath)
}

func (suite *ConfigTestSuite) TestPrefixedEnvironmentWins() {
	suite.T().Setenv("GROQ_API_KEY", "legacy-key")
	suite.T().Setenv("TUTOR_LLM_API_KEY", "prefixed-key")
	suite.T().Setenv("TUTOR_SERVER_ADDR", ":7000")

	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "prefixed-key", cfg.LLM.APIKey)
	assert.Equal(suite.T(), ":7000", cfg.Server.Addr)
}

func (suite *ConfigTestSuite) TestProviderKeyFromItsOwnEnvironment() {
	suite.T().Setenv("TUTOR_LLM_PROVIDER", "openai")
	suite.T().Setenv("OPENAI_API_KEY", "openai-key")
	suite.T().Setenv("GROQ_API_KEY", "groq-key")

	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(suite.T(), "openai-key", cfg.LLM.APIKey)
	assert.NoError(suite.T(), cfg.Validate())
}

func (suite *ConfigTestSuite) TestOtherProviderKeyIsNotUsed() {
	suite.T().Setenv("TUTOR_LLM_PROVIDER", "openai")
	suite.T().Setenv("GROQ_API_KEY", "groq-key")

	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Empty(suite.T(), cfg.LLM.APIKey)
	assert.ErrorIs(suite.T(), cfg.Validate(), ErrMissingAPIKey)
}

func (suite *ConfigTestSuite) TestConfiguredKeyWinsOverProviderEnvironment() {
	suite.T().Setenv("OPENAI_API_KEY", "env-key")
	path := suite.writeConfig(`
llm:
  provider: openai
  api_key: file-key
`)

	cfg, err := Load(path)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "file-key", cfg.LLM.APIKey)
}

func (suite *ConfigTestSuite) TestValidateRejectsUnsupportedSettings() {
	cfg, err := Load("")
	require.NoError(suite.T(), err)
	cfg.LLM.APIKey = "key"

	cfg.Store.Type = StorePostgres
	assert.ErrorContains(suite.T(), cfg.Validate(), "postgres")

	cfg.Store.Type = "redis"
	assert.ErrorContains(suite.T(), cfg.Validate(), "unknown store type")

	cfg.Store.Type = StoreMemory
	cfg.LLM.Provider = "anthropic"
	assert.ErrorContains(suite.T(), cfg.Validate(), "unknown llm provider")

	cfg.LLM.Provider = ProviderGroq
	cfg.Turns.EventBuffer = 0
	assert.ErrorContains(suite.T(), cfg.Validate(), "event_buffer")

	cfg.Turns.EventBuffer = 1
	cfg.Server.WriteTimeout = 0
	assert.ErrorContains(suite.T(), cfg.Validate(), "write_timeout")

	cfg.Server.WriteTimeout = time.Second
	assert.NoError(suite.T(), cfg.Validate())
}
