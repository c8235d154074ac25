// Package config loads tutord settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "TUTOR"

	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"

	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

var ErrMissingAPIKey = errors.New("llm api key is not set")

// Config stores all configuration of the service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Store    StoreConfig    `mapstructure:"store"`
	Turns    TurnsConfig    `mapstructure:"turns"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// LLMConfig selects the response generator. BaseURL and Model fall back to
// the provider's defaults when empty. An empty APIKey falls back to the
// provider's own environment variable, see providerKeyEnv.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // "groq", "openai"
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
}

type StoreConfig struct {
	Type       string `mapstructure:"type"` // "memory", "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"`
}

type TurnsConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxConcurrent    int64         `mapstructure:"max_concurrent"` // 0 means unlimited
	RejectConcurrent bool          `mapstructure:"reject_concurrent"`
	EventBuffer      int           `mapstructure:"event_buffer"`
}

type DefaultsConfig struct {
	Topic string `mapstructure:"topic"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// legacyEnv maps keys to the environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"store.type":        "CHECKPOINTER_TYPE",
	"store.sqlite_path": "SQLITE_PATH",
}

// providerKeyEnv names the environment variable each provider's SDKs read
// their key from.
var providerKeyEnv = map[string]string{
	ProviderGroq:   "GROQ_API_KEY",
	ProviderOpenAI: "OPENAI_API_KEY",
}

// Load reads configuration from configPath, or from config.yaml in the
// working directory when configPath is empty, and overlays the environment.
// A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		// The prefixed name wins over the legacy one.
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	for provider, env := range providerKeyEnv {
		if err := v.BindEnv("llm.api_keys."+provider, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v.GetString("llm.api_keys." + cfg.LLM.Provider)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.write_timeout", "10s")

	v.SetDefault("llm.provider", ProviderGroq)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("store.type", StoreMemory)
	v.SetDefault("store.sqlite_path", "./data/tutor.db")

	v.SetDefault("turns.timeout", "2m")
	v.SetDefault("turns.max_concurrent", 0)
	v.SetDefault("turns.reject_concurrent", false)
	v.SetDefault("turns.event_buffer", 64)

	v.SetDefault("defaults.topic", "DFA")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm temperature %v out of range [0, 2]", c.LLM.Temperature))
	}

	switch c.Store.Type {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite store requires store.sqlite_path"))
		}
	case StorePostgres:
		errs = append(errs, errors.New("postgres store is not supported, use memory or sqlite"))
	default:
		errs = append(errs, fmt.Errorf("unknown store type %q", c.Store.Type))
	}

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must be set"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}
	if c.Turns.Timeout <= 0 {
		errs = append(errs, errors.New("turns.timeout must be positive"))
	}
	if c.Turns.MaxConcurrent < 0 {
		errs = append(errs, errors.New("turns.max_concurrent must not be negative"))
	}
	if c.Turns.EventBuffer <= 0 {
		errs = append(errs, errors.New("turns.event_buffer must be positive"))
	}

	return errors.Join(errs...)
}
