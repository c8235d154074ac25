package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	orchestration "github.com/SharminSirajudeen/ai-tutor-mvp/core"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms/groq"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms/openai"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/stores/memory"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/stores/sqlite"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/tools"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/tools/automata"
	"github.com/SharminSirajudeen/ai-tutor-mvp/internal/config"
	"github.com/SharminSirajudeen/ai-tutor-mvp/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP, SSE and WebSocket server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	catalog, err := automata.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("failed to load automata catalog: %w", err)
	}
	registry, err := tools.NewRegistry(automata.Capabilities(catalog)...)
	if err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	client := newGenerator(cfg.LLM)
	o := orchestration.NewOrchestrator(
		orchestration.WithGenerator(client),
		orchestration.WithStore(store),
		orchestration.WithTools(registry),
		orchestration.WithDefaultTopic(cfg.Defaults.Topic),
		orchestration.WithTurnTimeout(cfg.Turns.Timeout),
		orchestration.WithMaxConcurrentTurns(cfg.Turns.MaxConcurrent),
		orchestration.WithRejectConcurrentTurns(cfg.Turns.RejectConcurrent),
		orchestration.WithEventBuffer(cfg.Turns.EventBuffer),
	)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(o, server.WithLogger(logger), server.WithWriteTimeout(cfg.Server.WriteTimeout)).Handler(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("provider", cfg.LLM.Provider).
			Str("model", client.Model()).
			Str("store", cfg.Store.Type).
			Strs("tools", registry.Names()).
			Msg("tutord listening")
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			o.Close()
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown incomplete")
	}

	// Turns whose clients already left still persist before exit.
	o.Close()
	logger.Info().Msg("stopped")
	return nil
}

func newGenerator(cfg config.LLMConfig) *groq.Client {
	opts := []groq.ClientOption{groq.WithTemperature(cfg.Temperature)}
	if cfg.Model != "" {
		opts = append(opts, groq.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, groq.WithBaseURL(cfg.BaseURL))
	}

	if cfg.Provider == config.ProviderOpenAI {
		return openai.NewClient(cfg.APIKey, opts...)
	}
	return groq.NewClient(cfg.APIKey, opts...)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (orchestration.ConversationStore, func(), error) {
	switch cfg.Type {
	case config.StoreSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}
