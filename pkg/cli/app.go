package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/config"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/extractor"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/llm"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/logging"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/services"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/store"
)

// app holds the process-wide components.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	service services.AnalysisService
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	logLevel string
	backend  string
	noColor  bool
}

// loadBase reads configuration and builds the logger.
func loadBase(version string, opts *globalOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(version)
	if err != nil {
		return nil, nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.backend != "" {
		b, err := store.ParseBackend(opts.backend)
		if err != nil {
			return nil, nil, err
		}
		cfg.Database.Backend = string(b)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// newApp wires config, logger, AI client, store selection and the
// analysis service, in that order. A missing API key fails before any
// database connection is attempted.
func newApp(ctx context.Context, version string, opts *globalOptions) (*app, error) {
	cfg, logger, err := loadBase(version, opts)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(aiConfig(cfg), logger)
	if err != nil {
		logger.Error("AI client configuration failed", zap.Error(err))
		_ = logger.Sync()
		return nil, err
	}

	sel := store.Select(ctx, selectorConfig(cfg), logger)
	logger.Info("Store selected",
		zap.String("backend", string(sel.Backend())),
		zap.Bool("degraded", sel.Degraded()))

	svc := services.NewAnalysisService(extractor.New(logger), client, sel, logger)
	return &app{cfg: cfg, logger: logger, service: svc}, nil
}

func (a *app) close() {
	if err := a.service.Shutdown(); err != nil {
		a.logger.Warn("Shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func aiConfig(cfg *config.Config) llm.Config {
	c := llm.Config{
		Provider: cfg.AI.Provider,
		Timeout:  time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	}
	switch cfg.AI.Provider {
	case "openai":
		c.APIKey = cfg.AI.OpenAIAPIKey
		c.Model = cfg.AI.OpenAIModel
		c.Endpoint = cfg.AI.OpenAIBaseURL
	case "anthropic":
		c.APIKey = cfg.AI.AnthropicAPIKey
		c.Model = cfg.AI.AnthropicModel
	default:
		c.APIKey = cfg.AI.GeminiAPIKey
		c.Model = cfg.AI.GeminiModel
		c.Endpoint = cfg.AI.GeminiEndpoint
	}
	return c
}

func remoteConfig(cfg *config.Config) store.RemoteConfig {
	return store.RemoteConfig{
		Driver:         cfg.Database.Driver,
		Host:           cfg.Database.RemoteHost(),
		Port:           cfg.Database.Port,
		Database:       cfg.Database.Name,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		ConnectTimeout: time.Duration(cfg.Database.ConnectTimeoutSeconds) * time.Second,
	}
}

func selectorConfig(cfg *config.Config) store.SelectorConfig {
	preferred := store.BackendRemote
	if cfg.Database.Backend == string(store.BackendEmbedded) {
		preferred = store.BackendEmbedded
	}
	return store.SelectorConfig{
		Preferred: preferred,
		Remote:    remoteConfig(cfg),
	}
}
