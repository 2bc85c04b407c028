// Package app assembles the valuation engine from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"property-valuation/config"
	"property-valuation/metrics"
	"property-valuation/services"
	"property-valuation/storage"
	"property-valuation/utils"
)

// App holds the wired engine and everything that must be closed with it.
type App struct {
	Config   *config.Config
	Logger   *utils.Logger
	Engine   *services.Engine
	Registry *prometheus.Registry

	runs storage.RunStore
}

// New opens the configured store backend and builds the engine.
func New(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*App, error) {
	stores, runs, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.NewValuationMetrics(registry)
	if err != nil {
		_ = runs.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	engine := services.NewEngine(logger, stores, services.EngineOptions{
		Cleaner:         services.NewCleaner(logger),
		Ranker:          services.NewRanker(services.NewScorer(cfg.LegacyOriginDistance), cfg.ScoringWorkers),
		Aggregator:      services.NewAggregator(cfg.IQRMultiplier, cfg.HedonicBlend),
		Metrics:         m,
		DefaultTopK:     cfg.DefaultTopK,
		MaxPoolSize:     cfg.MaxPoolSize,
		DefaultStrategy: cfg.ValuationStrategy,
		AuditLimit:      cfg.AuditQueryLimit,
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Engine:   engine,
		Registry: registry,
		runs:     runs,
	}, nil
}

// Close releases the run store.
func (a *App) Close() error {
	return a.runs.Close()
}

func openStores(ctx context.Context, cfg *config.Config, logger *utils.Logger) (services.Stores, storage.RunStore, error) {
	stores := services.MemoryStores()

	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Info("[app] using in-memory store")
	case config.BackendFile:
		fs, err := storage.NewFileRunStore(cfg.RunStorePath)
		if err != nil {
			return services.Stores{}, nil, err
		}
		logger.Info("[app] using file store at %s", cfg.RunStorePath)
		stores.Runs = fs
	case config.BackendPostgres:
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: logger}
		ps, err := storage.NewPostgresStore(ctx, cfg.DSN(), retry)
		if err != nil {
			return services.Stores{}, nil, err
		}
		logger.Info("[app] using postgres store at %s:%s/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		stores.Runs = ps
		stores.Audit = ps
	default:
		return services.Stores{}, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return stores, stores.Runs, nil
}
