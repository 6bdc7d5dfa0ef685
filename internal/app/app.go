// Package app assembles the candle cache engine from configuration:
// storage backend, source registry, coverage analyzer, and the cache
// manager that ties them together.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tealfin/candlecache/internal/cache"
	"github.com/tealfin/candlecache/internal/config"
	"github.com/tealfin/candlecache/internal/coverage"
	"github.com/tealfin/candlecache/internal/metrics"
	"github.com/tealfin/candlecache/internal/source"
	"github.com/tealfin/candlecache/internal/source/binance"
	"github.com/tealfin/candlecache/internal/storage"
	"github.com/tealfin/candlecache/internal/storage/shard"
)

// App holds the wired engine components.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Registry
	Registry *source.Registry
	Store    *shard.Store
	Manager  *cache.Manager
}

// New builds the engine from config. Storage type "none" runs the
// engine without persistence (remote-only sessions).
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir, err := buildDir(cfg, logger)
	if err != nil {
		return nil, err
	}
	store := shard.NewStore(dir, logger.Named("shard"))

	registry := source.NewRegistry()
	binanceOpts := []binance.Option{
		binance.WithLogger(logger.Named("binance")),
		binance.WithRateLimit(cfg.Binance.RateLimit),
		binance.WithMaxPages(cfg.Binance.MaxPages),
		binance.WithPageLimit(cfg.Binance.PageLimit),
	}
	var client *binance.Client
	if cfg.Binance.BaseURL != "" {
		client = binance.NewWithBaseURL(cfg.Binance.BaseURL, binanceOpts...)
	} else {
		client = binance.New(binanceOpts...)
	}
	if err := registry.Register(client.Name(), client); err != nil {
		return nil, err
	}

	analyzer := &coverage.Analyzer{
		MinCoverageRatio: cfg.Coverage.MinRatio,
		GapFactor:        cfg.Coverage.GapFactor,
	}

	reg := metrics.NewRegistry()
	manager := cache.New(registry, store, analyzer, logger.Named("cache"), reg)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  reg,
		Registry: registry,
		Store:    store,
		Manager:  manager,
	}, nil
}

func buildDir(cfg *config.Config, logger *zap.Logger) (storage.Dir, error) {
	switch cfg.Storage.Type {
	case "localfs":
		return storage.NewLocalDir(cfg.Storage.Path)
	case "s3":
		return storage.NewS3Dir(storage.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Endpoint:  cfg.Storage.S3.Endpoint,
			Region:    cfg.Storage.S3.Region,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Prefix:    cfg.Storage.S3.Prefix,
		})
	case "none":
		logger.Warn("running without a persistence backend")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}
