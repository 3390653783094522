package cli

import (
	"context"
	"fmt"
	"time"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/errors"
	"resumescan/internal/judge"
	"resumescan/internal/keywords"
	"resumescan/internal/lifecycle"
	"resumescan/internal/observability"
	"resumescan/internal/pipeline"
	"resumescan/internal/quality"
	"resumescan/internal/store"
	"resumescan/internal/suggestions"

	"github.com/redis/go-redis/v9"
)

// components is the wired application shared by analyze and serve
type components struct {
	obs       *observability.ObservabilityManager
	services  *ai.Services
	store     store.Store
	keywords  *keywords.Engine
	judge     *judge.Judge
	lifecycle *lifecycle.Manager
	pipeline  *pipeline.Pipeline
	variants  *keywords.VariantWatcher
	redis     *redis.Client
	logger    *errors.Logger
}

// buildComponents wires every service from cfg. The caller must Close the result.
func buildComponents(ctx context.Context, cfg *config.Config, logger *errors.Logger) (_ *components, err error) {
	c := &components{logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	c.obs, err = observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	metrics := c.obs.Metrics()

	c.services, err = ai.NewServices(cfg, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI services: %w", err)
	}

	if c.store, err = openStore(ctx, cfg, logger); err != nil {
		return nil, err
	}

	table, err := keywords.LoadTable(cfg.Keywords.VariantsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword variants: %w", err)
	}
	if cfg.Keywords.WatchVariants && cfg.Keywords.VariantsFile != "" {
		c.variants = keywords.NewVariantWatcher(cfg.Keywords.VariantsFile, table, cfg.Keywords.DebounceDelay, logger)
		if err := c.variants.Start(); err != nil {
			return nil, fmt.Errorf("failed to start variant watcher: %w", err)
		}
	}

	var cache keywords.Cache
	if cfg.Cache.Enabled {
		client, err := keywords.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			// extraction still works, only uncached
			logger.LogError(err, "Keyword cache unavailable, continuing without it", "addr", cfg.Cache.RedisAddr)
		} else {
			c.redis = client
			cache = keywords.NewRedisCache(client, cfg.Cache.TTL)
		}
	}

	c.keywords = keywords.NewEngine(c.services.Keywords, keywords.Options{
		Table:       table,
		Cache:       cache,
		AIConfig:    cfg.GetKeywordsConfig(),
		MaxKeywords: cfg.Keywords.MaxKeywords,
		Recorder:    metrics,
		Logger:      logger,
	})

	generator := suggestions.NewPipeline(suggestions.Options{
		Completer:   c.services.Suggest,
		AIConfig:    cfg.GetSuggestConfig(),
		Table:       table,
		Concurrency: cfg.Pipeline.SectionConcurrency,
		Logger:      logger,
	})

	c.judge = judge.New(c.services.Judge, judge.Options{
		AIConfig:     cfg.GetJudgeConfig(),
		Concurrency:  cfg.Pipeline.JudgeConcurrency,
		ExcerptRunes: cfg.Pipeline.JDExcerptRunes,
		Recorder:     metrics,
		Logger:       logger,
	})

	sinks := quality.MultiSink{quality.NewLoggerSink(logger)}
	if metrics.QualityAlertsEnabled() {
		ms, err := quality.NewMetricsSink(c.obs.Meter("resumescan.quality"))
		if err != nil {
			return nil, fmt.Errorf("failed to create quality alert metrics: %w", err)
		}
		sinks = append(sinks, ms)
	}

	c.pipeline, err = pipeline.New(pipeline.Options{
		Keywords:  c.keywords,
		Generator: generator,
		Judge:     c.judge,
		Store:     c.store,
		AlertSink: sinks,
		Recorder:  metrics,
		Tracer:    c.obs.Tracer("resumescan.pipeline"),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	c.lifecycle = lifecycle.NewManager(c.store, metrics, logger)
	return c, nil
}

// openStore connects to Postgres and applies migrations, or falls back to
// the in-memory store when no database URL is configured
func openStore(ctx context.Context, cfg *config.Config, logger *errors.Logger) (store.Store, error) {
	if cfg.Database.URL == "" {
		logger.Warn("No database configured, scans are kept in memory only")
		return store.NewMemory(), nil
	}

	pg, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, errors.NewDatabaseError(errors.ErrCodeDB, "failed to open database", err)
	}
	applied, err := pg.Migrate(ctx)
	if err != nil {
		pg.Close()
		return nil, err
	}
	logger.Info("Database ready", "migrations", applied)
	return pg, nil
}

// Close releases every resource in reverse order of creation
func (c *components) Close() {
	if c.variants != nil {
		if err := c.variants.Stop(); err != nil {
			c.logger.LogError(err, "Failed to stop variant watcher")
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.LogError(err, "Failed to close Redis client")
		}
	}
	if c.store != nil {
		c.store.Close()
	}
	if c.obs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.obs.Shutdown(ctx); err != nil {
			c.logger.LogError(err, "Failed to shutdown observability")
		}
	}
}
