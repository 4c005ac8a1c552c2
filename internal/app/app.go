// Package app wires configuration, storage, the AI client and the
// pipelines into runnable modes.
package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jdylanwp/trendjack/internal/core/llm"
	"github.com/jdylanwp/trendjack/internal/core/stats"
	"github.com/jdylanwp/trendjack/internal/platform/config"
	"github.com/jdylanwp/trendjack/internal/platform/observability"
	"github.com/jdylanwp/trendjack/internal/platform/worker"
	"github.com/jdylanwp/trendjack/internal/process/dedup"
	"github.com/jdylanwp/trendjack/internal/process/embedder"
	"github.com/jdylanwp/trendjack/internal/process/filters"
	"github.com/jdylanwp/trendjack/internal/process/pipeline"
	"github.com/jdylanwp/trendjack/internal/process/scorer"
	"github.com/jdylanwp/trendjack/internal/process/semantic"
	db "github.com/jdylanwp/trendjack/internal/storage"
)

// pipelineLocker hands out per-pipeline advisory locks.
type pipelineLocker interface {
	TryAcquireLock(ctx context.Context, key int64) (db.Lock, error)
}

// App holds the wired engine.
type App struct {
	cfg      *config.Config
	db       *db.DB
	locks    pipelineLocker
	llm      llm.Client
	leads    *pipeline.LeadPipeline
	trends   *pipeline.TrendPipeline
	entities *pipeline.EntityPipeline
	embedder *embedder.Backfiller
	logger   *zerolog.Logger
}

// New connects storage, runs migrations and builds the pipelines.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	database, err := db.NewWithOptions(ctx, cfg.PostgresDSN, db.PoolOptions{
		MaxConns:          cfg.DBMaxConnections,
		MinConns:          cfg.DBMinConnections,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := database.Migrate(ctx); err != nil {
		database.Close()

		return nil, fmt.Errorf("migrate: %w", err)
	}

	client := llm.New(cfg, logger)

	analyzer := &stats.Analyzer{
		ZScoreThreshold: cfg.ZScoreThreshold,
		MinCurrentCount: cfg.MinTrendingCount,
		RecentWindow:    cfg.TrendWindow(),
	}

	sc := scorer.New(client, cfg.ScoreGroupSize, cfg.AICallTimeout, cfg.FuryEnabled, logger)

	var leadPipeline *pipeline.LeadPipeline
	if cfg.SemanticMatchEnabled {
		matcher := semantic.New(client, database, float64(cfg.SemanticThreshold), cfg.SemanticMatchLimit, logger)
		leadPipeline = pipeline.NewLeadPipeline(database, filters.New(), matcher, dedup.New(database, logger), sc, cfg, logger)
	} else {
		leadPipeline = pipeline.NewLeadPipeline(database, filters.New(), nil, dedup.New(database, logger), sc, cfg, logger)
	}

	return &App{
		cfg:      cfg,
		db:       database,
		locks:    database,
		llm:      client,
		leads:    leadPipeline,
		trends:   pipeline.NewTrendPipeline(database, analyzer, cfg, logger),
		entities: pipeline.NewEntityPipeline(database, cfg, logger),
		embedder: embedder.New(client, database, cfg.EmbedBatchSize, logger),
		logger:   logger,
	}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	a.db.Close()
}

// RunLeads executes one lead-pipeline batch under an advisory lock.
func (a *App) RunLeads(ctx context.Context) error {
	return a.runLocked(ctx, db.LockLeadsPipeline, "leads", func(ctx context.Context) error {
		_, err := a.leads.Run(ctx)

		return err
	})
}

// RunTrends executes one trend-statistics pass under an advisory lock.
func (a *App) RunTrends(ctx context.Context) error {
	return a.runLocked(ctx, db.LockTrendsPipeline, "trends", func(ctx context.Context) error {
		_, err := a.trends.Run(ctx)

		return err
	})
}

// RunEntities executes one entity-dynamics pass under an advisory lock.
func (a *App) RunEntities(ctx context.Context) error {
	return a.runLocked(ctx, db.LockEntitiesPipeline, "entities", func(ctx context.Context) error {
		_, err := a.entities.Run(ctx)

		return err
	})
}

// RunEmbed drains the embedding backlog once.
func (a *App) RunEmbed(ctx context.Context) error {
	return a.embedder.Drain(ctx, a.cfg.EmbedPollInterval)
}

// runLocked takes the pipeline's advisory lock, skipping the run if a
// concurrent invocation already holds it. The lock is released even
// when the run's context is already canceled.
func (a *App) runLocked(ctx context.Context, key int64, name string, run func(ctx context.Context) error) error {
	lock, err := a.locks.TryAcquireLock(ctx, key)
	if err != nil {
		return err
	}

	if lock == nil {
		a.logger.Warn().Str("pipeline", name).Msg("skipping run, lock held by another instance")

		return nil
	}

	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			a.logger.Error().Err(err).Str("pipeline", name).Msg("release pipeline lock")
		}
	}()

	return run(ctx)
}

// RunServe runs all pipelines on their cron schedules plus the embedding
// backfill worker and the health server, until the context ends.
func (a *App) RunServe(ctx context.Context) error {
	scheduler := cron.New(cron.WithSeconds())

	schedules := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{name: "leads", spec: a.cfg.LeadsSchedule, run: a.RunLeads},
		{name: "trends", spec: a.cfg.TrendsSchedule, run: a.RunTrends},
		{name: "entities", spec: a.cfg.EntitiesSchedule, run: a.RunEntities},
	}

	for _, s := range schedules {
		_, err := scheduler.AddFunc(s.spec, func() {
			defer worker.RecoverPanic(a.logger, s.name+" pipeline")

			if err := s.run(ctx); err != nil {
				a.logger.Error().Err(err).Str("pipeline", s.name).Msg("scheduled run failed")
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %s pipeline: %w", s.name, err)
		}
	}

	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 2)

	go func() {
		errCh <- worker.Loop(ctx, worker.Config{
			Name:         "embedding-backfill",
			PollInterval: a.cfg.EmbedPollInterval,
			Process: func(ctx context.Context) error {
				_, err := a.embedder.RunOnce(ctx)

				return err
			},
			OnError: func(error) bool { return true },
			Logger:  a.logger,
		})
	}()

	go func() {
		errCh <- observability.NewServer(a.db, a.cfg.HealthPort, a.logger).Start(ctx)
	}()

	a.logger.Info().
		Str("leads_schedule", a.cfg.LeadsSchedule).
		Str("trends_schedule", a.cfg.TrendsSchedule).
		Str("entities_schedule", a.cfg.EntitiesSchedule).
		Msg("serve mode started")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
