package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	"github.com/jdylanwp/trendjack/internal/core/stats"
	"github.com/jdylanwp/trendjack/internal/platform/config"
	"github.com/jdylanwp/trendjack/internal/platform/observability"
)

// entityStore is the storage surface the entity pipeline needs.
type entityStore interface {
	GetDueEntities(ctx context.Context, limit int) ([]domain.Entity, error)
	GetEntityMentions(ctx context.Context, entityID string, since time.Time) ([]domain.EntityMention, error)
	UpdateEntityAnalysis(ctx context.Context, e domain.Entity) error
}

// EntityPipeline rotates through tracked entities, recomputing volume
// rollups, momentum dynamics and the trend classification.
type EntityPipeline struct {
	store      entityStore
	thresholds stats.ClassifierThresholds
	cfg        *config.Config
	logger     *zerolog.Logger
	now        func() time.Time
}

// NewEntityPipeline wires an entity pipeline.
func NewEntityPipeline(store entityStore, cfg *config.Config, logger *zerolog.Logger) *EntityPipeline {
	return &EntityPipeline{
		store:      store,
		thresholds: stats.DefaultClassifierThresholds(),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// EntityRunSummary describes one entity pass.
type EntityRunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Analyzed   int
	Errors     int
}

// Run analyzes the stalest batch of entities. Per-entity failures are
// logged and skipped; only an unreachable entity list is fatal.
func (p *EntityPipeline) Run(ctx context.Context) (*EntityRunSummary, error) {
	summary := &EntityRunSummary{StartedAt: p.now()}
	defer func() {
		summary.FinishedAt = p.now()
		observability.RunDuration.WithLabelValues("entities").
			Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	}()

	entities, err := p.store.GetDueEntities(ctx, p.cfg.EntityBatchSize)
	if err != nil {
		return summary, fmt.Errorf("get due entities: %w", err)
	}

	for _, entity := range entities {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		if err := p.analyzeEntity(ctx, entity); err != nil {
			summary.Errors++

			p.logger.Error().Err(err).Str("entity_id", entity.ID).Msg("analyze entity")

			continue
		}

		summary.Analyzed++
	}

	p.logger.Info().
		Int("analyzed", summary.Analyzed).
		Int("errors", summary.Errors).
		Msg("entity pipeline run complete")

	return summary, nil
}

// analyzeEntity recomputes one entity's statistics from its daily
// mention history and writes the result back.
func (p *EntityPipeline) analyzeEntity(ctx context.Context, entity domain.Entity) error {
	now := p.now()
	historyDays := p.cfg.EntityHistoryDays
	// historyDays days inclusive of today.
	since := now.AddDate(0, 0, -(historyDays - 1))

	mentions, err := p.store.GetEntityMentions(ctx, entity.ID, since)
	if err != nil {
		return fmt.Errorf("get entity mentions: %w", err)
	}

	series := fillDailySeries(entity.ID, mentions, since, historyDays)

	volume24h, volume7d, volume30d := volumeRollups(series)

	counts := make([]float64, len(series))
	points := make([]stats.Point, len(series))

	for i, m := range series {
		counts[i] = float64(m.Count)
		points[i] = stats.Point{X: float64(i), Y: float64(m.Count)}
	}

	mean := stats.Mean(counts)
	zScore := stats.ZScore(float64(volume24h), mean, stats.StdDev(counts, mean))
	reg := stats.LinearRegression(points)
	state := stats.ClassifyTrend(zScore, reg, volume24h, p.thresholds)

	dynamics := stats.AnalyzeDynamics(series)
	signal := stats.ClassifySignal(series)

	analyzedAt := now
	entity.Volume24h = volume24h
	entity.Volume7d = volume7d
	entity.Volume30d = volume30d
	entity.ZScore = stats.Round2(zScore)
	entity.GrowthSlope = stats.Round2(reg.Slope)
	entity.TrendStatus = string(state)
	entity.LastAnalyzedAt = &analyzedAt

	if err := p.store.UpdateEntityAnalysis(ctx, entity); err != nil {
		return fmt.Errorf("update entity analysis: %w", err)
	}

	p.logger.Info().
		Str("entity_id", entity.ID).
		Str("name", entity.Name).
		Str("trend_status", entity.TrendStatus).
		Str("signal", string(signal)).
		Float64("z_score", entity.ZScore).
		Float64("g_force", dynamics.GForce).
		Int("confidence", dynamics.Confidence).
		Int("volume_24h", volume24h).
		Msg("entity analyzed")

	return nil
}

// fillDailySeries expands sparse mention rows into a dense day-by-day
// series: days without a row count as zero. The series always spans
// exactly historyDays days ending today.
func fillDailySeries(entityID string, mentions []domain.EntityMention, since time.Time, historyDays int) []domain.EntityMention {
	byDay := make(map[string]int, len(mentions))
	for _, m := range mentions {
		byDay[m.Date.UTC().Format("2006-01-02")] = m.Count
	}

	start := since.UTC().Truncate(24 * time.Hour)
	series := make([]domain.EntityMention, 0, historyDays)

	for i := 0; i < historyDays; i++ {
		day := start.AddDate(0, 0, i)
		series = append(series, domain.EntityMention{
			EntityID: entityID,
			Date:     day,
			Count:    byDay[day.Format("2006-01-02")],
		})
	}

	return series
}

// volumeRollups sums the dense series into the 24h/7d/30d windows.
func volumeRollups(series []domain.EntityMention) (day, week, month int) {
	for i, m := range series {
		month += m.Count

		if i >= len(series)-7 {
			week += m.Count
		}

		if i == len(series)-1 {
			day = m.Count
		}
	}

	return day, week, month
}
