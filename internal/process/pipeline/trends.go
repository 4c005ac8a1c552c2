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

// trendStore is the storage surface the trend pipeline needs.
type trendStore interface {
	GetEnabledSubjects(ctx context.Context) ([]domain.Subject, error)
	GetBucketsBatch(ctx context.Context, subjectIDs []string, since time.Time) (map[string][]domain.CountBucket, error)
	GetLatestTrendScore(ctx context.Context, subjectID string) (*domain.TrendScore, error)
	InsertTrendScore(ctx context.Context, score domain.TrendScore) error
}

// TrendPipeline recomputes trend statistics for every enabled subject
// and appends one immutable snapshot per subject per run.
type TrendPipeline struct {
	store    trendStore
	analyzer *stats.Analyzer
	cfg      *config.Config
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewTrendPipeline wires a trend pipeline.
func NewTrendPipeline(store trendStore, analyzer *stats.Analyzer, cfg *config.Config, logger *zerolog.Logger) *TrendPipeline {
	return &TrendPipeline{
		store:    store,
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// TrendRunSummary describes one trend pass. NewlyTrending counts
// subjects that crossed into trending since their previous snapshot.
type TrendRunSummary struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	Analyzed      int
	Trending      int
	NewlyTrending int
	Skipped       int
	Errors        int
}

// Run loads the full history window for all enabled subjects in one
// batch query, analyzes each series, and stores the snapshots. Subjects
// with no buckets in the window are skipped, not scored as zero.
func (p *TrendPipeline) Run(ctx context.Context) (*TrendRunSummary, error) {
	summary := &TrendRunSummary{StartedAt: p.now()}
	defer func() {
		summary.FinishedAt = p.now()
		observability.RunDuration.WithLabelValues("trends").
			Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	}()

	subjects, err := p.store.GetEnabledSubjects(ctx)
	if err != nil {
		return summary, fmt.Errorf("get enabled subjects: %w", err)
	}

	ids := make([]string, 0, len(subjects))
	for _, s := range subjects {
		ids = append(ids, s.ID)
	}

	now := p.now()

	buckets, err := p.store.GetBucketsBatch(ctx, ids, now.Add(-p.cfg.TrendHistory()))
	if err != nil {
		return summary, fmt.Errorf("get buckets batch: %w", err)
	}

	for _, subject := range subjects {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		analysis := p.analyzer.AnalyzeSeries(buckets[subject.ID], now)
		if analysis == nil {
			summary.Skipped++

			continue
		}

		// Loaded before the insert so it reflects the prior run, not the
		// snapshot being written now.
		previous, err := p.store.GetLatestTrendScore(ctx, subject.ID)
		if err != nil {
			p.logger.Warn().Err(err).Str("subject_id", subject.ID).Msg("load previous trend score")
		}

		score := domain.TrendScore{
			SubjectID:    subject.ID,
			WindowHours:  p.cfg.TrendWindowHours,
			Mean:         analysis.Mean,
			StdDev:       analysis.StdDev,
			ZScore:       analysis.ZScore,
			HeatScore:    analysis.HeatScore,
			SnapScore:    analysis.SnapScore,
			IsTrending:   analysis.IsTrending,
			CalculatedAt: now,
		}

		if err := p.store.InsertTrendScore(ctx, score); err != nil {
			summary.Errors++

			p.logger.Error().Err(err).Str("subject_id", subject.ID).Msg("insert trend score")

			continue
		}

		observability.TrendScoresComputed.Inc()

		summary.Analyzed++

		if analysis.IsTrending {
			summary.Trending++

			newly := previous == nil || !previous.IsTrending
			if newly {
				summary.NewlyTrending++
			}

			p.logger.Info().
				Str("subject_id", subject.ID).
				Str("keyword", subject.Keyword).
				Float64("z_score", analysis.ZScore).
				Int("current_count", analysis.CurrentCount).
				Float64("snap_score", analysis.SnapScore).
				Bool("newly_trending", newly).
				Msg("subject trending")
		}
	}

	observability.TrendingSubjects.Set(float64(summary.Trending))

	p.logger.Info().
		Int("analyzed", summary.Analyzed).
		Int("trending", summary.Trending).
		Int("newly_trending", summary.NewlyTrending).
		Int("skipped", summary.Skipped).
		Int("errors", summary.Errors).
		Msg("trend pipeline run complete")

	return summary, nil
}
