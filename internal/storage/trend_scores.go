package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

// InsertTrendScore appends one analysis snapshot. Snapshots are
// immutable; history accumulates one row per run per subject.
func (db *DB) InsertTrendScore(ctx context.Context, score domain.TrendScore) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO trend_scores (
			id, subject_id, window_hours,
			mean, std_dev, z_score, heat_score, snap_score,
			is_trending, calculated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		score.ID, score.SubjectID, score.WindowHours,
		score.Mean, score.StdDev, score.ZScore, score.HeatScore, score.SnapScore,
		score.IsTrending, score.CalculatedAt)
	if err != nil {
		return fmt.Errorf("insert trend score: %w", err)
	}

	return nil
}

// GetLatestTrendScore returns the most recent snapshot for a subject, or
// nil when none exists yet.
func (db *DB) GetLatestTrendScore(ctx context.Context, subjectID string) (*domain.TrendScore, error) {
	var s domain.TrendScore

	err := db.Pool.QueryRow(ctx, `
		SELECT id, subject_id, window_hours,
		       mean, std_dev, z_score, heat_score, snap_score,
		       is_trending, calculated_at
		FROM trend_scores
		WHERE subject_id = $1
		ORDER BY calculated_at DESC
		LIMIT 1`, subjectID).
		Scan(&s.ID, &s.SubjectID, &s.WindowHours,
			&s.Mean, &s.StdDev, &s.ZScore, &s.HeatScore, &s.SnapScore,
			&s.IsTrending, &s.CalculatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("query latest trend score: %w", err)
	}

	return &s, nil
}

// GetTrendingHeadlines returns the keywords of currently trending
// subjects, hottest first, for use as news context in scoring prompts.
func (db *DB) GetTrendingHeadlines(ctx context.Context, limit int) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT DISTINCT ON (s.id) s.keyword, t.heat_score
		FROM trend_scores t
		JOIN subjects s ON s.id = t.subject_id
		WHERE t.is_trending = TRUE
		ORDER BY s.id, t.calculated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query trending headlines: %w", err)
	}
	defer rows.Close()

	type headline struct {
		keyword string
		heat    float64
	}

	var all []headline

	for rows.Next() {
		var h headline
		if err := rows.Scan(&h.keyword, &h.heat); err != nil {
			return nil, fmt.Errorf("scan headline: %w", err)
		}

		all = append(all, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate headlines: %w", err)
	}

	// DISTINCT ON forces subject-id ordering, so rank by heat here.
	sort.Slice(all, func(i, j int) bool { return all[i].heat > all[j].heat })

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	keywords := make([]string, 0, len(all))
	for _, h := range all {
		keywords = append(keywords, h.keyword)
	}

	return keywords, nil
}
