package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

// GetDueEntities returns entities with the oldest analysis timestamps,
// never-analyzed first. Same rotation discipline as subjects.
func (db *DB) GetDueEntities(ctx context.Context, limit int) ([]domain.Entity, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, name, volume_24h, volume_7d, volume_30d,
		       z_score, growth_slope, trend_status, last_analyzed_at
		FROM entities
		ORDER BY last_analyzed_at ASC NULLS FIRST
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query due entities: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity

	for rows.Next() {
		var e domain.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.Volume24h, &e.Volume7d, &e.Volume30d,
			&e.ZScore, &e.GrowthSlope, &e.TrendStatus, &e.LastAnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}

		entities = append(entities, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}

	return entities, nil
}

// GetEntityMentions returns daily mention counts for an entity since the
// cutoff date, oldest first. Days with no mentions have no row; callers
// zero-fill.
func (db *DB) GetEntityMentions(ctx context.Context, entityID string, since time.Time) ([]domain.EntityMention, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT entity_id, mention_date, count
		FROM entity_mentions
		WHERE entity_id = $1 AND mention_date >= $2
		ORDER BY mention_date ASC`,
		entityID, since)
	if err != nil {
		return nil, fmt.Errorf("query entity mentions: %w", err)
	}
	defer rows.Close()

	var mentions []domain.EntityMention

	for rows.Next() {
		var m domain.EntityMention
		if err := rows.Scan(&m.EntityID, &m.Date, &m.Count); err != nil {
			return nil, fmt.Errorf("scan entity mention: %w", err)
		}

		mentions = append(mentions, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity mentions: %w", err)
	}

	return mentions, nil
}

// UpdateEntityAnalysis writes back the computed rollups and
// classification for one entity and stamps the analysis time.
func (db *DB) UpdateEntityAnalysis(ctx context.Context, e domain.Entity) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE entities
		SET volume_24h = $2,
		    volume_7d = $3,
		    volume_30d = $4,
		    z_score = $5,
		    growth_slope = $6,
		    trend_status = $7,
		    last_analyzed_at = $8
		WHERE id = $1`,
		e.ID, e.Volume24h, e.Volume7d, e.Volume30d,
		e.ZScore, e.GrowthSlope, e.TrendStatus, e.LastAnalyzedAt)
	if err != nil {
		return fmt.Errorf("update entity analysis: %w", err)
	}

	return nil
}
