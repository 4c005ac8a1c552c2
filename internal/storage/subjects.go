package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

// GetDueSubjects returns the enabled subjects with the oldest processing
// timestamps, never-processed subjects first. This realizes round-robin
// fairness across batch invocations: marking a subject processed sends
// it to the back of the queue.
func (db *DB) GetDueSubjects(ctx context.Context, limit int) ([]domain.Subject, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, keyword, community, enabled, last_processed_at
		FROM subjects
		WHERE enabled = TRUE
		ORDER BY last_processed_at ASC NULLS FIRST
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query due subjects: %w", err)
	}
	defer rows.Close()

	return scanSubjects(rows)
}

// GetEnabledSubjects returns all enabled subjects.
func (db *DB) GetEnabledSubjects(ctx context.Context) ([]domain.Subject, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, keyword, community, enabled, last_processed_at
		FROM subjects
		WHERE enabled = TRUE
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query enabled subjects: %w", err)
	}
	defer rows.Close()

	return scanSubjects(rows)
}

// MarkProcessed stamps the subject's last processing time. Called for
// every subject a run touches, successful or not, so a failing subject
// cannot starve the rest of the queue.
func (db *DB) MarkProcessed(ctx context.Context, subjectID string, at time.Time) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE subjects SET last_processed_at = $2 WHERE id = $1`,
		subjectID, at)
	if err != nil {
		return fmt.Errorf("mark subject processed: %w", err)
	}

	return nil
}

// GetOfferContext returns the user's business description used to ground
// AI replies. Empty string when the user has not set one.
func (db *DB) GetOfferContext(ctx context.Context, userID string) (string, error) {
	var offer string

	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(offer_context, '') FROM user_plans WHERE user_id = $1`,
		userID).Scan(&offer)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}

		return "", fmt.Errorf("query offer context: %w", err)
	}

	return offer, nil
}

func scanSubjects(rows pgx.Rows) ([]domain.Subject, error) {
	var subjects []domain.Subject

	for rows.Next() {
		var s domain.Subject
		if err := rows.Scan(&s.ID, &s.UserID, &s.Keyword, &s.Community, &s.Enabled, &s.LastProcessedAt); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}

		subjects = append(subjects, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}

	return subjects, nil
}
