package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	coreerrors "github.com/jdylanwp/trendjack/internal/core/errors"
)

// monthStart returns the first day of t's month in UTC, the key for one
// billing period's counter row.
func monthStart(t time.Time) time.Time {
	u := t.UTC()

	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// GetUserLimits returns the user's plan ceilings joined with the current
// month's usage counters. A user with no counter row yet reads as zero
// usage; a user with no plan row reads as zero ceilings, which denies
// everything.
func (db *DB) GetUserLimits(ctx context.Context, userID string, now time.Time) (domain.UserLimits, error) {
	var limits domain.UserLimits

	err := db.Pool.QueryRow(ctx, `
		SELECT COALESCE(u.ai_analyses_used, 0),
		       COALESCE(p.max_ai_analyses_per_month, 0),
		       COALESCE(u.leads_created, 0),
		       COALESCE(p.max_leads_per_month, 0)
		FROM user_plans p
		LEFT JOIN usage_counters u
		       ON u.user_id = p.user_id AND u.period_start = $2
		WHERE p.user_id = $1`,
		userID, monthStart(now)).
		Scan(&limits.CurrentAIAnalyses, &limits.MaxAIAnalysesPerMonth,
			&limits.CurrentLeads, &limits.MaxLeadsPerMonth)
	if err != nil {
		if isNoRows(err) {
			return domain.UserLimits{}, nil
		}

		return domain.UserLimits{}, fmt.Errorf("query user limits: %w", err)
	}

	return limits, nil
}

// TryReserveAIAnalyses atomically reserves n AI calls against the user's
// monthly budget. The check and the increment happen in one statement so
// concurrent runs cannot jointly overshoot the cap. Returns
// ErrQuotaExhausted when fewer than n calls remain.
func (db *DB) TryReserveAIAnalyses(ctx context.Context, userID string, n int, now time.Time) error {
	if err := db.ensureCounterRow(ctx, userID, now); err != nil {
		return err
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE usage_counters u
		SET ai_analyses_used = u.ai_analyses_used + $3
		FROM user_plans p
		WHERE u.user_id = $1 AND u.period_start = $2
		  AND p.user_id = u.user_id
		  AND u.ai_analyses_used + $3 <= p.max_ai_analyses_per_month`,
		userID, monthStart(now), n)
	if err != nil {
		return fmt.Errorf("reserve ai analyses: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ai analyses for user %s: %w", userID, coreerrors.ErrQuotaExhausted)
	}

	return nil
}

// ReleaseAIAnalyses returns n unused reservations to the budget, e.g.
// when a reserved call failed before completing. Never drives the
// counter negative.
func (db *DB) ReleaseAIAnalyses(ctx context.Context, userID string, n int, now time.Time) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE usage_counters
		SET ai_analyses_used = GREATEST(ai_analyses_used - $3, 0)
		WHERE user_id = $1 AND period_start = $2`,
		userID, monthStart(now), n)
	if err != nil {
		return fmt.Errorf("release ai analyses: %w", err)
	}

	return nil
}

// TryReserveLead atomically claims one slot of the user's monthly lead
// budget. Returns ErrQuotaExhausted when the budget is spent.
func (db *DB) TryReserveLead(ctx context.Context, userID string, now time.Time) error {
	if err := db.ensureCounterRow(ctx, userID, now); err != nil {
		return err
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE usage_counters u
		SET leads_created = u.leads_created + 1
		FROM user_plans p
		WHERE u.user_id = $1 AND u.period_start = $2
		  AND p.user_id = u.user_id
		  AND u.leads_created < p.max_leads_per_month`,
		userID, monthStart(now))
	if err != nil {
		return fmt.Errorf("reserve lead: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("leads for user %s: %w", userID, coreerrors.ErrQuotaExhausted)
	}

	return nil
}

// ReleaseLead returns one lead slot, used when a reserved lead turned
// out to be a duplicate at insert time.
func (db *DB) ReleaseLead(ctx context.Context, userID string, now time.Time) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE usage_counters
		SET leads_created = GREATEST(leads_created - 1, 0)
		WHERE user_id = $1 AND period_start = $2`,
		userID, monthStart(now))
	if err != nil {
		return fmt.Errorf("release lead: %w", err)
	}

	return nil
}

// ensureCounterRow creates the current period's counter row if missing
// so the reservation UPDATE has a row to hit.
func (db *DB) ensureCounterRow(ctx context.Context, userID string, now time.Time) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO usage_counters (user_id, period_start, ai_analyses_used, leads_created)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (user_id, period_start) DO NOTHING`,
		userID, monthStart(now))
	if err != nil {
		return fmt.Errorf("ensure counter row: %w", err)
	}

	return nil
}
