package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

// LeadExists reports whether the user already has a lead for this post.
// Checked before an AI call is spent and again before insert, since the
// post may have been graded under another of the user's subjects in the
// meantime.
func (db *DB) LeadExists(ctx context.Context, userID, postID string) (bool, error) {
	var exists bool

	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM leads WHERE user_id = $1 AND post_id = $2
		)`, userID, postID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query lead exists: %w", err)
	}

	return exists, nil
}

// InsertLead persists a graded lead with status "new". Returns
// ErrDuplicate if the (user, post) pair already has a lead.
func (db *DB) InsertLead(ctx context.Context, lead domain.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO leads (
			id, user_id, subject_id, post_id,
			intent_score, fury_score, pain_point, suggested_reply,
			pain_summary, primary_trigger, sample_quote, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		lead.ID, lead.UserID, lead.SubjectID, lead.PostID,
		lead.IntentScore, lead.FuryScore, lead.PainPoint, lead.SuggestedReply,
		lead.PainSummary, lead.PrimaryTrigger, lead.SampleQuote, domain.LeadStatusNew)
	if err != nil {
		return mapInsertError(err)
	}

	return nil
}
