package db

import (
	"context"
	"fmt"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

// InsertCandidate records a filtered post for a user's subject. The
// unique (user, subject, post) constraint makes the insert the dedup
// check: a second attempt returns ErrDuplicate.
func (db *DB) InsertCandidate(ctx context.Context, c domain.Candidate) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO lead_candidates (user_id, subject_id, post_id, reasons)
		VALUES ($1, $2, $3, $4)`,
		c.UserID, c.SubjectID, c.PostID, c.Reasons)
	if err != nil {
		return mapInsertError(err)
	}

	return nil
}

// CandidateExists reports whether a candidate row already exists for the
// triple. The semantic matcher pre-checks with this so recurring
// similarity neighbors do not retry the insert every run; the insert
// constraint remains the authority.
func (db *DB) CandidateExists(ctx context.Context, userID, subjectID, postID string) (bool, error) {
	var exists bool

	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM lead_candidates
			WHERE user_id = $1 AND subject_id = $2 AND post_id = $3
		)`, userID, subjectID, postID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query candidate exists: %w", err)
	}

	return exists, nil
}
