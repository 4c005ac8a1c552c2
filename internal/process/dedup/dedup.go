// Package dedup funnels candidates through the database uniqueness
// constraint so each (user, subject, post) triple is graded at most
// once.
package dedup

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	coreerrors "github.com/jdylanwp/trendjack/internal/core/errors"
	"github.com/jdylanwp/trendjack/internal/platform/observability"
)

type candidateStore interface {
	InsertCandidate(ctx context.Context, c domain.Candidate) error
}

// Deduplicator inserts candidates and separates fresh ones from
// duplicates.
type Deduplicator struct {
	store  candidateStore
	logger *zerolog.Logger
}

// New creates a deduplicator.
func New(store candidateStore, logger *zerolog.Logger) *Deduplicator {
	return &Deduplicator{store: store, logger: logger}
}

// InsertNew inserts the candidates and returns the ones that were not
// already present. Duplicates are dropped silently; a failing insert is
// logged and skips only that candidate.
func (d *Deduplicator) InsertNew(ctx context.Context, candidates []domain.Candidate) []domain.Candidate {
	fresh := make([]domain.Candidate, 0, len(candidates))

	for _, c := range candidates {
		err := d.store.InsertCandidate(ctx, c)

		switch {
		case err == nil:
			observability.CandidatesCreated.Inc()

			fresh = append(fresh, c)
		case errors.Is(err, coreerrors.ErrDuplicate):
			observability.CandidatesDropped.WithLabelValues("duplicate").Inc()
		default:
			observability.CandidatesDropped.WithLabelValues("error").Inc()
			d.logger.Error().Err(err).
				Str("subject_id", c.SubjectID).
				Str("post_id", c.PostID).
				Msg("insert candidate")
		}
	}

	return fresh
}
