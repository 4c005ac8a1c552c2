// Package semantic finds candidate posts by embedding similarity,
// catching intent the phrase filter's literal matching misses.
package semantic

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	"github.com/jdylanwp/trendjack/internal/core/llm"
	db "github.com/jdylanwp/trendjack/internal/storage"
)

type embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

type store interface {
	FindSimilarPosts(ctx context.Context, embedding []float32, threshold float64, limit int) ([]db.SimilarPost, error)
	CandidateExists(ctx context.Context, userID, subjectID, postID string) (bool, error)
}

// Matcher retrieves posts semantically close to a subject's keyword.
type Matcher struct {
	llm       embedder
	store     store
	threshold float64
	limit     int
	logger    *zerolog.Logger
}

// New creates a semantic matcher.
func New(client llm.Client, store *db.DB, threshold float64, limit int, logger *zerolog.Logger) *Matcher {
	return &Matcher{
		llm:       client,
		store:     store,
		threshold: threshold,
		limit:     limit,
		logger:    logger,
	}
}

// FindCandidates embeds the subject's keyword and returns candidates for
// posts within the similarity threshold. Posts already proposed by the
// phrase filter or already recorded as candidates are skipped; the
// insert constraint still backstops any race.
func (m *Matcher) FindCandidates(ctx context.Context, subject domain.Subject, seen map[string]bool) ([]domain.Candidate, error) {
	embedding, err := m.llm.GetEmbedding(ctx, subject.Keyword)
	if err != nil {
		return nil, fmt.Errorf("embed keyword: %w", err)
	}

	matches, err := m.store.FindSimilarPosts(ctx, embedding, m.threshold, m.limit)
	if err != nil {
		return nil, fmt.Errorf("find similar posts: %w", err)
	}

	var candidates []domain.Candidate

	for _, match := range matches {
		if seen[match.Post.ID] {
			continue
		}

		// Similarity search keeps returning the same neighbors run after
		// run, so known candidates are dropped here instead of burning a
		// duplicate insert each time.
		exists, err := m.store.CandidateExists(ctx, subject.UserID, subject.ID, match.Post.ID)
		if err != nil {
			return nil, fmt.Errorf("check candidate exists: %w", err)
		}

		if exists {
			continue
		}

		m.logger.Debug().
			Str("subject_id", subject.ID).
			Str("post_id", match.Post.ID).
			Float64("similarity", match.Similarity).
			Msg("semantic match")

		candidates = append(candidates, domain.Candidate{
			UserID:    subject.UserID,
			SubjectID: subject.ID,
			PostID:    match.Post.ID,
			Reasons:   []string{"semantic_match"},
		})
	}

	return candidates, nil
}
