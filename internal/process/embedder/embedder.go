// Package embedder drains the backlog of posts without stored
// embeddings so semantic matching has vectors to search.
package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	"github.com/jdylanwp/trendjack/internal/platform/observability"
)

type embeddingClient interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

type embeddingStore interface {
	GetPostsWithoutEmbeddings(ctx context.Context, limit int) ([]domain.RawPost, error)
	SaveEmbedding(ctx context.Context, postID, contentHash string, embedding []float32) error
}

// Backfiller embeds unprocessed posts in batches.
type Backfiller struct {
	llm       embeddingClient
	store     embeddingStore
	batchSize int
	logger    *zerolog.Logger
}

// New creates a backfiller.
func New(client embeddingClient, store embeddingStore, batchSize int, logger *zerolog.Logger) *Backfiller {
	return &Backfiller{
		llm:       client,
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// RunOnce embeds one batch and reports how many posts it processed.
// Zero means the backlog is drained. A failed embedding is logged and
// skipped; the post stays in the backlog for the next batch.
func (b *Backfiller) RunOnce(ctx context.Context) (int, error) {
	posts, err := b.store.GetPostsWithoutEmbeddings(ctx, b.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get posts without embeddings: %w", err)
	}

	var embedded int

	for _, post := range posts {
		if ctx.Err() != nil {
			return embedded, ctx.Err()
		}

		content := embeddingContent(post)

		embedding, err := b.llm.GetEmbedding(ctx, content)
		if err != nil {
			b.logger.Warn().Err(err).Str("post_id", post.ID).Msg("embed post")

			continue
		}

		if err := b.store.SaveEmbedding(ctx, post.ID, ContentHash(content), embedding); err != nil {
			b.logger.Error().Err(err).Str("post_id", post.ID).Msg("save embedding")

			continue
		}

		observability.PostsEmbedded.Inc()

		embedded++
	}

	if embedded > 0 {
		b.logger.Info().Int("embedded", embedded).Int("batch", len(posts)).Msg("embedding batch complete")
	}

	return embedded, nil
}

// Drain repeatedly embeds batches until the backlog is empty or the
// context ends, pausing between batches to stay under rate limits.
func (b *Backfiller) Drain(ctx context.Context, pause time.Duration) error {
	for {
		n, err := b.RunOnce(ctx)
		if err != nil {
			return err
		}

		if n == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
}

// embeddingContent is the canonical text embedded for a post. Title and
// body are joined so either alone can still match.
func embeddingContent(post domain.RawPost) string {
	return post.Title + "\n\n" + post.Body
}

// ContentHash fingerprints embedded text so unchanged posts are never
// re-embedded.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))

	return hex.EncodeToString(sum[:])
}
