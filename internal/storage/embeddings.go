package db

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

// SaveEmbedding stores a post's embedding vector together with the hash
// of the content it was computed from. On conflict the row is replaced
// only when the hash differs, so re-embedding unchanged text is a no-op
// while edited content gets a fresh vector.
func (db *DB) SaveEmbedding(ctx context.Context, postID, contentHash string, embedding []float32) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO post_embeddings (post_id, content_hash, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id) DO UPDATE
		SET content_hash = EXCLUDED.content_hash,
		    embedding = EXCLUDED.embedding
		WHERE post_embeddings.content_hash IS DISTINCT FROM EXCLUDED.content_hash`,
		postID, contentHash, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}

	return nil
}

// GetPostsWithoutEmbeddings returns the oldest posts that have no stored
// embedding yet, up to limit.
func (db *DB) GetPostsWithoutEmbeddings(ctx context.Context, limit int) ([]domain.RawPost, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT p.id, p.community, p.title, p.body, p.author, p.flair, p.created_at
		FROM raw_posts p
		LEFT JOIN post_embeddings e ON e.post_id = p.id
		WHERE e.post_id IS NULL
		ORDER BY p.created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query posts without embeddings: %w", err)
	}
	defer rows.Close()

	var posts []domain.RawPost

	for rows.Next() {
		var p domain.RawPost
		if err := rows.Scan(&p.ID, &p.Community, &p.Title, &p.Body, &p.Author, &p.Flair, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// SimilarPost is a post matched by embedding distance.
type SimilarPost struct {
	Post       domain.RawPost
	Similarity float64
}

// FindSimilarPosts returns recent posts whose embeddings are within the
// cosine similarity threshold of the query vector, most similar first.
func (db *DB) FindSimilarPosts(ctx context.Context, embedding []float32, threshold float64, limit int) ([]SimilarPost, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT p.id, p.community, p.title, p.body, p.author, p.flair, p.created_at,
		       1 - (e.embedding <=> $1::vector) AS similarity
		FROM post_embeddings e
		JOIN raw_posts p ON p.id = e.post_id
		WHERE 1 - (e.embedding <=> $1::vector) >= $2
		ORDER BY e.embedding <=> $1::vector
		LIMIT $3`,
		pgvector.NewVector(embedding), threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar posts: %w", err)
	}
	defer rows.Close()

	var matches []SimilarPost

	for rows.Next() {
		var m SimilarPost
		if err := rows.Scan(&m.Post.ID, &m.Post.Community, &m.Post.Title, &m.Post.Body,
			&m.Post.Author, &m.Post.Flair, &m.Post.CreatedAt, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan similar post: %w", err)
		}

		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar posts: %w", err)
	}

	return matches, nil
}
