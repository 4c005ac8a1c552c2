package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	coreerrors "github.com/jdylanwp/trendjack/internal/core/errors"
)

// GetRecentPosts returns posts for a community created after the cutoff,
// newest first.
func (db *DB) GetRecentPosts(ctx context.Context, community string, since time.Time) ([]domain.RawPost, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, community, title, body, author, flair, created_at
		FROM raw_posts
		WHERE community = $1 AND created_at >= $2
		ORDER BY created_at DESC`,
		community, since)
	if err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
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

// GetPost loads a single post by ID. Returns ErrNotFound when absent.
func (db *DB) GetPost(ctx context.Context, postID string) (*domain.RawPost, error) {
	var p domain.RawPost

	err := db.Pool.QueryRow(ctx, `
		SELECT id, community, title, body, author, flair, created_at
		FROM raw_posts
		WHERE id = $1`, postID).
		Scan(&p.ID, &p.Community, &p.Title, &p.Body, &p.Author, &p.Flair, &p.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("post %s: %w", postID, coreerrors.ErrNotFound)
		}

		return nil, fmt.Errorf("query post: %w", err)
	}

	return &p, nil
}
