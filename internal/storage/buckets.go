package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

// GetBucketsBatch loads hourly counts for many subjects in one query,
// grouped by subject. Subjects with no buckets in the window are absent
// from the map.
func (db *DB) GetBucketsBatch(ctx context.Context, subjectIDs []string, since time.Time) (map[string][]domain.CountBucket, error) {
	if len(subjectIDs) == 0 {
		return map[string][]domain.CountBucket{}, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT subject_id, bucket_start, count
		FROM count_buckets
		WHERE subject_id = ANY($1) AND bucket_start >= $2
		ORDER BY subject_id, bucket_start ASC`,
		subjectIDs, since)
	if err != nil {
		return nil, fmt.Errorf("query buckets batch: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]domain.CountBucket, len(subjectIDs))

	for rows.Next() {
		var b domain.CountBucket
		if err := rows.Scan(&b.SubjectID, &b.BucketStart, &b.Count); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}

		grouped[b.SubjectID] = append(grouped[b.SubjectID], b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buckets batch: %w", err)
	}

	return grouped, nil
}
