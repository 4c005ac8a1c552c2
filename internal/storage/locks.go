package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Advisory lock keys, one per pipeline, so overlapping scheduled runs of
// the same pipeline skip instead of racing.
const (
	LockLeadsPipeline    = 7201
	LockTrendsPipeline   = 7202
	LockEntitiesPipeline = 7203
)

// Lock is a held advisory lock. Release must be called exactly once.
type Lock interface {
	Release(ctx context.Context) error
}

// sessionLock pins the advisory lock to one pooled connection. Session
// advisory locks belong to the connection that took them, so the same
// connection must stay checked out until the unlock runs on it.
type sessionLock struct {
	conn *pgxpool.Conn
	key  int64
}

// TryAcquireLock takes a session-level advisory lock on a dedicated
// connection. Returns nil without blocking when another session holds
// the lock. The connection is held until Release.
func (db *DB) TryAcquireLock(ctx context.Context, key int64) (Lock, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for lock %d: %w", key, err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&acquired); err != nil {
		conn.Release()

		return nil, fmt.Errorf("try advisory lock %d: %w", key, err)
	}

	if !acquired {
		conn.Release()

		return nil, nil
	}

	return &sessionLock{conn: conn, key: key}, nil
}

// Release unlocks on the owning connection and returns it to the pool.
func (l *sessionLock) Release(ctx context.Context) error {
	defer l.conn.Release()

	var released bool
	if err := l.conn.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, l.key).Scan(&released); err != nil {
		return fmt.Errorf("advisory unlock %d: %w", l.key, err)
	}

	if !released {
		return fmt.Errorf("advisory lock %d was not held at unlock", l.key)
	}

	return nil
}
