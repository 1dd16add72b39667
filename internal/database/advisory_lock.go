package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationLockID is the advisory lock identifier used to prevent
// concurrent migration runs.
const MigrationLockID int64 = 7_165_401_213

// advisoryLock wraps a dedicated pooled connection that holds a
// session-level advisory lock. Call Release to unlock and return
// the connection to the pool.
type advisoryLock struct {
	conn *pgxpool.Conn
}

// tryAdvisoryLock attempts to acquire a session-level advisory lock.
// Returns ErrLockNotAcquired if the lock is already held by another process.
func tryAdvisoryLock(ctx context.Context, pool *pgxpool.Pool) (*advisoryLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for advisory lock: %w", err)
	}

	var acquired bool

	err = conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", MigrationLockID).Scan(&acquired)
	if err != nil {
		conn.Release()

		return nil, fmt.Errorf("executing pg_try_advisory_lock: %w", err)
	}

	if !acquired {
		conn.Release()

		return nil, ErrLockNotAcquired
	}

	return &advisoryLock{conn: conn}, nil
}

// waitAdvisoryLock blocks in pg_advisory_lock until the lock is granted or
// ctx is cancelled.
func waitAdvisoryLock(ctx context.Context, pool *pgxpool.Pool) (*advisoryLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for advisory lock: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", MigrationLockID); err != nil {
		conn.Release()

		return nil, fmt.Errorf("executing pg_advisory_lock: %w", err)
	}

	return &advisoryLock{conn: conn}, nil
}

// Release unlocks the advisory lock and returns the connection to the pool.
// Safe to call multiple times; subsequent calls are no-ops.
func (h *advisoryLock) Release(ctx context.Context) error {
	if h == nil || h.conn == nil {
		return nil
	}

	_, err := h.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", MigrationLockID)
	h.conn.Release()
	h.conn = nil

	if err != nil {
		return fmt.Errorf("releasing advisory lock: %w", err)
	}

	return nil
}
