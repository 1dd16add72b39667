package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/thephilippbusch/tep-app/internal/schema"
)

const (
	sqliteLockTable = "schema_migrations_lock"
	sqliteLockPoll  = 50 * time.Millisecond
	sqlitePragmas   = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
)

// SQLite is a Backend over a modernc.org/sqlite database. All work goes
// through a single connection so in-memory databases keep their state.
//
// The migration lock is a row in schema_migrations_lock guarded by its
// primary key. A process that dies while holding it leaves the row behind;
// waiters give up after the runner's lock wait timeout, and deleting the row
// by hand recovers.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database file at path (":memory:" for an in-memory
// database) and verifies connectivity.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is empty", ErrInvalidDatabaseURL)
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + sqlitePragmas
	} else {
		dsn += "?" + sqlitePragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &SQLite{db: db}, nil
}

// DB exposes the underlying handle.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Dialect implements Backend.
func (s *SQLite) Dialect() schema.Dialect {
	return schema.SQLite
}

// Exec implements Querier.
func (s *SQLite) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err //nolint:wrapcheck // callers add statement context
}

// Query implements Querier.
func (s *SQLite) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add statement context
	}

	return sqlRows{rows}, nil
}

// InTx implements Backend.
func (s *SQLite) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // rollback on committed tx returns ErrTxDone

	if err := fn(ctx, sqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// TryLock implements Backend by inserting the lock row.
func (s *SQLite) TryLock(ctx context.Context) (Lock, error) {
	if err := s.ensureLockTable(ctx); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+sqliteLockTable+` (id, acquired_at) VALUES (1, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return nil, ErrLockNotAcquired
		}

		return nil, fmt.Errorf("inserting lock row: %w", err)
	}

	return &rowLock{db: s.db}, nil
}

// WaitLock implements Backend by polling TryLock until ctx is done.
func (s *SQLite) WaitLock(ctx context.Context) (Lock, error) {
	ticker := time.NewTicker(sqliteLockPoll)
	defer ticker.Stop()

	for {
		l, err := s.TryLock(ctx)
		if !errors.Is(err, ErrLockNotAcquired) {
			return l, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for migration lock: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *SQLite) ensureLockTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS `+sqliteLockTable+` (
		    id          INTEGER PRIMARY KEY,
		    acquired_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating %s: %w", sqliteLockTable, err)
	}

	return nil
}

// TableExists implements Backend.
func (s *SQLite) TableExists(ctx context.Context, table string) (bool, error) {
	var n int

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}

	return n > 0, nil
}

// Ping verifies the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close() //nolint:wrapcheck // nothing to add
}

func isPrimaryKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

type rowLock struct {
	db *sql.DB
}

// Release deletes the lock row. Safe to call multiple times.
func (l *rowLock) Release(ctx context.Context) error {
	if l == nil || l.db == nil {
		return nil
	}

	_, err := l.db.ExecContext(ctx, `DELETE FROM `+sqliteLockTable+` WHERE id = 1`)
	l.db = nil

	if err != nil {
		return fmt.Errorf("releasing migration lock: %w", err)
	}

	return nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) Exec(ctx context.Context, query string, args ...any) error {
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err //nolint:wrapcheck // callers add statement context
}

func (t sqlTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add statement context
	}

	return sqlRows{rows}, nil
}

// sqlRows adapts *sql.Rows, whose Close returns an error, to Rows.
type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() {
	_ = r.Rows.Close()
}

var _ Backend = (*SQLite)(nil)
