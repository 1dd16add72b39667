package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultMaxConns = 5

// options configures backends opened through Open.
type options struct {
	lockTimeout      time.Duration
	statementTimeout time.Duration
}

// Option configures Open.
type Option func(*options)

// WithLockTimeout sets a PostgreSQL lock_timeout on every migration
// transaction. Zero leaves the server default. Ignored by SQLite.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.lockTimeout = d }
}

// WithStatementTimeout sets a PostgreSQL statement_timeout on every
// migration transaction. Zero leaves the server default. Ignored by SQLite.
func WithStatementTimeout(d time.Duration) Option {
	return func(o *options) { o.statementTimeout = d }
}

// Open connects to the database named by url and verifies connectivity.
// The scheme selects the backend: postgres:// or postgresql:// for
// PostgreSQL, sqlite:// for SQLite (sqlite://:memory: for an in-memory
// database).
func Open(ctx context.Context, url string, opts ...Option) (Backend, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	url = strings.TrimSpace(url)

	switch {
	case url == "":
		return nil, fmt.Errorf("%w: empty", ErrInvalidDatabaseURL)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		pool, err := NewPool(ctx, url)
		if err != nil {
			return nil, err
		}

		return NewPostgres(pool, o.lockTimeout, o.statementTimeout), nil
	case strings.HasPrefix(url, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite://"))
	default:
		return nil, fmt.Errorf("%w: unsupported scheme", ErrInvalidDatabaseURL)
	}
}

// NewPool creates a pgx connection pool for the given database URL.
// It parses the connection string, sets a conservative max connection limit,
// and pings the database to verify connectivity.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
	}

	poolCfg.MaxConns = defaultMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return pool, nil
}
