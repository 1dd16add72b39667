package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thephilippbusch/tep-app/internal/schema"
)

// Postgres is a Backend over a pgx connection pool.
type Postgres struct {
	pool             *pgxpool.Pool
	lockTimeout      time.Duration
	statementTimeout time.Duration
}

// NewPostgres wraps pool. Non-zero timeouts are applied with SET LOCAL at
// the start of every transaction.
func NewPostgres(pool *pgxpool.Pool, lockTimeout, statementTimeout time.Duration) *Postgres {
	return &Postgres{pool: pool, lockTimeout: lockTimeout, statementTimeout: statementTimeout}
}

// Pool exposes the underlying pool.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Dialect implements Backend.
func (p *Postgres) Dialect() schema.Dialect {
	return schema.Postgres
}

// Exec implements Querier.
func (p *Postgres) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := p.pool.Exec(ctx, sql, args...)
	return err //nolint:wrapcheck // callers add statement context
}

// Query implements Querier.
func (p *Postgres) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return p.pool.Query(ctx, sql, args...) //nolint:wrapcheck // callers add statement context
}

// InTx runs fn inside a database transaction.
// On success the transaction is committed; on error it is rolled back.
func (p *Postgres) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rollback on committed tx returns ErrTxClosed

	if p.lockTimeout > 0 {
		if err := setLocal(ctx, tx, "lock_timeout", p.lockTimeout); err != nil {
			return err
		}
	}

	if p.statementTimeout > 0 {
		if err := setLocal(ctx, tx, "statement_timeout", p.statementTimeout); err != nil {
			return err
		}
	}

	if err := fn(ctx, pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// setLocal sets a timeout setting for the rest of the transaction.
func setLocal(ctx context.Context, tx pgx.Tx, setting string, d time.Duration) error {
	sql := fmt.Sprintf("SET LOCAL %s = '%dms'", setting, d.Milliseconds())

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("setting %s: %w", setting, err)
	}

	return nil
}

// TryLock implements Backend with pg_try_advisory_lock.
func (p *Postgres) TryLock(ctx context.Context) (Lock, error) {
	l, err := tryAdvisoryLock(ctx, p.pool)
	if err != nil {
		return nil, err
	}

	return l, nil
}

// WaitLock implements Backend with pg_advisory_lock.
func (p *Postgres) WaitLock(ctx context.Context) (Lock, error) {
	l, err := waitAdvisoryLock(ctx, p.pool)
	if err != nil {
		return nil, err
	}

	return l, nil
}

// TableExists implements Backend.
func (p *Postgres) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS(
		     SELECT 1 FROM information_schema.tables
		     WHERE table_schema = current_schema() AND table_name = $1)`,
		table,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}

	return exists, nil
}

// Ping verifies the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := t.tx.Exec(ctx, sql, args...)
	return err //nolint:wrapcheck // callers add statement context
}

func (t pgTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return t.tx.Query(ctx, sql, args...) //nolint:wrapcheck // callers add statement context
}

var _ Backend = (*Postgres)(nil)
