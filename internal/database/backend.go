package database

import (
	"context"

	"github.com/thephilippbusch/tep-app/internal/schema"
)

// Rows is a forward-only result cursor. pgx.Rows satisfies it directly.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier executes statements and queries.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Tx is a transaction scope. It also satisfies schema.Executor, so a
// migration action can issue DDL through it.
type Tx interface {
	Querier
}

// Lock is a held migration lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Backend is the database a migration runner operates on.
type Backend interface {
	Querier

	// Dialect returns the SQL flavor of the backend.
	Dialect() schema.Dialect

	// InTx runs fn inside a transaction. The transaction commits if fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// TryLock acquires the migration lock or fails with ErrLockNotAcquired.
	TryLock(ctx context.Context) (Lock, error)

	// WaitLock blocks until the migration lock is acquired or ctx is done.
	WaitLock(ctx context.Context) (Lock, error)

	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, table string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

var _ schema.Executor = Tx(nil)
