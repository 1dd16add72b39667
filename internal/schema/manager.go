package schema

import (
	"context"
	"fmt"
)

// Executor runs a single SQL statement. Both backend transactions and the
// Recorder satisfy it.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) error
}

// Manager issues DDL for migration actions through an Executor.
type Manager struct {
	exec    Executor
	dialect Dialect
}

// NewManager returns a Manager that renders DDL in dialect d and runs it on exec.
func NewManager(exec Executor, d Dialect) *Manager {
	return &Manager{exec: exec, dialect: d}
}

// Dialect returns the dialect DDL is rendered in.
func (m *Manager) Dialect() Dialect {
	return m.dialect
}

// Exec runs raw SQL. Used by SQL-file migrations.
func (m *Manager) Exec(ctx context.Context, sql string, args ...any) error {
	if err := m.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}

	return nil
}

// CreateTable creates table t.
func (m *Manager) CreateTable(ctx context.Context, t Table) error {
	sql, err := m.dialect.CreateTableSQL(t)
	if err != nil {
		return err
	}

	if err := m.exec.Exec(ctx, sql); err != nil {
		return fmt.Errorf("creating table %s: %w", t.Name, err)
	}

	return nil
}

// DropTable drops the named table.
func (m *Manager) DropTable(ctx context.Context, name string, ifExists bool) error {
	sql, err := m.dialect.DropTableSQL(name, ifExists)
	if err != nil {
		return err
	}

	if err := m.exec.Exec(ctx, sql); err != nil {
		return fmt.Errorf("dropping table %s: %w", name, err)
	}

	return nil
}

// CreateIndex creates index idx.
func (m *Manager) CreateIndex(ctx context.Context, idx Index) error {
	sql, err := m.dialect.CreateIndexSQL(idx)
	if err != nil {
		return err
	}

	if err := m.exec.Exec(ctx, sql); err != nil {
		return fmt.Errorf("creating index %s: %w", idx.Name, err)
	}

	return nil
}

// DropIndex drops the named index.
func (m *Manager) DropIndex(ctx context.Context, name string, ifExists bool) error {
	sql, err := m.dialect.DropIndexSQL(name, ifExists)
	if err != nil {
		return err
	}

	if err := m.exec.Exec(ctx, sql); err != nil {
		return fmt.Errorf("dropping index %s: %w", name, err)
	}

	return nil
}

// CreateTableWithIndexes creates t and then each index, validating every
// index against the table first.
func (m *Manager) CreateTableWithIndexes(ctx context.Context, t Table, indexes ...Index) error {
	for _, idx := range indexes {
		if err := idx.ValidateAgainst(t); err != nil {
			return err
		}
	}

	if err := m.CreateTable(ctx, t); err != nil {
		return err
	}

	for _, idx := range indexes {
		if err := m.CreateIndex(ctx, idx); err != nil {
			return err
		}
	}

	return nil
}

// DropTableWithIndexes reverses CreateTableWithIndexes: indexes are dropped
// in reverse creation order, then the table.
func (m *Manager) DropTableWithIndexes(ctx context.Context, table string, indexes ...Index) error {
	for i := len(indexes) - 1; i >= 0; i-- {
		if err := m.DropIndex(ctx, indexes[i].Name, true); err != nil {
			return err
		}
	}

	return m.DropTable(ctx, table, true)
}

// Recorder is an Executor that captures statements instead of running them.
type Recorder struct {
	Statements []string
}

// Exec appends sql to the recorded statements.
func (r *Recorder) Exec(_ context.Context, sql string, _ ...any) error {
	r.Statements = append(r.Statements, sql)
	return nil
}
