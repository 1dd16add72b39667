package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/thephilippbusch/tep-app/internal/schema"
)

// ErrInvalidSet indicates a migration set that cannot be run: an empty or
// duplicate name, or a migration without an up action.
var ErrInvalidSet = errors.New("invalid migration set")

// Direction is the way a migration is run.
type Direction string

const (
	// Up applies a migration.
	Up Direction = "up"
	// Down reverts a migration.
	Down Direction = "down"
)

// Action performs one direction of a migration against the schema.
type Action func(ctx context.Context, m *schema.Manager) error

// Migration is a named, ordered schema change with an optional reverse.
type Migration struct {
	Name   string // unique, lexically orderable, e.g. "m20220101_000001_create_event"
	Up     Action
	Down   Action // nil when the migration is irreversible
	Source string // "builtin" or the path of the .up.sql file
}

// Reversible reports whether the migration has a down action.
func (m Migration) Reversible() bool {
	return m.Down != nil
}

// Action returns the action for direction d, or nil.
func (m Migration) Action(d Direction) Action {
	if d == Down {
		return m.Down
	}

	return m.Up
}

// SQLAction returns an Action that executes sql verbatim.
func SQLAction(sql string) Action {
	return func(ctx context.Context, m *schema.Manager) error {
		return m.Exec(ctx, sql)
	}
}

// ValidateSet checks that every migration has a name and an up action, and
// that no two migrations share a name.
func ValidateSet(ms []Migration) error {
	seen := make(map[string]bool, len(ms))

	for i, m := range ms {
		if m.Name == "" {
			return fmt.Errorf("%w: migration at position %d has no name", ErrInvalidSet, i)
		}

		if seen[m.Name] {
			return fmt.Errorf("%w: duplicate migration name %s", ErrInvalidSet, m.Name)
		}

		seen[m.Name] = true

		if m.Up == nil {
			return fmt.Errorf("%w: migration %s has no up action", ErrInvalidSet, m.Name)
		}
	}

	return nil
}

// Render returns the SQL statements direction d of m would issue in
// dialect dialect, without touching a database.
func Render(ctx context.Context, m Migration, d Direction, dialect schema.Dialect) ([]string, error) {
	action := m.Action(d)
	if action == nil {
		return nil, nil
	}

	rec := &schema.Recorder{}
	if err := action(ctx, schema.NewManager(rec, dialect)); err != nil {
		return nil, fmt.Errorf("rendering %s %s: %w", m.Name, d, err)
	}

	return rec.Statements, nil
}
