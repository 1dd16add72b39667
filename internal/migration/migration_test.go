package migration_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thephilippbusch/tep-app/internal/migration"
	"github.com/thephilippbusch/tep-app/internal/schema"
)

func TestValidateSet(t *testing.T) {
	t.Parallel()

	up := migration.SQLAction("SELECT 1")

	tests := []struct {
		name    string
		set     []migration.Migration
		wantErr bool
	}{
		{name: "empty set is valid", set: nil},
		{
			name: "distinct names",
			set:  []migration.Migration{{Name: "a", Up: up}, {Name: "b", Up: up}},
		},
		{
			name:    "missing name",
			set:     []migration.Migration{{Up: up}},
			wantErr: true,
		},
		{
			name:    "duplicate name",
			set:     []migration.Migration{{Name: "a", Up: up}, {Name: "a", Up: up}},
			wantErr: true,
		},
		{
			name:    "missing up action",
			set:     []migration.Migration{{Name: "a"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := migration.ValidateSet(tt.set)
			if tt.wantErr {
				require.ErrorIs(t, err, migration.ErrInvalidSet)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	m := migration.Migration{
		Name: "m20240101_000001_create_t",
		Up: func(ctx context.Context, mgr *schema.Manager) error {
			return mgr.CreateTable(ctx, schema.Table{
				Name:    "t",
				Columns: []schema.Column{schema.Col("id", schema.Identifier()).PrimaryKey()},
			})
		},
		Down: func(ctx context.Context, mgr *schema.Manager) error {
			return mgr.DropTable(ctx, "t", true)
		},
	}

	up, err := migration.Render(context.Background(), m, migration.Up, schema.SQLite)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE \"t\" (\n    \"id\" TEXT NOT NULL PRIMARY KEY\n)"}, up)

	down, err := migration.Render(context.Background(), m, migration.Down, schema.Postgres)
	require.NoError(t, err)
	assert.Equal(t, []string{`DROP TABLE IF EXISTS "t"`}, down)
}

func TestRender_irreversibleDownIsEmpty(t *testing.T) {
	t.Parallel()

	m := migration.Migration{Name: "a", Up: migration.SQLAction("SELECT 1")}

	stmts, err := migration.Render(context.Background(), m, migration.Down, schema.Postgres)

	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestRender_actionError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := migration.Migration{
		Name: "a",
		Up:   func(context.Context, *schema.Manager) error { return boom },
	}

	_, err := migration.Render(context.Background(), m, migration.Up, schema.Postgres)

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "rendering a up")
}
