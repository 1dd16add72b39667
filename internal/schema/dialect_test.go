package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thephilippbusch/tep-app/internal/schema"
)

func TestColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		typ      schema.Type
		postgres string
		sqlite   string
	}{
		{name: "identifier", typ: schema.Identifier(), postgres: "UUID", sqlite: "TEXT"},
		{name: "text", typ: schema.Text(), postgres: "TEXT", sqlite: "TEXT"},
		{name: "boolean", typ: schema.Boolean(), postgres: "BOOLEAN", sqlite: "BOOLEAN"},
		{name: "integer", typ: schema.Integer(), postgres: "INTEGER", sqlite: "INTEGER"},
		{name: "timestamp", typ: schema.Timestamp(), postgres: "TIMESTAMP", sqlite: "TIMESTAMP"},
		{name: "enumeration", typ: schema.Enumeration("s", "A", "B"), postgres: "TEXT", sqlite: "TEXT"},
		{name: "array of identifier", typ: schema.ArrayOf(schema.Identifier()), postgres: "UUID[]", sqlite: "TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pg, err := schema.Postgres.ColumnType(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.postgres, pg)

			lite, err := schema.SQLite.ColumnType(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.sqlite, lite)
		})
	}
}

func TestColumnType_rejectsUnsupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  schema.Type
	}{
		{name: "nested array", typ: schema.ArrayOf(schema.ArrayOf(schema.Integer()))},
		{name: "array of enumeration", typ: schema.ArrayOf(schema.Enumeration("e", "A"))},
		{name: "zero kind", typ: schema.Type{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := schema.Postgres.ColumnType(tt.typ)
			require.ErrorIs(t, err, schema.ErrUnsupportedType)
		})
	}
}

func TestColumnType_enumerationWithoutValues_isInvalid(t *testing.T) {
	t.Parallel()

	_, err := schema.Postgres.ColumnType(schema.Enumeration("empty"))

	require.ErrorIs(t, err, schema.ErrInvalidDefinition)
}

func TestCreateTableSQL_postgres(t *testing.T) {
	t.Parallel()

	table := schema.Table{
		Name:        "venue",
		IfNotExists: true,
		Columns: []schema.Column{
			schema.Col("id", schema.Identifier()).PrimaryKey(),
			schema.Col("title", schema.Text()).NotNull(),
			schema.Col("description", schema.Text()),
			schema.Col("co_hosts", schema.ArrayOf(schema.Identifier())).NotNull(),
			schema.Col("is_external", schema.Boolean()).NotNull().Default(schema.BoolDefault(false)),
			schema.Col("created_at", schema.Timestamp()).NotNull().Default(schema.CurrentTimestamp()),
		},
	}

	sql, err := schema.Postgres.CreateTableSQL(table)

	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "venue" (
    "id" UUID NOT NULL PRIMARY KEY,
    "title" TEXT NOT NULL,
    "description" TEXT,
    "co_hosts" UUID[] NOT NULL,
    "is_external" BOOLEAN NOT NULL DEFAULT FALSE,
    "created_at" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, sql)
}

func TestCreateTableSQL_sqlite(t *testing.T) {
	t.Parallel()

	table := schema.Table{
		Name: "event",
		Columns: []schema.Column{
			schema.Col("id", schema.Identifier()).PrimaryKey(),
			schema.Col("status", schema.Enumeration("event_status", "Draft", "Published")).NotNull(),
			schema.Col("flag", schema.Boolean()).NotNull().Default(schema.BoolDefault(true)),
		},
	}

	sql, err := schema.SQLite.CreateTableSQL(table)

	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE "event" (
    "id" TEXT NOT NULL PRIMARY KEY,
    "status" TEXT NOT NULL CONSTRAINT "event_status" CHECK ("status" IN ('Draft', 'Published')),
    "flag" BOOLEAN NOT NULL DEFAULT 1
)`, sql)
}

func TestCreateTableSQL_literalDefaults(t *testing.T) {
	t.Parallel()

	table := schema.Table{
		Name: "t",
		Columns: []schema.Column{
			schema.Col("n", schema.Integer()).Default(schema.IntDefault(-3)),
			schema.Col("s", schema.Text()).Default(schema.TextDefault("it's")),
		},
	}

	sql, err := schema.Postgres.CreateTableSQL(table)

	require.NoError(t, err)
	assert.Contains(t, sql, `"n" INTEGER DEFAULT -3`)
	assert.Contains(t, sql, `"s" TEXT DEFAULT 'it''s'`)
}

func TestCreateTableSQL_invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		table schema.Table
	}{
		{name: "empty name", table: schema.Table{Columns: []schema.Column{schema.Col("a", schema.Text())}}},
		{name: "no columns", table: schema.Table{Name: "t"}},
		{name: "unnamed column", table: schema.Table{Name: "t", Columns: []schema.Column{schema.Col("", schema.Text())}}},
		{
			name: "duplicate column",
			table: schema.Table{Name: "t", Columns: []schema.Column{
				schema.Col("a", schema.Text()),
				schema.Col("a", schema.Integer()),
			}},
		},
		{
			name: "two primary keys",
			table: schema.Table{Name: "t", Columns: []schema.Column{
				schema.Col("a", schema.Text()).PrimaryKey(),
				schema.Col("b", schema.Text()).PrimaryKey(),
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := schema.Postgres.CreateTableSQL(tt.table)
			require.ErrorIs(t, err, schema.ErrInvalidDefinition)
		})
	}
}

func TestCreateIndexSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		idx  schema.Index
		want string
	}{
		{
			name: "plain",
			idx:  schema.Index{Name: "idx-venue_title", Table: "venue", Columns: []string{"title"}},
			want: `CREATE INDEX "idx-venue_title" ON "venue" ("title")`,
		},
		{
			name: "unique if not exists multi column",
			idx: schema.Index{
				Name: "uq", Table: "t", Columns: []string{"a", "b"}, Unique: true, IfNotExists: true,
			},
			want: `CREATE UNIQUE INDEX IF NOT EXISTS "uq" ON "t" ("a", "b")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := schema.Postgres.CreateIndexSQL(tt.idx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDropSQL(t *testing.T) {
	t.Parallel()

	sql, err := schema.Postgres.DropTableSQL("venue", true)
	require.NoError(t, err)
	assert.Equal(t, `DROP TABLE IF EXISTS "venue"`, sql)

	sql, err = schema.SQLite.DropTableSQL("venue", false)
	require.NoError(t, err)
	assert.Equal(t, `DROP TABLE "venue"`, sql)

	sql, err = schema.Postgres.DropIndexSQL("idx-venue_title", true)
	require.NoError(t, err)
	assert.Equal(t, `DROP INDEX IF EXISTS "idx-venue_title"`, sql)

	_, err = schema.Postgres.DropIndexSQL("", true)
	require.ErrorIs(t, err, schema.ErrInvalidDefinition)

	_, err = schema.Postgres.DropTableSQL("", true)
	require.ErrorIs(t, err, schema.ErrInvalidDefinition)
}

func TestQuoteIdent_escapesQuotes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"we""ird"`, schema.QuoteIdent(`we"ird`))
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$2", schema.Postgres.Placeholder(2))
	assert.Equal(t, "?", schema.SQLite.Placeholder(2))
}

func TestTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "array(identifier)", schema.ArrayOf(schema.Identifier()).String())
	assert.Equal(t, "enumeration(A|B)", schema.Enumeration("e", "A", "B").String())
	assert.Equal(t, "timestamp", schema.Timestamp().String())
}
