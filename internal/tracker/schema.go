package tracker

import "github.com/thephilippbusch/tep-app/internal/schema"

// TableName is the bookkeeping table holding one row per applied migration.
const TableName = "schema_migrations"

// Bookkeeping column names.
const (
	ColumnName      = "name"
	ColumnAppliedAt = "applied_at"
)

// Table returns the definition of the bookkeeping table. It is created
// with IF NOT EXISTS so EnsureTable can run on every apply.
func Table() schema.Table {
	return schema.Table{
		Name:        TableName,
		IfNotExists: true,
		Columns: []schema.Column{
			schema.Col(ColumnName, schema.Text()).PrimaryKey(),
			schema.Col(ColumnAppliedAt, schema.Timestamp()).NotNull(),
		},
	}
}
