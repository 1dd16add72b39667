package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/thephilippbusch/tep-app/internal/database"
	"github.com/thephilippbusch/tep-app/internal/schema"
)

// Record is a bookkeeping row: a migration that has been applied.
type Record struct {
	Name      string
	AppliedAt time.Time
}

// Tracker manages the schema_migrations table in one dialect.
type Tracker struct {
	dialect schema.Dialect
}

// New creates a Tracker that renders bookkeeping SQL for dialect d.
func New(d schema.Dialect) *Tracker {
	return &Tracker{dialect: d}
}

// EnsureTable creates the schema_migrations table if it does not exist.
func (t *Tracker) EnsureTable(ctx context.Context, q database.Querier) error {
	ddl, err := t.dialect.CreateTableSQL(Table())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTableCreation, err)
	}

	if err := q.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%w: %w", ErrTableCreation, err)
	}

	return nil
}

// Exists reports whether the bookkeeping table has been created.
func (t *Tracker) Exists(ctx context.Context, b database.Backend) (bool, error) {
	return b.TableExists(ctx, TableName) //nolint:wrapcheck // backend error already names the table
}

// List returns all records ordered by name.
func (t *Tracker) List(ctx context.Context, q database.Querier) ([]Record, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s, %s FROM %s ORDER BY %s`,
		schema.QuoteIdent(ColumnName), schema.QuoteIdent(ColumnAppliedAt),
		schema.QuoteIdent(TableName), schema.QuoteIdent(ColumnName)))
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		var (
			r   Record
			raw any
		)

		if err := rows.Scan(&r.Name, &raw); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}

		r.AppliedAt, err = parseAppliedAt(raw)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", r.Name, err)
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning applied migrations: %w", err)
	}

	return records, nil
}

// Insert records a migration as applied.
func (t *Tracker) Insert(ctx context.Context, q database.Querier, r Record) error {
	sql := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (%s, %s)`,
		schema.QuoteIdent(TableName), schema.QuoteIdent(ColumnName), schema.QuoteIdent(ColumnAppliedAt),
		t.dialect.Placeholder(1), t.dialect.Placeholder(2))

	if err := q.Exec(ctx, sql, r.Name, t.appliedAtArg(r.AppliedAt)); err != nil {
		return fmt.Errorf("recording migration %s as applied: %w", r.Name, err)
	}

	return nil
}

// Delete removes the record for name. It fails with ErrMigrationNotFound
// when no such record exists.
func (t *Tracker) Delete(ctx context.Context, q database.Querier, name string) error {
	rows, err := q.Query(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = %s RETURNING %s`,
		schema.QuoteIdent(TableName), schema.QuoteIdent(ColumnName),
		t.dialect.Placeholder(1), schema.QuoteIdent(ColumnName)), name)
	if err != nil {
		return fmt.Errorf("removing record for migration %s: %w", name, err)
	}
	defer rows.Close()

	deleted := 0
	for rows.Next() {
		deleted++
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("removing record for migration %s: %w", name, err)
	}

	if deleted == 0 {
		return fmt.Errorf("migration %s: %w", name, ErrMigrationNotFound)
	}

	return nil
}

// Latest returns the record with the greatest applied_at, breaking ties by
// the greatest name. The second result is false when records is empty.
func Latest(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}

	latest := records[0]

	for _, r := range records[1:] {
		switch {
		case r.AppliedAt.After(latest.AppliedAt):
			latest = r
		case r.AppliedAt.Equal(latest.AppliedAt) && r.Name > latest.Name:
			latest = r
		}
	}

	return latest, true
}

// appliedAtArg converts an applied_at value to the form the dialect stores.
// SQLite has no timestamp type, so the value is stored as RFC 3339 text.
func (t *Tracker) appliedAtArg(at time.Time) any {
	at = at.UTC()

	if t.dialect == schema.SQLite {
		return at.Format(time.RFC3339Nano)
	}

	return at
}

func parseAppliedAt(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseTimeText(v)
	case []byte:
		return parseTimeText(string(v))
	case int64:
		return time.Unix(v, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected applied_at type %T", raw)
	}
}

var timeLayouts = []string{ //nolint:gochecknoglobals // read-only layout table
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimeText(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable applied_at %q", s)
}
