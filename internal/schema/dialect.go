package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavor DDL is rendered in.
type Dialect int

const (
	// Postgres renders PostgreSQL DDL.
	Postgres Dialect = iota + 1
	// SQLite renders SQLite DDL.
	SQLite
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Placeholder returns the bind parameter marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == SQLite {
		return "?"
	}

	return "$" + strconv.Itoa(n)
}

// QuoteIdent double-quotes an identifier, escaping embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral single-quotes a string literal, escaping embedded quotes.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ColumnType renders the storage type for t.
func (d Dialect) ColumnType(t Type) (string, error) {
	if err := validateType(t); err != nil {
		return "", err
	}

	switch t.Kind {
	case KindIdentifier:
		if d == SQLite {
			return "TEXT", nil
		}

		return "UUID", nil
	case KindText, KindEnumeration:
		return "TEXT", nil
	case KindBoolean:
		return "BOOLEAN", nil
	case KindInteger:
		return "INTEGER", nil
	case KindTimestamp:
		return "TIMESTAMP", nil
	case KindArray:
		if d == SQLite {
			// SQLite has no array type; values are stored JSON-encoded.
			return "TEXT", nil
		}

		elem, err := d.ColumnType(*t.Elem)
		if err != nil {
			return "", err
		}

		return elem + "[]", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

// DefaultExpr renders a column default expression.
func (d Dialect) DefaultExpr(def Default) (string, error) {
	switch def.kind {
	case defaultCurrentTimestamp:
		return "CURRENT_TIMESTAMP", nil
	case defaultBool:
		if d == SQLite {
			if def.b {
				return "1", nil
			}

			return "0", nil
		}

		if def.b {
			return "TRUE", nil
		}

		return "FALSE", nil
	case defaultInt:
		return strconv.FormatInt(def.i, 10), nil
	case defaultText:
		return quoteLiteral(def.s), nil
	default:
		return "", fmt.Errorf("%w: empty default", ErrInvalidDefinition)
	}
}

// columnSQL renders a single column clause of CREATE TABLE.
func (d Dialect) columnSQL(c Column) (string, error) {
	typ, err := d.ColumnType(c.Type)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", c.Name, err)
	}

	var b strings.Builder

	b.WriteString(QuoteIdent(c.Name))
	b.WriteString(" ")
	b.WriteString(typ)

	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}

	if c.DefaultValue != nil {
		expr, err := d.DefaultExpr(*c.DefaultValue)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", c.Name, err)
		}

		b.WriteString(" DEFAULT ")
		b.WriteString(expr)
	}

	if c.Primary {
		b.WriteString(" PRIMARY KEY")
	}

	if c.Type.Kind == KindEnumeration {
		quoted := make([]string, len(c.Type.Values))
		for i, v := range c.Type.Values {
			quoted[i] = quoteLiteral(v)
		}

		fmt.Fprintf(&b, " CONSTRAINT %s CHECK (%s IN (%s))",
			QuoteIdent(c.Type.EnumName), QuoteIdent(c.Name), strings.Join(quoted, ", "))
	}

	return b.String(), nil
}

// CreateTableSQL renders CREATE TABLE for t.
func (d Dialect) CreateTableSQL(t Table) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	cols := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		s, err := d.columnSQL(c)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.Name, err)
		}

		cols = append(cols, "    "+s)
	}

	ifNotExists := ""
	if t.IfNotExists {
		ifNotExists = "IF NOT EXISTS "
	}

	return fmt.Sprintf("CREATE TABLE %s%s (\n%s\n)", ifNotExists, QuoteIdent(t.Name), strings.Join(cols, ",\n")), nil
}

// DropTableSQL renders DROP TABLE for the named table.
func (d Dialect) DropTableSQL(name string, ifExists bool) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: table name is empty", ErrInvalidDefinition)
	}

	if ifExists {
		return "DROP TABLE IF EXISTS " + QuoteIdent(name), nil
	}

	return "DROP TABLE " + QuoteIdent(name), nil
}

// CreateIndexSQL renders CREATE INDEX for idx.
func (d Dialect) CreateIndexSQL(idx Index) (string, error) {
	if err := idx.Validate(); err != nil {
		return "", err
	}

	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = QuoteIdent(c)
	}

	var b strings.Builder

	b.WriteString("CREATE ")

	if idx.Unique {
		b.WriteString("UNIQUE ")
	}

	b.WriteString("INDEX ")

	if idx.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}

	fmt.Fprintf(&b, "%s ON %s (%s)", QuoteIdent(idx.Name), QuoteIdent(idx.Table), strings.Join(cols, ", "))

	return b.String(), nil
}

// DropIndexSQL renders DROP INDEX for the named index.
func (d Dialect) DropIndexSQL(name string, ifExists bool) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: index name is empty", ErrInvalidDefinition)
	}

	if ifExists {
		return "DROP INDEX IF EXISTS " + QuoteIdent(name), nil
	}

	return "DROP INDEX " + QuoteIdent(name), nil
}
