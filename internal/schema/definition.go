package schema

import "fmt"

// defaultKind distinguishes expression defaults from literal defaults.
type defaultKind int

const (
	defaultCurrentTimestamp defaultKind = iota + 1
	defaultBool
	defaultInt
	defaultText
)

// Default is a column default value.
type Default struct {
	kind defaultKind
	b    bool
	i    int64
	s    string
}

// CurrentTimestamp defaults a column to the time the row is inserted.
func CurrentTimestamp() Default { return Default{kind: defaultCurrentTimestamp} }

// BoolDefault defaults a column to a boolean literal.
func BoolDefault(v bool) Default { return Default{kind: defaultBool, b: v} }

// IntDefault defaults a column to an integer literal.
func IntDefault(v int64) Default { return Default{kind: defaultInt, i: v} }

// TextDefault defaults a column to a string literal.
func TextDefault(v string) Default { return Default{kind: defaultText, s: v} }

// Column is a single column definition.
type Column struct {
	Name         string
	Type         Type
	Nullable     bool
	Primary      bool
	DefaultValue *Default
}

// Col starts a nullable column definition.
func Col(name string, t Type) Column {
	return Column{Name: name, Type: t, Nullable: true}
}

// NotNull marks the column as required.
func (c Column) NotNull() Column {
	c.Nullable = false
	return c
}

// PrimaryKey marks the column as the primary key. Primary keys are never nullable.
func (c Column) PrimaryKey() Column {
	c.Primary = true
	c.Nullable = false

	return c
}

// Default sets the column default.
func (c Column) Default(d Default) Column {
	c.DefaultValue = &d
	return c
}

// Table is an ordered list of columns under a table name.
type Table struct {
	Name        string
	Columns     []Column
	IfNotExists bool
}

// Index is a named index over ordered columns of a table.
type Index struct {
	Name        string
	Table       string
	Columns     []string
	Unique      bool
	IfNotExists bool
}

// Validate checks the table definition for structural errors.
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: table name is empty", ErrInvalidDefinition)
	}

	if len(t.Columns) == 0 {
		return fmt.Errorf("%w: table %s has no columns", ErrInvalidDefinition, t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	primaries := 0

	for _, c := range t.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w: table %s has a column without a name", ErrInvalidDefinition, t.Name)
		}

		if seen[c.Name] {
			return fmt.Errorf("%w: table %s declares column %s twice", ErrInvalidDefinition, t.Name, c.Name)
		}

		seen[c.Name] = true

		if c.Primary {
			primaries++
		}

		if err := validateType(c.Type); err != nil {
			return fmt.Errorf("table %s column %s: %w", t.Name, c.Name, err)
		}
	}

	if primaries > 1 {
		return fmt.Errorf("%w: table %s declares %d primary key columns", ErrInvalidDefinition, t.Name, primaries)
	}

	return nil
}

// HasColumn reports whether the table declares a column with the given name.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}

	return false
}

// Validate checks the index definition for structural errors.
func (i Index) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("%w: index name is empty", ErrInvalidDefinition)
	}

	if i.Table == "" {
		return fmt.Errorf("%w: index %s has no table", ErrInvalidDefinition, i.Name)
	}

	if len(i.Columns) == 0 {
		return fmt.Errorf("%w: index %s has no columns", ErrInvalidDefinition, i.Name)
	}

	for _, c := range i.Columns {
		if c == "" {
			return fmt.Errorf("%w: index %s has an empty column name", ErrInvalidDefinition, i.Name)
		}
	}

	return nil
}

// ValidateAgainst checks that every indexed column exists in the table.
func (i Index) ValidateAgainst(t Table) error {
	if err := i.Validate(); err != nil {
		return err
	}

	if i.Table != t.Name {
		return fmt.Errorf("%w: index %s targets %s, not %s", ErrInvalidDefinition, i.Name, i.Table, t.Name)
	}

	for _, c := range i.Columns {
		if !t.HasColumn(c) {
			return fmt.Errorf("%w: index %s references unknown column %s.%s", ErrInvalidDefinition, i.Name, t.Name, c)
		}
	}

	return nil
}

func validateType(t Type) error {
	switch t.Kind {
	case KindIdentifier, KindText, KindBoolean, KindInteger, KindTimestamp:
		return nil
	case KindEnumeration:
		if t.EnumName == "" {
			return fmt.Errorf("%w: enumeration has no name", ErrInvalidDefinition)
		}

		if len(t.Values) == 0 {
			return fmt.Errorf("%w: enumeration %s has no values", ErrInvalidDefinition, t.EnumName)
		}

		return nil
	case KindArray:
		if t.Elem == nil {
			return fmt.Errorf("%w: array has no element type", ErrInvalidDefinition)
		}

		if t.Elem.Kind == KindArray || t.Elem.Kind == KindEnumeration {
			return fmt.Errorf("%w: array of %s", ErrUnsupportedType, t.Elem.Kind)
		}

		return validateType(*t.Elem)
	default:
		return fmt.Errorf("%w: kind %d", ErrUnsupportedType, t.Kind)
	}
}
