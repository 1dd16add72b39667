package schema

import "strings"

// Kind is the semantic type tag of a column.
type Kind int

const (
	// KindIdentifier is a universally unique identifier.
	KindIdentifier Kind = iota + 1
	// KindText is variable-length character data.
	KindText
	// KindBoolean is a true/false flag.
	KindBoolean
	// KindInteger is a signed integer.
	KindInteger
	// KindTimestamp is a date and time without time zone.
	KindTimestamp
	// KindEnumeration is text restricted to a fixed set of values.
	KindEnumeration
	// KindArray is an ordered sequence of another type.
	KindArray
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindTimestamp:
		return "timestamp"
	case KindEnumeration:
		return "enumeration"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Type describes a column type. Enumeration and array types carry extra data.
type Type struct {
	Kind     Kind
	EnumName string   // constraint name for enumerations
	Values   []string // allowed values for enumerations
	Elem     *Type    // element type for arrays
}

// Identifier returns the unique identifier type.
func Identifier() Type { return Type{Kind: KindIdentifier} }

// Text returns the text type.
func Text() Type { return Type{Kind: KindText} }

// Boolean returns the boolean type.
func Boolean() Type { return Type{Kind: KindBoolean} }

// Integer returns the integer type.
func Integer() Type { return Type{Kind: KindInteger} }

// Timestamp returns the timestamp type.
func Timestamp() Type { return Type{Kind: KindTimestamp} }

// Enumeration returns a text type restricted to values. The name is used
// for the generated check constraint.
func Enumeration(name string, values ...string) Type {
	vs := make([]string, len(values))
	copy(vs, values)

	return Type{Kind: KindEnumeration, EnumName: name, Values: vs}
}

// ArrayOf returns an array type with the given element type.
func ArrayOf(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

// String returns a readable description such as "array(identifier)".
func (t Type) String() string {
	switch t.Kind {
	case KindEnumeration:
		return "enumeration(" + strings.Join(t.Values, "|") + ")"
	case KindArray:
		if t.Elem == nil {
			return "array(?)"
		}

		return "array(" + t.Elem.String() + ")"
	default:
		return t.Kind.String()
	}
}
