package schema

import "errors"

// ErrInvalidDefinition indicates a table, column, or index definition is malformed.
var ErrInvalidDefinition = errors.New("invalid schema definition")

// ErrUnsupportedType indicates a column type cannot be rendered for the dialect.
var ErrUnsupportedType = errors.New("unsupported column type")
