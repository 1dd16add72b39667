// Package parser parses rendered migration SQL with the PostgreSQL parser.
package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseResult holds the parsed statements and the SQL they were parsed from.
// Statement locations index into SQL.
type ParseResult struct {
	Stmts []*pg_query.RawStmt
	SQL   string
}

// Parse parses a PostgreSQL script. Surrounding whitespace is trimmed before
// parsing; empty input yields zero statements.
func Parse(sql string) (*ParseResult, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return &ParseResult{}, nil
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parsing SQL: %w", err)
	}

	return &ParseResult{
		Stmts: tree.Stmts,
		SQL:   trimmed,
	}, nil
}

// Join concatenates rendered statements into one script, one statement per
// line, each terminated by a semicolon. Blank statements are skipped.
func Join(stmts []string) string {
	var b strings.Builder

	for _, s := range stmts {
		s = strings.TrimSuffix(strings.TrimSpace(s), ";")
		if s == "" {
			continue
		}

		b.WriteString(s)
		b.WriteString(";\n")
	}

	return b.String()
}

// ParseStatements joins stmts and parses the result.
func ParseStatements(stmts []string) (*ParseResult, error) {
	return Parse(Join(stmts))
}
