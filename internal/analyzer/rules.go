package analyzer

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/thephilippbusch/tep-app/internal/migration"
	"github.com/thephilippbusch/tep-app/internal/parser"
)

// Rule examines one parsed statement of either direction.
type Rule interface {
	// ID returns a unique kebab-case identifier for this rule.
	ID() string
	// Check examines a single parsed statement and returns any findings.
	Check(stmt *pg_query.RawStmt, ctx *RuleContext) []Finding
}

// MigrationRule examines both directions of a migration together.
type MigrationRule interface {
	ID() string
	CheckMigration(up, down *parser.ParseResult, ctx *RuleContext) []Finding
}

// RuleContext provides contextual information to rules during analysis.
type RuleContext struct {
	Migration  string
	Direction  migration.Direction
	Reversible bool     // the migration has a down action
	Created    []Object // objects the up direction creates, in order
	StmtIndex  int
	SQL        string // the full SQL of the current direction
}

// Creates reports whether the up direction creates obj.
func (c *RuleContext) Creates(obj Object) bool {
	for _, o := range c.Created {
		if o == obj {
			return true
		}
	}

	return false
}

// Registry holds a collection of rules.
type Registry struct {
	rules          []Rule
	migrationRules []MigrationRule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a statement rule to the registry.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// RegisterMigrationRule adds a whole-migration rule to the registry.
func (r *Registry) RegisterMigrationRule(rule MigrationRule) {
	r.migrationRules = append(r.migrationRules, rule)
}

// Rules returns all registered statement rules.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// MigrationRules returns all registered whole-migration rules.
func (r *Registry) MigrationRules() []MigrationRule {
	return r.migrationRules
}

// TableName extracts a qualified table name from a RangeVar.
func TableName(rv *pg_query.RangeVar) string {
	if rv == nil {
		return "<unknown>"
	}

	if rv.Schemaname != "" {
		return rv.Schemaname + "." + rv.Relname
	}

	return rv.Relname
}

// ExtractStmtSQL extracts the SQL text for a specific statement from the full SQL string.
func ExtractStmtSQL(stmts []*pg_query.RawStmt, idx int, fullSQL string) string {
	if idx < 0 || idx >= len(stmts) {
		return ""
	}

	start := int(stmts[idx].StmtLocation)

	var end int
	if idx+1 < len(stmts) {
		end = int(stmts[idx+1].StmtLocation)
	} else {
		end = len(fullSQL)
	}

	if start > len(fullSQL) || end > len(fullSQL) || start >= end {
		return ""
	}

	return strings.TrimSpace(fullSQL[start:end])
}
