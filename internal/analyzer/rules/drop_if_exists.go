package rules

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/thephilippbusch/tep-app/internal/analyzer"
)

// DropIfExistsRule flags DROP TABLE and DROP INDEX without IF EXISTS. Such a
// revert fails when the object was already removed by hand.
type DropIfExistsRule struct{}

// NewDropIfExistsRule creates a new DropIfExistsRule.
func NewDropIfExistsRule() *DropIfExistsRule { return &DropIfExistsRule{} }

// ID returns the rule identifier.
func (r *DropIfExistsRule) ID() string { return "drop-without-if-exists" }

// Check examines a statement for a DROP without IF EXISTS.
func (r *DropIfExistsRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_DropStmt)
	if !ok || node.DropStmt == nil || node.DropStmt.MissingOk {
		return nil
	}

	var kind string

	switch node.DropStmt.RemoveType {
	case pg_query.ObjectType_OBJECT_TABLE:
		kind = "TABLE"
	case pg_query.ObjectType_OBJECT_INDEX:
		kind = "INDEX"
	default:
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Low,
		Object:     strings.Join(analyzer.DropStmtNames(node.DropStmt), ", "),
		Message:    "DROP " + kind + " without IF EXISTS fails if the object is already gone",
		Suggestion: "Use DROP " + kind + " IF EXISTS",
		StmtIndex:  ctx.StmtIndex,
	}}
}
