package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/thephilippbusch/tep-app/internal/analyzer"
)

// ConcurrentIndexRule detects CREATE INDEX CONCURRENTLY and DROP INDEX
// CONCURRENTLY. Every migration runs inside a transaction, where
// PostgreSQL rejects both.
type ConcurrentIndexRule struct{}

// NewConcurrentIndexRule creates a new ConcurrentIndexRule.
func NewConcurrentIndexRule() *ConcurrentIndexRule { return &ConcurrentIndexRule{} }

// ID returns the rule identifier.
func (r *ConcurrentIndexRule) ID() string { return "concurrent-in-transaction" }

// Check examines a statement for a CONCURRENTLY index operation.
func (r *ConcurrentIndexRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_IndexStmt:
		if node.IndexStmt == nil || !node.IndexStmt.Concurrent {
			return nil
		}

		return []analyzer.Finding{r.finding(node.IndexStmt.Idxname, "CREATE INDEX CONCURRENTLY", ctx)}
	case *pg_query.Node_DropStmt:
		drop := node.DropStmt
		if drop == nil || !drop.Concurrent || drop.RemoveType != pg_query.ObjectType_OBJECT_INDEX {
			return nil
		}

		var fs []analyzer.Finding
		for _, name := range analyzer.DropStmtNames(drop) {
			fs = append(fs, r.finding(name, "DROP INDEX CONCURRENTLY", ctx))
		}

		return fs
	default:
		return nil
	}
}

func (r *ConcurrentIndexRule) finding(index, op string, ctx *analyzer.RuleContext) analyzer.Finding {
	return analyzer.Finding{
		Rule:       r.ID(),
		Severity:   analyzer.High,
		Object:     index,
		Message:    op + " cannot run inside a transaction block, and every migration runs in one",
		Suggestion: "Drop CONCURRENTLY, or create the index outside the migration runner",
		StmtIndex:  ctx.StmtIndex,
	}
}
