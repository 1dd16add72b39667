package rules

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/thephilippbusch/tep-app/internal/analyzer"
	"github.com/thephilippbusch/tep-app/internal/migration"
)

// DropTableRule detects statements that destroy data: DROP TABLE in an up
// direction, DROP TABLE in a down direction of a table the up did not
// create, and TRUNCATE anywhere.
type DropTableRule struct{}

// NewDropTableRule creates a new DropTableRule.
func NewDropTableRule() *DropTableRule { return &DropTableRule{} }

// ID returns the rule identifier.
func (r *DropTableRule) ID() string { return "drop-table" }

// Check examines a statement for DROP TABLE or TRUNCATE.
func (r *DropTableRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_DropStmt:
		return r.checkDrop(node.DropStmt, ctx)
	case *pg_query.Node_TruncateStmt:
		return r.checkTruncate(node.TruncateStmt, ctx)
	default:
		return nil
	}
}

func (r *DropTableRule) checkDrop(drop *pg_query.DropStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	if drop == nil || drop.RemoveType != pg_query.ObjectType_OBJECT_TABLE {
		return nil
	}

	var findings []analyzer.Finding

	for _, table := range analyzer.DropStmtNames(drop) {
		obj := analyzer.Object{Kind: analyzer.KindTable, Name: table}

		msg := "DROP TABLE in an up migration permanently deletes all data"
		if ctx.Direction == migration.Down {
			if ctx.Creates(obj) {
				continue
			}

			msg = "down drops table " + table + " which the up did not create; its data is lost"
		}

		findings = append(findings, analyzer.Finding{
			Rule:       r.ID(),
			Severity:   analyzer.Critical,
			Object:     table,
			Message:    msg,
			Suggestion: "Ensure you have a backup and that no application code references this table",
			StmtIndex:  ctx.StmtIndex,
		})
	}

	return findings
}

func (r *DropTableRule) checkTruncate(trunc *pg_query.TruncateStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	if trunc == nil {
		return nil
	}

	var tables []string

	for _, rel := range trunc.Relations {
		rv, ok := rel.Node.(*pg_query.Node_RangeVar)
		if !ok {
			continue
		}

		tables = append(tables, analyzer.TableName(rv.RangeVar))
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Critical,
		Object:     strings.Join(tables, ", "),
		Message:    "TRUNCATE removes all data from the table and cannot be reverted",
		Suggestion: "Ensure you have a backup before truncating production tables",
		StmtIndex:  ctx.StmtIndex,
	}}
}
