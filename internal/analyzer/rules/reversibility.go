package rules

import (
	"slices"

	"github.com/thephilippbusch/tep-app/internal/analyzer"
	"github.com/thephilippbusch/tep-app/internal/migration"
	"github.com/thephilippbusch/tep-app/internal/parser"
)

// ReversibilityRule checks that the down direction drops every table and
// index the up direction creates, in reverse creation order.
type ReversibilityRule struct{}

// NewReversibilityRule creates a new ReversibilityRule.
func NewReversibilityRule() *ReversibilityRule { return &ReversibilityRule{} }

// ID returns the rule identifier.
func (r *ReversibilityRule) ID() string { return "down-reverses-up" }

// CheckMigration compares the objects created by up with those dropped by down.
func (r *ReversibilityRule) CheckMigration(up, down *parser.ParseResult, ctx *analyzer.RuleContext) []analyzer.Finding {
	if !ctx.Reversible {
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.Medium,
			Direction:  migration.Down,
			Message:    "migration has no down action and cannot be reverted",
			Suggestion: "Add a down action that undoes the up action",
		}}
	}

	created := analyzer.CreatedObjects(up.Stmts)
	dropped := analyzer.DroppedObjects(down.Stmts)

	var findings []analyzer.Finding

	droppedAt := make(map[analyzer.Object]int, len(dropped))
	for _, d := range dropped {
		if _, seen := droppedAt[d.Object]; !seen {
			droppedAt[d.Object] = d.StmtIndex
		}
	}

	// Created objects the down removes, in the order the down removes them.
	var order []analyzer.ObjectRef

	for _, c := range created {
		idx, ok := droppedAt[c.Object]
		if !ok {
			findings = append(findings, analyzer.Finding{
				Rule:       r.ID(),
				Severity:   analyzer.High,
				Direction:  migration.Down,
				Object:     c.Name,
				Message:    "down does not drop " + c.String() + " created by up",
				Suggestion: "Drop the " + string(c.Kind) + " in the down action",
				StmtIndex:  c.StmtIndex,
			})

			continue
		}

		order = append(order, analyzer.ObjectRef{Object: c.Object, StmtIndex: idx})
	}

	// Walking created objects forwards, their drop positions must decrease.
	for i := 1; i < len(order); i++ {
		prev, cur := order[i-1], order[i]
		if cur.StmtIndex <= prev.StmtIndex {
			continue
		}

		findings = append(findings, analyzer.Finding{
			Rule:      r.ID(),
			Severity:  analyzer.High,
			Direction: migration.Down,
			Object:    prev.Name,
			Message: "down drops " + prev.String() + " before " + cur.String() +
				"; objects must be dropped in reverse creation order",
			Suggestion: "Reorder the down action so later-created objects are dropped first",
			StmtIndex:  prev.StmtIndex,
		})
	}

	slices.SortStableFunc(findings, func(a, b analyzer.Finding) int { return a.StmtIndex - b.StmtIndex })

	return findings
}
