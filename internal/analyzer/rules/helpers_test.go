package rules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thephilippbusch/tep-app/internal/analyzer"
	"github.com/thephilippbusch/tep-app/internal/parser"
)

// checkOne parses a single statement and runs rule against it.
func checkOne(t *testing.T, rule analyzer.Rule, sql string, rc *analyzer.RuleContext) []analyzer.Finding {
	t.Helper()

	result, err := parser.Parse(sql)
	require.NoError(t, err)
	require.Len(t, result.Stmts, 1)

	if rc == nil {
		rc = &analyzer.RuleContext{}
	}

	return rule.Check(result.Stmts[0], rc)
}

func mustParse(t *testing.T, sql string) *parser.ParseResult {
	t.Helper()

	result, err := parser.Parse(sql)
	require.NoError(t, err)

	return result
}
