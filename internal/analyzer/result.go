package analyzer

import "github.com/thephilippbusch/tep-app/internal/migration"

// Finding represents a single reversibility or data-loss problem in a migration.
type Finding struct {
	Rule       string              `json:"rule"`                // Rule ID (e.g., "down-reverses-up")
	Severity   Severity            `json:"severity"`            // Danger level
	Direction  migration.Direction `json:"direction,omitempty"` // Side of the migration the finding is on
	Object     string              `json:"object,omitempty"`    // Affected table or index
	Statement  string              `json:"statement,omitempty"` // The SQL statement text (truncated for display)
	Message    string              `json:"message"`             // Human-readable description
	Suggestion string              `json:"suggestion"`          // How to fix it
	StmtIndex  int                 `json:"stmt_index"`          // Index in the direction's statement list (0-based)
}

// AnalysisResult holds all findings for a single migration.
type AnalysisResult struct {
	Migration   string    `json:"migration"`
	Findings    []Finding `json:"findings"`
	MaxSeverity Severity  `json:"max_severity"` // Highest severity across all findings
}

// AtLeast reports whether any finding is at or above severity s.
func (r *AnalysisResult) AtLeast(s Severity) bool {
	return len(r.Findings) > 0 && r.MaxSeverity >= s
}

// HasHighOrCritical returns true if any finding is High or Critical severity.
func (r *AnalysisResult) HasHighOrCritical() bool {
	return r.AtLeast(High)
}

// TruncateSQL truncates a SQL string to maxLen characters for display.
// A maxLen too small to hold the ellipsis returns sql unchanged.
func TruncateSQL(sql string, maxLen int) string {
	if len(sql) <= maxLen || maxLen < 4 { //nolint:mnd // room for "x..."
		return sql
	}

	return sql[:maxLen-3] + "..."
}
