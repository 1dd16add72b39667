package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thephilippbusch/tep-app/internal/analyzer"
	"github.com/thephilippbusch/tep-app/internal/analyzer/rules"
)

// errHighSeverityFindings is returned when --fail-on-high is set and high/critical findings exist.
var errHighSeverityFindings = errors.New("high or critical severity findings detected")

var checkCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "check",
	Short: "Check that migrations are reversible",
	Long: `Render every migration to PostgreSQL SQL without touching a database
and check that each down action undoes its up action: every created table
and index is dropped, in reverse order, and no unrelated data is destroyed.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	checkCmd.Flags().String("format", "text", "output format (text, json)")
	checkCmd.Flags().Bool("fail-on-high", false, "exit with non-zero code if high/critical findings exist")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ms, err := loadMigrations(AppConfig.MigrationsDir)
	if err != nil {
		return err
	}

	a := analyzer.New(analyzer.WithRegistry(rules.NewDefaultRegistry()))

	results, err := a.AnalyzeAll(commandContext(cmd), ms)
	if err != nil {
		return fmt.Errorf("analyzing migrations: %w", err)
	}

	format, _ := cmd.Flags().GetString("format")

	var hasHighOrCritical bool

	switch format {
	case "text":
		hasHighOrCritical = printAnalysisResults(cmd.OutOrStdout(), results)
	case "json":
		if hasHighOrCritical, err = printAnalysisJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}

	failOnHigh, _ := cmd.Flags().GetBool("fail-on-high")
	if failOnHigh && hasHighOrCritical {
		return errHighSeverityFindings
	}

	return nil
}

func printAnalysisResults(out io.Writer, results []analyzer.AnalysisResult) bool {
	totalFindings := 0
	hasHighOrCritical := false

	for _, r := range results {
		if len(r.Findings) == 0 {
			continue
		}

		fmt.Fprintf(out, "\n=== %s ===\n", r.Migration)

		for _, f := range r.Findings {
			fmt.Fprintf(out, "  [%s] %s\n", f.Severity, f.Message)

			if f.Object != "" {
				fmt.Fprintf(out, "    Object: %s\n", f.Object)
			}

			fmt.Fprintf(out, "    Rule:   %s (%s)\n", f.Rule, f.Direction)

			if f.Statement != "" {
				fmt.Fprintf(out, "    SQL:    %s\n", f.Statement)
			}

			fmt.Fprintf(out, "    Fix:    %s\n\n", f.Suggestion)
		}

		totalFindings += len(r.Findings)

		if r.HasHighOrCritical() {
			hasHighOrCritical = true
		}
	}

	if totalFindings == 0 {
		fmt.Fprintf(out, "All %d migration(s) are reversible.\n", len(results))
	} else {
		fmt.Fprintf(out, "Found %d finding(s) across %d migration(s).\n", totalFindings, countMigrationsWithFindings(results))
	}

	return hasHighOrCritical
}

func printAnalysisJSON(out io.Writer, results []analyzer.AnalysisResult) (bool, error) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(results); err != nil {
		return false, fmt.Errorf("encoding results: %w", err)
	}

	for _, r := range results {
		if r.HasHighOrCritical() {
			return true, nil
		}
	}

	return false, nil
}

func countMigrationsWithFindings(results []analyzer.AnalysisResult) int {
	count := 0

	for _, r := range results {
		if len(r.Findings) > 0 {
			count++
		}
	}

	return count
}
