package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/thephilippbusch/tep-app/internal/runner"
)

var errUnknownFormat = errors.New("unknown output format")

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `Display every known migration in name order with whether it is
applied and when. Reads only; never creates the bookkeeping table.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	statusCmd.Flags().String("format", "", "output format (text, json); defaults to config format")
	rootCmd.AddCommand(statusCmd)
}

// statusEntry is the JSON form of a runner.Entry.
type statusEntry struct {
	Name      string     `json:"name"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	ctx := commandContext(cmd)

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Format
	}

	if format != "text" && format != "json" {
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}

	ms, err := loadMigrations(cfg.MigrationsDir)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	entries, err := newRunner(b, cfg, io.Discard).Status(ctx, ms)
	if err != nil {
		return err //nolint:wrapcheck // runner errors are descriptive
	}

	var all []runner.Entry
	for e := range entries {
		all = append(all, e)
	}

	if format == "json" {
		return printStatusJSON(cmd.OutOrStdout(), all)
	}

	printStatusText(cmd.OutOrStdout(), all)

	return nil
}

func printStatusText(out io.Writer, entries []runner.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // column padding

	fmt.Fprintln(w, "MIGRATION\tSTATUS\tAPPLIED AT")

	pending := 0

	for _, e := range entries {
		if !e.Applied {
			pending++
			fmt.Fprintf(w, "%s\tpending\t-\n", e.Name)

			continue
		}

		fmt.Fprintf(w, "%s\tapplied\t%s\n", e.Name, e.AppliedAt.UTC().Format(time.RFC3339))
	}

	_ = w.Flush()

	fmt.Fprintf(out, "\n%d applied, %d pending.\n", len(entries)-pending, pending)
}

func printStatusJSON(out io.Writer, entries []runner.Entry) error {
	rows := make([]statusEntry, 0, len(entries))

	for _, e := range entries {
		row := statusEntry{Name: e.Name, Applied: e.Applied}
		if e.Applied {
			at := e.AppliedAt.UTC()
			row.AppliedAt = &at
		}

		rows = append(rows, row)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	return nil
}
