package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thephilippbusch/tep-app/internal/runner"
)

var upCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "up",
	Short: "Apply pending migrations",
	Long: `Apply every pending migration in name order. Each migration runs in
its own transaction together with its bookkeeping row; the first failure
stops the run and leaves later migrations pending.`,
	Args: cobra.NoArgs,
	RunE: runUp,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	upCmd.Flags().Bool("dry-run", false, "list pending migrations without applying them")
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()
	ctx := commandContext(cmd)

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ms, err := loadMigrations(cfg.MigrationsDir)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if dryRun {
		fmt.Fprintln(out, "--- DRY RUN (no changes will be made) ---")
	}

	n, err := newRunner(b, cfg, out, runner.WithDryRun(dryRun)).ApplyAll(ctx, ms)
	if err != nil {
		return err //nolint:wrapcheck // MigrationError names the migration and direction
	}

	switch {
	case dryRun:
		fmt.Fprintf(out, "Dry run complete: %d migration(s) would be applied.\n", n)
	case n == 0:
		fmt.Fprintln(out, "Database is up to date.")
	default:
		fmt.Fprintf(out, "Apply complete: %d migration(s) applied.\n", n)
	}

	return nil
}
