package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var errInvalidCount = errors.New("count must be a positive integer")

var downCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "down [n]",
	Short: "Revert the most recently applied migrations",
	Long: `Revert the last n applied migrations (default 1), latest first. The
latest migration is the one with the newest applied_at; ties go to the
greatest name. Fails when nothing is applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDown,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(downCmd)
}

func runDown(cmd *cobra.Command, args []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()
	ctx := commandContext(cmd)

	n := 1

	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("%w: %q", errInvalidCount, args[0])
		}

		n = v
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

	reverted, err := newRunner(b, cfg, out).Revert(ctx, ms, n)
	if err != nil {
		return err //nolint:wrapcheck // MigrationError names the migration and direction
	}

	fmt.Fprintf(out, "Revert complete: %d migration(s) reverted.\n", len(reverted))

	return nil
}
