package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/thephilippbusch/tep-app/internal/config"
	"github.com/thephilippbusch/tep-app/internal/database"
	"github.com/thephilippbusch/tep-app/internal/migration"
	"github.com/thephilippbusch/tep-app/internal/migrations"
	"github.com/thephilippbusch/tep-app/internal/runner"
)

// errDatabaseURLRequired is returned when no database URL is configured.
var errDatabaseURLRequired = errors.New(
	"database URL is required (set --database-url, MIGRATE_DATABASE_URL, DATABASE_URL, or database_url in config)",
)

// loadMigrations returns the built-in migrations merged with any SQL-file
// migrations from dir, sorted by name.
func loadMigrations(dir string) ([]migration.Migration, error) {
	sets := [][]migration.Migration{migrations.All()}

	if dir != "" {
		fromDir, err := migration.LoadFromDir(dir)
		if err != nil {
			return nil, fmt.Errorf("loading migrations: %w", err)
		}

		sets = append(sets, fromDir)
	}

	ms, err := migration.Merge(sets...)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	return ms, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (database.Backend, error) {
	if cfg.DatabaseURL == "" {
		return nil, errDatabaseURLRequired
	}

	logger.DebugContext(ctx, "connecting", "url", config.RedactURL(cfg.DatabaseURL))

	b, err := database.Open(ctx, cfg.DatabaseURL,
		database.WithLockTimeout(cfg.LockTimeout),
		database.WithStatementTimeout(cfg.StatementTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return b, nil
}

// newRunner builds a runner from cfg that reports progress to out.
func newRunner(b database.Backend, cfg *config.Config, out io.Writer, extra ...runner.Option) *runner.Runner {
	opts := []runner.Option{
		runner.WithAllowOutOfOrder(cfg.AllowOutOfOrder),
		runner.WithLockWait(cfg.LockWait),
		runner.WithLockWaitTimeout(cfg.LockWaitTimeout),
		runner.WithLogger(logger),
		runner.WithProgressCallback(progressPrinter(out)),
	}

	return runner.New(b, append(opts, extra...)...)
}

func progressPrinter(out io.Writer) func(runner.ProgressEvent) {
	return func(event runner.ProgressEvent) {
		verb := "Applying"
		if event.Direction == migration.Down {
			verb = "Reverting"
		}

		switch event.Status {
		case runner.StatusStarting:
			fmt.Fprintf(out, "  %s %s ... ", verb, event.Migration)
		case runner.StatusCompleted:
			fmt.Fprintf(out, "done (%s)\n", event.Duration.Truncate(time.Millisecond))
		case runner.StatusFailed:
			fmt.Fprintf(out, "FAILED\n")
			fmt.Fprintf(out, "    Error: %v\n", event.Error)
		case runner.StatusPending:
			fmt.Fprintf(out, "  Pending %s\n", event.Migration)
		}
	}
}
