// Package server holds the startup sequence of the TEP service: connect to
// the database named by DATABASE_URL, check it is alive, and optionally bring
// the schema up to date.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thephilippbusch/tep-app/internal/config"
	"github.com/thephilippbusch/tep-app/internal/database"
	"github.com/thephilippbusch/tep-app/internal/migrations"
	"github.com/thephilippbusch/tep-app/internal/runner"
)

// DefaultStartupTimeout bounds connecting and pinging the database.
const DefaultStartupTimeout = 30 * time.Second

// ErrDatabaseURLMissing is returned when DATABASE_URL is not set.
var ErrDatabaseURLMissing = errors.New("environment variable DATABASE_URL not set")

// Start connects to cfg.DatabaseURL and pings it. With cfg.AutoMigrate it
// then applies all pending built-in migrations. The returned backend is open
// and owned by the caller.
func Start(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Backend, error) {
	if cfg.DatabaseURL == "" {
		return nil, ErrDatabaseURLMissing
	}

	connectCtx, cancel := context.WithTimeout(ctx, DefaultStartupTimeout)
	defer cancel()

	b, err := database.Open(connectCtx, cfg.DatabaseURL,
		database.WithLockTimeout(cfg.LockTimeout),
		database.WithStatementTimeout(cfg.StatementTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := b.Ping(connectCtx); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.InfoContext(ctx, "database reachable",
		slog.String("url", config.RedactURL(cfg.DatabaseURL)),
		slog.String("dialect", b.Dialect().String()),
	)

	if !cfg.AutoMigrate {
		return b, nil
	}

	// Only the lock wait is bounded; a migration runs to completion once started.
	r := runner.New(b,
		runner.WithAllowOutOfOrder(cfg.AllowOutOfOrder),
		runner.WithLockWait(true),
		runner.WithLockWaitTimeout(cfg.LockWaitTimeout),
		runner.WithLogger(logger),
	)

	n, err := r.ApplyAll(ctx, migrations.All())
	if err != nil {
		_ = b.Close()
		return nil, err //nolint:wrapcheck // MigrationError names the migration and direction
	}

	logger.InfoContext(ctx, "schema up to date", slog.Int("applied", n))

	return b, nil
}
