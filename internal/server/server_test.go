package server_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thephilippbusch/tep-app/internal/config"
	"github.com/thephilippbusch/tep-app/internal/database"
	"github.com/thephilippbusch/tep-app/internal/migrations"
	"github.com/thephilippbusch/tep-app/internal/runner"
	"github.com/thephilippbusch/tep-app/internal/server"
	"github.com/thephilippbusch/tep-app/internal/tracker"
)

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func sqliteURL(t *testing.T) string {
	t.Helper()

	return "sqlite://" + filepath.Join(t.TempDir(), "tep.db")
}

func TestStart_missingURL(t *testing.T) {
	t.Parallel()

	_, err := server.Start(context.Background(), config.New(), discard())
	require.ErrorIs(t, err, server.ErrDatabaseURLMissing)
}

func TestStart_invalidURL(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.DatabaseURL = "mysql://localhost/tep"

	_, err := server.Start(context.Background(), cfg, discard())
	require.ErrorIs(t, err, database.ErrInvalidDatabaseURL)
}

func TestStart_pingOnly(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.DatabaseURL = sqliteURL(t)

	b, err := server.Start(context.Background(), cfg, discard())
	require.NoError(t, err)

	t.Cleanup(func() { _ = b.Close() })

	exists, err := b.TableExists(context.Background(), tracker.TableName)
	require.NoError(t, err)
	assert.False(t, exists, "ping must not create the bookkeeping table")
}

func TestStart_autoMigrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cfg := config.New()
	cfg.DatabaseURL = sqliteURL(t)
	cfg.AutoMigrate = true

	b, err := server.Start(ctx, cfg, discard())
	require.NoError(t, err)
	require.NoError(t, b.Close())

	// A second start finds nothing pending.
	b, err = server.Start(ctx, cfg, discard())
	require.NoError(t, err)

	t.Cleanup(func() { _ = b.Close() })

	records, err := tracker.New(b.Dialect()).List(ctx, b)
	require.NoError(t, err)
	require.Len(t, records, len(migrations.All()))
	assert.Equal(t, "m20220101_000001_create_event", records[0].Name)
}

func TestStart_autoMigrate_staleLockFailsInsteadOfHanging(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tep.db")

	// Take the lock and close without releasing it.
	crashed, err := database.OpenSQLite(ctx, path)
	require.NoError(t, err)

	_, err = crashed.TryLock(ctx)
	require.NoError(t, err)
	require.NoError(t, crashed.Close())

	cfg := config.New()
	cfg.DatabaseURL = "sqlite://" + path
	cfg.AutoMigrate = true
	cfg.LockWaitTimeout = 200 * time.Millisecond

	_, err = server.Start(ctx, cfg, discard())
	require.ErrorIs(t, err, runner.ErrLockContention)
	require.ErrorIs(t, err, database.ErrLockNotAcquired)
}
