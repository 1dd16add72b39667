//go:build integration

package integration

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thephilippbusch/tep-app/internal/migration"
	"github.com/thephilippbusch/tep-app/internal/migrations"
	"github.com/thephilippbusch/tep-app/internal/runner"
	"github.com/thephilippbusch/tep-app/internal/tracker"
)

func statusOf(t *testing.T, r *runner.Runner, ms []migration.Migration) []runner.Entry {
	t.Helper()

	seq, err := r.Status(context.Background(), ms)
	require.NoError(t, err)

	return slices.Collect(seq)
}

func TestRunner_roundTrip(t *testing.T) {
	t.Parallel()

	pg := StartPostgres(t)
	ctx := context.Background()
	ms := migrations.All()
	r := runner.New(pg)

	for _, e := range statusOf(t, r, ms) {
		assert.False(t, e.Applied, e.Name)
	}

	n, err := r.ApplyAll(ctx, ms)
	require.NoError(t, err)
	assert.Equal(t, len(ms), n)

	for _, e := range statusOf(t, r, ms) {
		assert.True(t, e.Applied, e.Name)
		assert.False(t, e.AppliedAt.IsZero(), e.Name)
	}

	n, err = r.ApplyAll(ctx, ms)
	require.NoError(t, err)
	assert.Zero(t, n, "second run applies nothing")

	for range ms {
		_, err := r.RevertLast(ctx, ms)
		require.NoError(t, err)
	}

	for _, table := range []string{migrations.VenueTable, migrations.EventTable} {
		exists, err := pg.TableExists(ctx, table)
		require.NoError(t, err)
		assert.False(t, exists, table)
	}

	var indexes int
	rows, err := pg.Query(ctx, `SELECT COUNT(*) FROM pg_indexes WHERE indexname LIKE 'idx-%'`)
	require.NoError(t, err)
	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&indexes))
	rows.Close()
	assert.Zero(t, indexes)

	records, err := tracker.New(pg.Dialect()).List(ctx, pg)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunner_revertEmpty_noMutation(t *testing.T) {
	t.Parallel()

	pg := StartPostgres(t)
	ctx := context.Background()

	_, err := runner.New(pg).RevertLast(ctx, migrations.All())
	require.ErrorIs(t, err, runner.ErrNothingToRevert)

	exists, err := pg.TableExists(ctx, tracker.TableName)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunner_failFast_rollsBackFailingMigration(t *testing.T) {
	t.Parallel()

	pg := StartPostgres(t)
	ctx := context.Background()

	ms := []migration.Migration{
		{Name: "V001_ok", Up: migration.SQLAction("CREATE TABLE ok (id INT)"), Down: migration.SQLAction("DROP TABLE ok")},
		{Name: "V002_bad", Up: migration.SQLAction("CREATE TABLE half (id INT); SELECT * FROM missing")},
		{Name: "V003_never", Up: migration.SQLAction("CREATE TABLE never (id INT)")},
	}

	n, err := runner.New(pg).ApplyAll(ctx, ms)
	require.Error(t, err)
	assert.Equal(t, 1, n)

	var merr *runner.MigrationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "V002_bad", merr.Name)
	assert.Equal(t, migration.Up, merr.Direction)

	for table, want := range map[string]bool{"ok": true, "half": false, "never": false} {
		exists, err := pg.TableExists(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, want, exists, table)
	}

	records, err := tracker.New(pg.Dialect()).List(ctx, pg)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "V001_ok", records[0].Name)
}

func TestRunner_lockContention(t *testing.T) {
	t.Parallel()

	url := SetupPostgres(t)
	holder := OpenPostgres(t, url)
	other := OpenPostgres(t, url)
	ctx := context.Background()

	lock, err := holder.TryLock(ctx)
	require.NoError(t, err)

	_, err = runner.New(other).ApplyAll(ctx, migrations.All())
	require.ErrorIs(t, err, runner.ErrLockContention)

	exists, err := other.TableExists(ctx, tracker.TableName)
	require.NoError(t, err)
	assert.False(t, exists, "no mutation under contention")

	require.NoError(t, lock.Release(ctx))
}

func TestRunner_concurrentReplicas_neverDoubleApply(t *testing.T) {
	t.Parallel()

	url := SetupPostgres(t)
	ctx := context.Background()

	const replicas = 4

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)

	for range replicas {
		pg := OpenPostgres(t, url)

		wg.Go(func() {
			n, err := runner.New(pg, runner.WithLockWait(true)).ApplyAll(ctx, migrations.All())
			assert.NoError(t, err)

			mu.Lock()
			total += n
			mu.Unlock()
		})
	}

	wg.Wait()

	assert.Equal(t, len(migrations.All()), total)
}
