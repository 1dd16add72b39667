//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thephilippbusch/tep-app/internal/database"
)

func TestAdvisoryLock_acquireAndRelease(t *testing.T) {
	t.Parallel()

	pg := StartPostgres(t)
	ctx := context.Background()

	lock, err := pg.TryLock(ctx)
	require.NoError(t, err)
	require.NotNil(t, lock)

	require.NoError(t, lock.Release(ctx))
}

func TestAdvisoryLock_doubleAcquire_returnsLockNotAcquired(t *testing.T) {
	t.Parallel()

	url := SetupPostgres(t)
	first := OpenPostgres(t, url)
	second := OpenPostgres(t, url)
	ctx := context.Background()

	lock, err := first.TryLock(ctx)
	require.NoError(t, err)

	t.Cleanup(func() { _ = lock.Release(context.Background()) })

	other, err := second.TryLock(ctx)
	assert.Nil(t, other)
	require.ErrorIs(t, err, database.ErrLockNotAcquired)
}

func TestAdvisoryLock_releaseAllowsReacquire(t *testing.T) {
	t.Parallel()

	pg := StartPostgres(t)
	ctx := context.Background()

	lock, err := pg.TryLock(ctx)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))

	lock, err = pg.TryLock(ctx)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
}

func TestAdvisoryLock_waitBlocksUntilRelease(t *testing.T) {
	t.Parallel()

	url := SetupPostgres(t)
	first := OpenPostgres(t, url)
	second := OpenPostgres(t, url)
	ctx := context.Background()

	held, err := first.TryLock(ctx)
	require.NoError(t, err)

	// Blocked by the held lock until the deadline.
	shortCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	_, err = second.WaitLock(shortCtx)
	require.Error(t, err)

	acquired := make(chan error, 1)

	go func() {
		lock, err := second.WaitLock(ctx)
		if err == nil {
			err = lock.Release(ctx)
		}
		acquired <- err
	}()

	require.NoError(t, held.Release(ctx))

	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("WaitLock did not return after release")
	}
}
