package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thephilippbusch/tep-app/internal/database"
	"github.com/thephilippbusch/tep-app/internal/migration"
	"github.com/thephilippbusch/tep-app/internal/runner"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "migration error with name",
			err:  &runner.MigrationError{Name: "m1", Direction: migration.Up, Err: errors.New("syntax error")},
			want: "migration m1 (up) failed: syntax error",
		},
		{
			name: "migration error without name",
			err:  &runner.MigrationError{Direction: migration.Down, Err: runner.ErrNothingToRevert},
			want: "migration down failed: nothing to revert",
		},
		{
			name: "ordering error",
			err:  &runner.OrderingError{Name: "m1", LastApplied: "m2"},
			want: "migration m1 sorts before already applied m2; set allow-out-of-order to apply it anyway",
		},
		{
			name: "lock contention",
			err:  &runner.LockContentionError{Err: database.ErrLockNotAcquired},
			want: "another migration run holds the lock: migration lock not acquired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

// lockFailingBackend fails TryLock with an error other than contention.
type lockFailingBackend struct {
	database.Backend
	err error
}

func (b lockFailingBackend) TryLock(context.Context) (database.Lock, error) {
	return nil, b.err
}

func TestApplyAll_lockError_isNotContention(t *testing.T) {
	t.Parallel()

	broken := errors.New("connection reset")
	b := lockFailingBackend{Backend: openMemory(t), err: broken}

	_, err := runner.New(b).ApplyAll(context.Background(), []migration.Migration{tableMigration("m1", "t")})

	require.ErrorIs(t, err, broken)
	assert.NotErrorIs(t, err, runner.ErrLockContention)
	assert.Contains(t, err.Error(), "acquiring migration lock")
}
