package runner

import (
	"errors"
	"fmt"

	"github.com/thephilippbusch/tep-app/internal/migration"
)

var (
	// ErrNothingToRevert indicates a revert was requested but no migration is applied.
	ErrNothingToRevert = errors.New("nothing to revert")

	// ErrUnknownMigration indicates an applied migration is missing from the migration set.
	ErrUnknownMigration = errors.New("applied migration is not in the migration set")

	// ErrIrreversible indicates the migration to revert has no down action.
	ErrIrreversible = errors.New("migration has no down action")

	// ErrInvalidCount indicates a revert count below one.
	ErrInvalidCount = errors.New("revert count must be at least 1")

	// ErrOutOfOrder is matched by every *OrderingError.
	ErrOutOfOrder = errors.New("migration out of order")

	// ErrLockContention is matched by every *LockContentionError.
	ErrLockContention = errors.New("another migration run holds the lock")
)

// MigrationError reports a failed up or down action. Name is empty when the
// failure is not tied to a single migration, e.g. nothing to revert.
type MigrationError struct {
	Name      string
	Direction migration.Direction
	Err       error
}

func (e *MigrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("migration %s failed: %v", e.Direction, e.Err)
	}

	return fmt.Sprintf("migration %s (%s) failed: %v", e.Name, e.Direction, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// OrderingError reports a pending migration whose name sorts before an
// already applied one. It is returned before any mutation.
type OrderingError struct {
	Name        string
	LastApplied string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("migration %s sorts before already applied %s; set allow-out-of-order to apply it anyway",
		e.Name, e.LastApplied)
}

func (e *OrderingError) Unwrap() error {
	return ErrOutOfOrder
}

// LockContentionError reports that another runner holds the migration lock.
// It is returned before any mutation.
type LockContentionError struct {
	Err error
}

func (e *LockContentionError) Error() string {
	return fmt.Sprintf("%v: %v", ErrLockContention, e.Err)
}

func (e *LockContentionError) Unwrap() []error {
	return []error{ErrLockContention, e.Err}
}
