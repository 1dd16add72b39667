package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/thephilippbusch/tep-app/internal/database"
	"github.com/thephilippbusch/tep-app/internal/migration"
	"github.com/thephilippbusch/tep-app/internal/schema"
	"github.com/thephilippbusch/tep-app/internal/tracker"
)

const tracerName = "github.com/thephilippbusch/tep-app/internal/runner"

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusPending   = "pending"
)

// ProgressEvent is emitted by the runner for each migration processed.
type ProgressEvent struct {
	Migration string
	Direction migration.Direction
	Status    string
	Duration  time.Duration
	Error     error
}

// Runner applies and reverts migrations against a single backend. Runs are
// serialized across processes by the backend's migration lock.
type Runner struct {
	backend         database.Backend
	tracker         *tracker.Tracker
	allowOutOfOrder bool
	lockWait        bool
	lockWaitTimeout time.Duration
	dryRun          bool
	onProgress      func(ProgressEvent)
	now             func() time.Time
	logger          *slog.Logger
	tracer          trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithAllowOutOfOrder applies pending migrations that sort before the
// latest applied one instead of failing with an OrderingError.
func WithAllowOutOfOrder(b bool) Option {
	return func(r *Runner) { r.allowOutOfOrder = b }
}

// WithLockWait blocks until the migration lock is free instead of failing
// with a LockContentionError.
func WithLockWait(b bool) Option {
	return func(r *Runner) { r.lockWait = b }
}

// WithLockWaitTimeout bounds how long WithLockWait blocks. A run that cannot
// take the lock in time fails with a LockContentionError. Zero waits
// indefinitely.
func WithLockWaitTimeout(d time.Duration) Option {
	return func(r *Runner) { r.lockWaitTimeout = d }
}

// WithDryRun makes ApplyAll report pending migrations without running them.
func WithDryRun(b bool) Option {
	return func(r *Runner) { r.dryRun = b }
}

// WithProgressCallback sets a function called for each migration processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(r *Runner) { r.onProgress = fn }
}

// WithClock sets the source of applied_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithTracerProvider sets the tracer provider. The default is the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) { r.tracer = tp.Tracer(tracerName) }
}

// New creates a Runner for backend b.
func New(b database.Backend, opts ...Option) *Runner {
	r := &Runner{
		backend: b,
		tracker: tracker.New(b.Dialect()),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.now == nil {
		r.now = time.Now
	}

	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}

	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}

	return r
}

// ApplyAll applies every pending migration in ascending name order and
// returns the number applied. Each migration runs in its own transaction
// together with its bookkeeping insert. The first failure stops the run.
// In dry-run mode nothing is executed and the pending count is returned.
func (r *Runner) ApplyAll(ctx context.Context, ms []migration.Migration) (int, error) {
	sorted, err := prepare(ms)
	if err != nil {
		return 0, err
	}

	ctx, span := r.tracer.Start(ctx, "runner.ApplyAll",
		trace.WithAttributes(attribute.Int("migrations.total", len(sorted))))
	defer span.End()

	if r.dryRun {
		n, err := r.planOnly(ctx, sorted)
		if err != nil {
			return 0, failSpan(span, err)
		}

		return n, nil
	}

	lock, err := r.acquireLock(ctx)
	if err != nil {
		return 0, failSpan(span, err)
	}
	defer r.releaseLock(ctx, lock)

	records, err := r.readRecords(ctx)
	if err != nil {
		return 0, failSpan(span, err)
	}

	pending, err := r.pending(sorted, records)
	if err != nil {
		return 0, failSpan(span, err)
	}

	if err := r.tracker.EnsureTable(ctx, r.backend); err != nil {
		return 0, failSpan(span, err)
	}

	applied := 0

	for _, m := range pending {
		if err := r.run(ctx, m, migration.Up); err != nil {
			return applied, failSpan(span, err)
		}

		applied++
	}

	span.SetAttributes(attribute.Int("migrations.applied", applied))
	r.logger.InfoContext(ctx, "migrations applied", slog.Int("count", applied))

	return applied, nil
}

// RevertLast reverts the most recently applied migration and returns its name.
func (r *Runner) RevertLast(ctx context.Context, ms []migration.Migration) (string, error) {
	names, err := r.Revert(ctx, ms, 1)
	if err != nil {
		return "", err
	}

	return names[0], nil
}

// Revert reverts up to n applied migrations, latest first, and returns the
// reverted names in order. It stops early when no applied migrations remain.
// With nothing applied it fails with ErrNothingToRevert and leaves the
// backend untouched.
func (r *Runner) Revert(ctx context.Context, ms []migration.Migration, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}

	sorted, err := prepare(ms)
	if err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "runner.Revert", trace.WithAttributes(attribute.Int("migrations.requested", n)))
	defer span.End()

	records, err := r.readRecords(ctx)
	if err != nil {
		return nil, failSpan(span, err)
	}

	if len(records) == 0 {
		return nil, failSpan(span, &MigrationError{Direction: migration.Down, Err: ErrNothingToRevert})
	}

	lock, err := r.acquireLock(ctx)
	if err != nil {
		return nil, failSpan(span, err)
	}
	defer r.releaseLock(ctx, lock)

	byName := make(map[string]migration.Migration, len(sorted))
	for _, m := range sorted {
		byName[m.Name] = m
	}

	var reverted []string

	for range n {
		records, err = r.readRecords(ctx)
		if err != nil {
			return reverted, failSpan(span, err)
		}

		latest, ok := tracker.Latest(records)
		if !ok {
			break
		}

		m, known := byName[latest.Name]
		if !known {
			return reverted, failSpan(span, &MigrationError{Name: latest.Name, Direction: migration.Down, Err: ErrUnknownMigration})
		}

		if !m.Reversible() {
			return reverted, failSpan(span, &MigrationError{Name: m.Name, Direction: migration.Down, Err: ErrIrreversible})
		}

		if err := r.run(ctx, m, migration.Down); err != nil {
			return reverted, failSpan(span, err)
		}

		reverted = append(reverted, m.Name)
	}

	if len(reverted) == 0 {
		return nil, failSpan(span, &MigrationError{Direction: migration.Down, Err: ErrNothingToRevert})
	}

	r.logger.InfoContext(ctx, "migrations reverted", slog.Int("count", len(reverted)))

	return reverted, nil
}

// run executes one direction of m in a transaction together with its
// bookkeeping change.
func (r *Runner) run(ctx context.Context, m migration.Migration, d migration.Direction) error {
	ctx, span := r.tracer.Start(ctx, "migration."+string(d), trace.WithAttributes(
		attribute.String("migration.name", m.Name),
		attribute.String("migration.direction", string(d)),
	))
	defer span.End()

	r.fireProgress(ProgressEvent{Migration: m.Name, Direction: d, Status: StatusStarting})

	start := time.Now()
	err := r.backend.InTx(ctx, func(ctx context.Context, tx database.Tx) error {
		if err := m.Action(d)(ctx, schema.NewManager(tx, r.backend.Dialect())); err != nil {
			return err
		}

		if d == migration.Up {
			return r.tracker.Insert(ctx, tx, tracker.Record{Name: m.Name, AppliedAt: r.now()})
		}

		return r.tracker.Delete(ctx, tx, m.Name)
	})
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "migration failed")
		r.fireProgress(ProgressEvent{Migration: m.Name, Direction: d, Status: StatusFailed, Duration: duration, Error: err})
		r.logger.ErrorContext(ctx, "migration failed",
			slog.String("migration", m.Name), slog.String("direction", string(d)), slog.Any("error", err))

		return &MigrationError{Name: m.Name, Direction: d, Err: err}
	}

	r.fireProgress(ProgressEvent{Migration: m.Name, Direction: d, Status: StatusCompleted, Duration: duration})
	r.logger.InfoContext(ctx, "migration completed",
		slog.String("migration", m.Name), slog.String("direction", string(d)), slog.Duration("duration", duration))

	return nil
}

// planOnly reports pending migrations without taking the lock or mutating.
func (r *Runner) planOnly(ctx context.Context, sorted []migration.Migration) (int, error) {
	records, err := r.readRecords(ctx)
	if err != nil {
		return 0, err
	}

	pending, err := r.pending(sorted, records)
	if err != nil {
		return 0, err
	}

	for _, m := range pending {
		r.fireProgress(ProgressEvent{Migration: m.Name, Direction: migration.Up, Status: StatusPending})
	}

	return len(pending), nil
}

// pending returns the unapplied migrations of sorted. Without the
// out-of-order override, a pending migration that sorts before the greatest
// applied name is an OrderingError.
func (r *Runner) pending(sorted []migration.Migration, records []tracker.Record) ([]migration.Migration, error) {
	applied := make(map[string]bool, len(records))
	last := ""

	for _, rec := range records {
		applied[rec.Name] = true

		if rec.Name > last {
			last = rec.Name
		}
	}

	var out []migration.Migration

	for _, m := range sorted {
		if applied[m.Name] {
			continue
		}

		if m.Name < last && !r.allowOutOfOrder {
			return nil, &OrderingError{Name: m.Name, LastApplied: last}
		}

		out = append(out, m)
	}

	return out, nil
}

// readRecords returns the bookkeeping records, or none when the table has
// not been created yet.
func (r *Runner) readRecords(ctx context.Context) ([]tracker.Record, error) {
	exists, err := r.tracker.Exists(ctx, r.backend)
	if err != nil {
		return nil, fmt.Errorf("reading migration records: %w", err)
	}

	if !exists {
		return nil, nil
	}

	records, err := r.tracker.List(ctx, r.backend)
	if err != nil {
		return nil, fmt.Errorf("reading migration records: %w", err)
	}

	return records, nil
}

func (r *Runner) acquireLock(ctx context.Context) (database.Lock, error) {
	if r.lockWait {
		return r.waitLock(ctx)
	}

	lock, err := r.backend.TryLock(ctx)
	if errors.Is(err, database.ErrLockNotAcquired) {
		return nil, &LockContentionError{Err: err}
	}

	if err != nil {
		return nil, fmt.Errorf("acquiring migration lock: %w", err)
	}

	return lock, nil
}

// waitLock blocks for the lock, giving up after lockWaitTimeout when set.
// Only the wait is bounded; the run that follows keeps ctx.
func (r *Runner) waitLock(ctx context.Context) (database.Lock, error) {
	waitCtx := ctx

	if r.lockWaitTimeout > 0 {
		var cancel context.CancelFunc

		waitCtx, cancel = context.WithTimeout(ctx, r.lockWaitTimeout)
		defer cancel()
	}

	lock, err := r.backend.WaitLock(waitCtx)
	if err == nil {
		return lock, nil
	}

	if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		r.logger.WarnContext(ctx, "migration lock still held", slog.Duration("waited", r.lockWaitTimeout))

		return nil, &LockContentionError{Err: fmt.Errorf("%w after %s", database.ErrLockNotAcquired, r.lockWaitTimeout)}
	}

	return nil, fmt.Errorf("acquiring migration lock: %w", err)
}

func (r *Runner) releaseLock(ctx context.Context, lock database.Lock) {
	if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
		r.logger.WarnContext(ctx, "releasing migration lock", slog.Any("error", err))
	}
}

// failSpan records err on span and marks it failed.
func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}

func (r *Runner) fireProgress(event ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}

// prepare validates ms and returns a name-sorted copy.
func prepare(ms []migration.Migration) ([]migration.Migration, error) {
	if err := migration.ValidateSet(ms); err != nil {
		return nil, err //nolint:wrapcheck // sentinel carries the reason
	}

	return migration.Sort(ms), nil
}
