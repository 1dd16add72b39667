package runner

import (
	"context"
	"iter"
	"time"

	"github.com/thephilippbusch/tep-app/internal/migration"
)

// Entry is one line of migration status.
type Entry struct {
	Name      string
	Applied   bool
	AppliedAt time.Time // zero when not applied
}

// Status reports, in migration order, whether each migration is applied.
// Records are read once up front; the returned sequence is lazy and has no
// side effects. A missing bookkeeping table means nothing is applied.
func (r *Runner) Status(ctx context.Context, ms []migration.Migration) (iter.Seq[Entry], error) {
	sorted, err := prepare(ms)
	if err != nil {
		return nil, err
	}

	records, err := r.readRecords(ctx)
	if err != nil {
		return nil, err
	}

	appliedAt := make(map[string]time.Time, len(records))
	for _, rec := range records {
		appliedAt[rec.Name] = rec.AppliedAt
	}

	return func(yield func(Entry) bool) {
		for _, m := range sorted {
			at, ok := appliedAt[m.Name]
			if !yield(Entry{Name: m.Name, Applied: ok, AppliedAt: at}) {
				return
			}
		}
	}, nil
}
