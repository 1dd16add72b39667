package migration

import (
	"cmp"
	"slices"
)

// Sort returns a new slice of migrations sorted by Name in lexicographic order.
// The sort is stable to preserve insertion order for equal names.
func Sort(migrations []Migration) []Migration {
	sorted := slices.Clone(migrations)

	slices.SortStableFunc(sorted, func(a, b Migration) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return sorted
}

// Names returns the names of ms in order.
func Names(ms []Migration) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}

	return names
}
