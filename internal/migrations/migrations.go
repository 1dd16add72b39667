// Package migrations holds the schema migrations of the tep service.
package migrations

import "github.com/thephilippbusch/tep-app/internal/migration"

// All returns the built-in migrations in name order. A new schema change is
// added as a new migration here, never by editing an existing one.
func All() []migration.Migration {
	return migration.Sort([]migration.Migration{
		createEvent(),
		createVenue(),
	})
}
