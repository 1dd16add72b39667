package migrations

import (
	"context"

	"github.com/thephilippbusch/tep-app/internal/migration"
	"github.com/thephilippbusch/tep-app/internal/schema"
)

// Venue table and column names.
const (
	VenueTable       = "venue"
	VenueID          = "id"
	VenueTitle       = "title"
	VenueDescription = "description"
	VenueHost        = "host"
	VenueCoHosts     = "co_hosts"
	VenueIsExternal  = "is_external"
	VenueStreet      = "street"
	VenueCity        = "city"
	VenuePostal      = "postal"
	VenueState       = "state"
	VenueCountry     = "country"
	VenueCreatedAt   = "created_at"
	VenueUpdatedAt   = "updated_at"
	VenueDeletedAt   = "deleted_at" // soft-delete marker; nothing in this layer filters on it

	VenueTitleIndex = "idx-venue_title"
)

// VenueTableDef is the venue table as created by m20251223_125421_create_venue.
func VenueTableDef() schema.Table {
	return schema.Table{
		Name:        VenueTable,
		IfNotExists: true,
		Columns: []schema.Column{
			schema.Col(VenueID, schema.Identifier()).PrimaryKey(),
			schema.Col(VenueTitle, schema.Text()).NotNull(),
			schema.Col(VenueDescription, schema.Text()),
			schema.Col(VenueHost, schema.Identifier()).NotNull(),
			schema.Col(VenueCoHosts, schema.ArrayOf(schema.Identifier())).NotNull(),
			schema.Col(VenueIsExternal, schema.Boolean()).NotNull().Default(schema.BoolDefault(false)),
			schema.Col(VenueStreet, schema.Text()).NotNull(),
			schema.Col(VenueCity, schema.Text()).NotNull(),
			schema.Col(VenuePostal, schema.Text()).NotNull(),
			schema.Col(VenueState, schema.Text()).NotNull(),
			schema.Col(VenueCountry, schema.Text()).NotNull(),
			schema.Col(VenueCreatedAt, schema.Timestamp()).NotNull().Default(schema.CurrentTimestamp()),
			schema.Col(VenueUpdatedAt, schema.Timestamp()).NotNull().Default(schema.CurrentTimestamp()),
			schema.Col(VenueDeletedAt, schema.Timestamp()),
		},
	}
}

func venueTitleIndex() schema.Index {
	return schema.Index{
		Name:        VenueTitleIndex,
		Table:       VenueTable,
		Columns:     []string{VenueTitle},
		IfNotExists: true,
	}
}

func createVenue() migration.Migration {
	return migration.Migration{
		Name: "m20251223_125421_create_venue",
		Up: func(ctx context.Context, m *schema.Manager) error {
			return m.CreateTableWithIndexes(ctx, VenueTableDef(), venueTitleIndex())
		},
		Down: func(ctx context.Context, m *schema.Manager) error {
			return m.DropTableWithIndexes(ctx, VenueTable, venueTitleIndex())
		},
		Source: migration.SourceBuiltin,
	}
}
