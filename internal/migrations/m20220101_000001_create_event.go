package migrations

import (
	"context"

	"github.com/thephilippbusch/tep-app/internal/migration"
	"github.com/thephilippbusch/tep-app/internal/schema"
)

// Event table and column names.
const (
	EventTable                   = "event"
	EventID                      = "id"
	EventTitle                   = "title"
	EventDescription             = "description"
	EventStatus                  = "status"
	EventCreator                 = "creator"
	EventOrganizer               = "organizer"
	EventThumbnail               = "thumbnail"
	EventDateFrom                = "date_from"
	EventDateTo                  = "date_to"
	EventIsArrivalTimeRequired   = "is_arrival_time_required"
	EventIsDepartureTimeRequired = "is_departure_time_required"
	EventCreatedAt               = "created_at"
	EventUpdatedAt               = "updated_at"
	EventDeletedAt               = "deleted_at"

	EventTitleIndex = "idx-event_title"
	EventStatusEnum = "event_status"
)

// Event status values.
const (
	EventStatusDraft     = "Draft"
	EventStatusPublished = "Published"
	EventStatusCancelled = "Cancelled"
)

// EventTableDef is the event table as created by m20220101_000001_create_event.
func EventTableDef() schema.Table {
	return schema.Table{
		Name:        EventTable,
		IfNotExists: true,
		Columns: []schema.Column{
			schema.Col(EventID, schema.Identifier()).PrimaryKey(),
			schema.Col(EventTitle, schema.Text()).NotNull(),
			schema.Col(EventDescription, schema.Text()),
			schema.Col(EventStatus, schema.Enumeration(EventStatusEnum,
				EventStatusDraft, EventStatusPublished, EventStatusCancelled)).NotNull(),
			schema.Col(EventCreator, schema.Identifier()).NotNull(),
			schema.Col(EventOrganizer, schema.Identifier()).NotNull(),
			schema.Col(EventThumbnail, schema.Text()),
			schema.Col(EventDateFrom, schema.Timestamp()).NotNull(),
			schema.Col(EventDateTo, schema.Timestamp()).NotNull(),
			schema.Col(EventIsArrivalTimeRequired, schema.Boolean()).NotNull().Default(schema.BoolDefault(true)),
			schema.Col(EventIsDepartureTimeRequired, schema.Boolean()).NotNull().Default(schema.BoolDefault(true)),
			schema.Col(EventCreatedAt, schema.Timestamp()).NotNull().Default(schema.CurrentTimestamp()),
			schema.Col(EventUpdatedAt, schema.Timestamp()).NotNull().Default(schema.CurrentTimestamp()),
			schema.Col(EventDeletedAt, schema.Timestamp()),
		},
	}
}

func eventTitleIndex() schema.Index {
	return schema.Index{
		Name:        EventTitleIndex,
		Table:       EventTable,
		Columns:     []string{EventTitle},
		IfNotExists: true,
	}
}

func createEvent() migration.Migration {
	return migration.Migration{
		Name: "m20220101_000001_create_event",
		Up: func(ctx context.Context, m *schema.Manager) error {
			return m.CreateTableWithIndexes(ctx, EventTableDef(), eventTitleIndex())
		},
		Down: func(ctx context.Context, m *schema.Manager) error {
			return m.DropTableWithIndexes(ctx, EventTable, eventTitleIndex())
		},
		Source: migration.SourceBuiltin,
	}
}
