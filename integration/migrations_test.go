//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thephilippbusch/tep-app/internal/database"
	"github.com/thephilippbusch/tep-app/internal/migrations"
	"github.com/thephilippbusch/tep-app/internal/runner"
)

func migrated(t *testing.T) *database.Postgres {
	t.Helper()

	pg := StartPostgres(t)

	_, err := runner.New(pg).ApplyAll(context.Background(), migrations.All())
	require.NoError(t, err)

	return pg
}

func indexExists(t *testing.T, pg *database.Postgres, name string) bool {
	t.Helper()

	var n int

	err := pg.Pool().QueryRow(context.Background(),
		`SELECT COUNT(*) FROM pg_indexes WHERE indexname = $1`, name).Scan(&n)
	require.NoError(t, err)

	return n > 0
}

func TestVenue_postgres(t *testing.T) {
	t.Parallel()

	pg := migrated(t)
	ctx := context.Background()

	assert.True(t, indexExists(t, pg, migrations.VenueTitleIndex))

	insert := func(title any) error {
		return pg.Exec(ctx, fmt.Sprintf(
			`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, '{}', $4, $5, $6, $7, $8)`,
			migrations.VenueTable,
			migrations.VenueID, migrations.VenueTitle, migrations.VenueHost, migrations.VenueCoHosts,
			migrations.VenueStreet, migrations.VenueCity, migrations.VenuePostal,
			migrations.VenueState, migrations.VenueCountry),
			uuid.NewString(), title, uuid.NewString(), "Main St 1", "Berlin", "10115", "BE", "DE")
	}

	require.NoError(t, insert("Kulturhaus"))

	err := insert(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-null constraint")

	var (
		isExternal bool
		createdAt  time.Time
		deletedAt  *time.Time
	)

	err = pg.Pool().QueryRow(ctx, fmt.Sprintf(`SELECT %s, %s, %s FROM %s`,
		migrations.VenueIsExternal, migrations.VenueCreatedAt, migrations.VenueDeletedAt, migrations.VenueTable),
	).Scan(&isExternal, &createdAt, &deletedAt)
	require.NoError(t, err)
	assert.False(t, isExternal)
	assert.False(t, createdAt.IsZero())
	assert.Nil(t, deletedAt)
}

func TestEvent_postgres(t *testing.T) {
	t.Parallel()

	pg := migrated(t)
	ctx := context.Background()

	assert.True(t, indexExists(t, pg, migrations.EventTitleIndex))

	from := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

	insert := func(status string) error {
		return pg.Exec(ctx, fmt.Sprintf(
			`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			migrations.EventTable,
			migrations.EventID, migrations.EventTitle, migrations.EventStatus,
			migrations.EventCreator, migrations.EventOrganizer,
			migrations.EventDateFrom, migrations.EventDateTo),
			uuid.NewString(), "Summer party", status, uuid.NewString(), uuid.NewString(), from, from.Add(5*time.Hour))
	}

	require.NoError(t, insert(migrations.EventStatusPublished))

	err := insert("Archived")
	require.Error(t, err)
	assert.Contains(t, err.Error(), migrations.EventStatusEnum)
}
