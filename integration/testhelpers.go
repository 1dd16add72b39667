//go:build integration

package integration

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/thephilippbusch/tep-app/internal/database"
)

const (
	postgresImage = "postgres:16-alpine"
	testDB        = "tep_test"
	testUser      = "tep"
	testPassword  = "tep"
)

// SetupPostgres starts a PostgreSQL 16 container and returns its connection URL.
// The container is terminated when the test completes.
func SetupPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDB,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return "postgres://" + testUser + ":" + testPassword + "@" + host + ":" + port.Port() + "/" + testDB + "?sslmode=disable"
}

// OpenPostgres opens a backend on url and closes it on cleanup.
func OpenPostgres(t *testing.T, url string, opts ...database.Option) *database.Postgres {
	t.Helper()

	b, err := database.Open(context.Background(), url, opts...)
	require.NoError(t, err)

	t.Cleanup(func() { _ = b.Close() })

	pg, ok := b.(*database.Postgres)
	require.True(t, ok)
	require.NoError(t, pg.Ping(context.Background()))

	return pg
}

// StartPostgres combines SetupPostgres and OpenPostgres.
func StartPostgres(t *testing.T) *database.Postgres {
	t.Helper()

	return OpenPostgres(t, SetupPostgres(t))
}

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }
