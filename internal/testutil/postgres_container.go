//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const containerCleanupTimeout = 30 * time.Second

// SetupPostgresContainer starts a disposable PostgreSQL, applies the embedded
// schema and returns the pool with a cleanup that closes it and removes the
// container. The test is skipped when no container runtime is reachable.
//
//	db, cleanup := testutil.SetupPostgresContainer(t, log)
//	defer cleanup()
func SetupPostgresContainer(t *testing.T, log *logger.Logger) (*postgres.DB, func()) {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration tests")
	}
	defer provider.Close()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("zerodue_test"),
		tcpostgres.WithUsername("zerodue"),
		tcpostgres.WithPassword("zerodue_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, conn.PingContext(ctx))

	db := postgres.NewFromSQLX(conn, log)
	require.NoError(t, db.Migrate(ctx), "failed to apply schema")

	cleanup := func() {
		db.Close()

		// the test context may already be cancelled at this point
		cleanupCtx, cancel := context.WithTimeout(context.Background(), containerCleanupTimeout)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}
	return db, cleanup
}

// TruncateAll empties every table so each test starts from a clean schema
func TruncateAll(t *testing.T, db *postgres.DB) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"TRUNCATE credit_purchases, invoice_sequences, invoices, businesses CASCADE")
	require.NoError(t, err)
}
