package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evmap/backend/libs/db"
	"evmap/backend/services/stations-service/internal/models"
)

const testDSNEnv = "TEST_DATABASE_DSN"

// openTestDB connects to TEST_DATABASE_DSN and confines the test to a fresh
// schema that is dropped afterwards.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", testDSNEnv)
	}

	ctx := context.Background()
	conn, err := db.NewPostgresDB(ctx, dsn)
	require.NoError(t, err)
	// One connection so search_path sticks.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	schemaName := fmt.Sprintf("refresh_repo_test_%d", time.Now().UnixNano())
	_, err = conn.ExecContext(ctx, "CREATE SCHEMA "+schemaName)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, "SET search_path TO "+schemaName)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = conn.ExecContext(context.Background(), "DROP SCHEMA "+schemaName+" CASCADE")
		_ = conn.Close()
	})
	return conn
}

func TestRefreshRepositoryRecordAndRecent(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRefreshRepository(conn)
	ctx := context.Background()

	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx), "schema creation is idempotent")

	base := time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC)
	runs := []models.RefreshRun{
		{
			Trigger:    "scheduled",
			StartedAt:  base,
			FinishedAt: base.Add(3 * time.Second),
			Success:    true,
			Stats: map[string]models.VendorStats{
				"teamEnergy": {Stations: 3, Skipped: 1},
				"evanCharge": {Stations: 2},
			},
			Failures: map[string]string{},
		},
		{
			Trigger:    "manual",
			StartedAt:  base.Add(time.Hour),
			FinishedAt: base.Add(time.Hour + time.Second),
			Success:    true,
			Stats:      map[string]models.VendorStats{"evanCharge": {Stations: 2}},
			Failures:   map[string]string{"teamEnergy": "Team Energy login: status 401"},
		},
		{
			Trigger:    "cli",
			StartedAt:  base.Add(2 * time.Hour),
			FinishedAt: base.Add(2*time.Hour + time.Second),
			Success:    false,
			Stats:      map[string]models.VendorStats{},
			Failures:   map[string]string{"teamEnergy": "down", "evanCharge": "down"},
		},
	}
	for i := range runs {
		require.NoError(t, repo.Record(ctx, &runs[i]))
		assert.NotZero(t, runs[i].ID)
	}
	assert.Less(t, runs[0].ID, runs[1].ID)

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "cli", recent[0].Trigger)
	assert.Equal(t, "manual", recent[1].Trigger)

	got := recent[1]
	assert.Equal(t, runs[1].ID, got.ID)
	assert.True(t, got.Success)
	assert.True(t, runs[1].StartedAt.Equal(got.StartedAt))
	assert.True(t, runs[1].FinishedAt.Equal(got.FinishedAt))
	assert.Equal(t, runs[1].Stats, got.Stats)
	assert.Equal(t, runs[1].Failures, got.Failures)

	all, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, runs[0].Stats, all[2].Stats)
	assert.False(t, all[0].Success)
	assert.Len(t, all[0].Failures, 2)
}

func TestRefreshRepositoryRecentOnEmptyTable(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRefreshRepository(conn)
	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))

	runs, err := repo.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
