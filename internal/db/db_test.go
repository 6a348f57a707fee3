package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB connects using TEST_DATABASE_URL, skipping when unset.
func testDB(t *testing.T) *DB {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database integration test")
	}

	database, err := Connect(context.Background(), databaseURL)
	require.NoError(t, err)
	t.Cleanup(database.Close)
	return database
}

func TestConnect_InvalidURL(t *testing.T) {
	database, err := Connect(context.Background(), "not-a-url")
	assert.Error(t, err)
	assert.Nil(t, database)
}

func TestRunLifecycle(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	runID, err := database.CreateRun(ctx, "/data/export.bacpac")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, runID)

	run, err := database.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Equal(t, "/data/export.bacpac", run.Archive)
	assert.Nil(t, run.CompletedAt)

	err = database.CompleteRun(ctx, runID, StatusCompleted, true, "ABCD", "rewrote archive (removed 2 elements)")
	require.NoError(t, err)

	run, err = database.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.True(t, run.Changed)
	assert.Equal(t, "ABCD", run.ModelHash)
	assert.NotNil(t, run.CompletedAt)
}

func TestGetRun_NotFound(t *testing.T) {
	database := testDB(t)

	run, err := database.GetRun(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, run)
}

func TestListRuns(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	_, err := database.CreateRun(ctx, "/data/a.bacpac")
	require.NoError(t, err)
	_, err = database.CreateRun(ctx, "/data/b.bacpac")
	require.NoError(t, err)

	runs, err := database.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(runs), 2)
}
