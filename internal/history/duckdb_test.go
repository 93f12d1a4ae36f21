// duckdb_test.go - Tests for the DuckDB attempt log
package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/data-explorer/client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore opens a history store in a temp directory
func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.duckdb"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_StartFinishRecent(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Minute)

	require.NoError(t, store.Start(ctx, models.Attempt{
		ID: "a1", Source: "upload", Label: "sales.csv", FileName: "sales.csv",
		SizeBytes: 200, Status: models.AttemptPending, StartedAt: base,
	}))
	require.NoError(t, store.Start(ctx, models.Attempt{
		ID: "a2", Source: "stock", Label: "Stock dataset (last 1000 rows)",
		Status: models.AttemptPending, StartedAt: base.Add(time.Second),
	}))

	require.NoError(t, store.Finish(ctx, "a1", models.AttemptLoaded, 3, ""))
	require.NoError(t, store.Finish(ctx, "a2", models.AttemptFailed, 0, "parse error"))

	attempts, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	assert.Equal(t, "a2", attempts[0].ID)
	assert.Equal(t, models.AttemptFailed, attempts[0].Status)
	assert.Equal(t, "parse error", attempts[0].Reason)
	assert.Empty(t, attempts[0].FileName)
	assert.NotNil(t, attempts[0].FinishedAt)

	assert.Equal(t, "a1", attempts[1].ID)
	assert.Equal(t, models.AttemptLoaded, attempts[1].Status)
	assert.Equal(t, 3, attempts[1].ChartCount)
	assert.Equal(t, int64(200), attempts[1].SizeBytes)
	assert.Equal(t, "sales.csv", attempts[1].FileName)
}

func TestStore_RecentLimit(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Start(ctx, models.Attempt{
			ID: id, Source: "upload", Label: id, Status: models.AttemptPending,
			StartedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	attempts, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "c", attempts[0].ID)
	assert.Nil(t, attempts[0].FinishedAt)
}

func TestStore_FinishUnknown(t *testing.T) {
	store := createTestStore(t)
	err := store.Finish(context.Background(), "missing", models.AttemptLoaded, 1, "")
	assert.Error(t, err)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.duckdb")
	store, err := Open(path, 1)
	require.NoError(t, err)
	require.NoError(t, store.Start(context.Background(), models.Attempt{
		ID: "keep", Source: "upload", Label: "x.csv", Status: models.AttemptPending, StartedAt: time.Now(),
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(path, 1)
	require.NoError(t, err)
	defer reopened.Close()

	attempts, err := reopened.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "keep", attempts[0].ID)
}

func TestOpen_InMemory(t *testing.T) {
	store, err := Open("", 0)
	require.NoError(t, err)
	defer store.Close()

	attempts, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}
