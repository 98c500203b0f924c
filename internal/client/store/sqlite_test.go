package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/openfield/expensesync/internal/client/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(context.Background(), db))
	return db
}

func draft(project string, amount string) *models.Draft {
	return &models.Draft{
		ProjectID:   project,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "USD",
		VendorName:  "vendor",
		Category:    "fuel",
		ExpenseDate: "2024-04-01",
		ImageBase64: "aGVsbG8=",
		ImageMime:   "image/jpeg",
	}
}

func TestEnqueue_AssignsIDAndStampsMeta(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	d := draft("p1", "10.50")
	id, err := r.Enqueue(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, id, d.ID)
	assert.False(t, d.CreatedAt.IsZero())
	assert.Equal(t, 0, d.RetryCount)

	id2, err := r.Enqueue(ctx, draft("p1", "3"))
	require.NoError(t, err)
	assert.Greater(t, id2, id)
}

func TestListPending_OldestFirst(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, amount := range []string{"1", "2", "3"} {
		_, err := r.Enqueue(ctx, draft("p1", amount))
		require.NoError(t, err)
	}

	pending, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.True(t, pending[0].Amount.Equal(decimal.RequireFromString("1")))
	assert.True(t, pending[2].Amount.Equal(decimal.RequireFromString("3")))
	assert.True(t, pending[0].ID < pending[1].ID && pending[1].ID < pending[2].ID)
}

func TestRemove(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	id, err := r.Enqueue(ctx, draft("p1", "5"))
	require.NoError(t, err)

	require.NoError(t, r.Remove(ctx, id))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// removing an absent draft reports the wrong row count
	require.Error(t, r.Remove(ctx, id))
}

func TestRecordFailure_IncrementsAndOverwrites(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	id, err := r.Enqueue(ctx, draft("p1", "5"))
	require.NoError(t, err)

	require.NoError(t, r.RecordFailure(ctx, id, "upload timed out"))
	require.NoError(t, r.RecordFailure(ctx, id, "insert refused"))

	pending, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)
	assert.Equal(t, "insert refused", pending[0].LastError)
	// descriptive fields untouched
	assert.Equal(t, "p1", pending[0].ProjectID)
	assert.True(t, pending[0].Amount.Equal(decimal.RequireFromString("5")))
}

func TestDurability_AcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.db")

	repo, db, err := InitDatabase(ctx, path)
	require.NoError(t, err)

	const n = 5
	for i := 0; i < n; i++ {
		_, err := repo.Enqueue(ctx, draft("p1", "1"))
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	// simulate a restart: fresh connection, same file
	repo2, db2, err := InitDatabase(ctx, path)
	require.NoError(t, err)
	defer db2.Close()

	pending, err := repo2.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, n)
	for i := 1; i < n; i++ {
		assert.Greater(t, pending[i].ID, pending[i-1].ID)
	}
}
