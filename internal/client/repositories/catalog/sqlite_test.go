package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE catalog_cache (
  kind       TEXT PRIMARY KEY,
  payload    BLOB NOT NULL,
  updated_at TIMESTAMP NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestPutAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	ctx := context.Background()

	stores := []models.Store{
		{ID: "s1", Name: "Fourways", Latitude: -26.0167, Longitude: 28.1067},
		{ID: "s2", Name: "Sandton", Latitude: -26.1076, Longitude: 28.0567},
	}
	require.NoError(t, r.Put(ctx, KindStores, stores))

	var got []models.Store
	found, updatedAt, err := r.Get(ctx, KindStores, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, fixed.Equal(updatedAt))
	assert.Equal(t, stores, got)
}

func TestGet_Missing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	var got []models.Tier
	found, _, err := r.Get(context.Background(), KindTiers, &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestPut_Overwrites(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, KindTiers, []models.Tier{{ID: "old"}}))
	require.NoError(t, r.Put(ctx, KindTiers, []models.Tier{{ID: "new"}}))

	var got []models.Tier
	_, _, err := r.Get(ctx, KindTiers, &got)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, KindRewards, []models.Reward{{ID: "r"}}))
	require.NoError(t, r.Clear(ctx))

	var got []models.Reward
	found, _, err := r.Get(ctx, KindRewards, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.ErrorContains(t, r.Put(ctx, KindStores, func() {}), "failed to encode stores")

	require.NoError(t, db.Close())
	require.ErrorContains(t, r.Put(ctx, KindStores, []int{1}), "failed to cache stores")
	_, _, err := r.Get(ctx, KindStores, &[]int{})
	require.ErrorContains(t, err, "failed to read cached stores")
	require.ErrorContains(t, r.Clear(ctx), "failed to clear catalog cache")
}

func TestGet_CorruptPayload(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO catalog_cache(kind, payload, updated_at) VALUES ('stores', 'not json', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	var got []models.Store
	found, _, err := r.Get(ctx, KindStores, &got)
	require.ErrorContains(t, err, "failed to decode cached stores")
	assert.False(t, found)
}
