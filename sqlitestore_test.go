package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "records.db"), NewTimestamper())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, "article", "bob", Record{"title": "A", "unread": true})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID())

	got, err := store.Get(ctx, "article", "bob", rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "A", got["title"])
	assert.Equal(t, rec.LastModified(), got.LastModified())
	// stamps survive the JSON round trip as integers
	assert.IsType(t, int64(0), got[FieldAddedOn])
}

func TestSQLiteStoreOwnershipHidesExistence(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, "article", "bob", Record{"title": "A"})
	require.NoError(t, err)

	_, err = store.Get(ctx, "article", "alice", rec.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Update(ctx, "article", "alice", rec.ID(), Record{"title": "B"}, UpdateModePartial)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Delete(ctx, "article", "alice", rec.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreUpdateAndDelete(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, "article", "bob", Record{"title": "A", "excerpt": "old"})
	require.NoError(t, err)

	updated, err := store.Update(ctx, "article", "bob", rec.ID(), Record{"title": "B"}, UpdateModePartial)
	require.NoError(t, err)
	assert.Equal(t, "B", updated["title"])
	assert.Equal(t, "old", updated["excerpt"])
	assert.Greater(t, updated.LastModified(), rec.LastModified())

	replaced, err := store.Update(ctx, "article", "bob", rec.ID(), Record{"title": "C"}, UpdateModeFull)
	require.NoError(t, err)
	assert.NotContains(t, replaced, "excerpt")

	deleted, err := store.Delete(ctx, "article", "bob", rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "C", deleted["title"])

	_, err = store.Delete(ctx, "article", "bob", rec.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreListFiltersAndOrders(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "article", "bob", Record{"title": "A", "unread": true})
	require.NoError(t, err)
	_, err = store.Create(ctx, "article", "bob", Record{"title": "B", "unread": false})
	require.NoError(t, err)
	_, err = store.Create(ctx, "article", "alice", Record{"title": "C"})
	require.NoError(t, err)

	records, err := store.List(ctx, "article", "bob", nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Less(t, records[0].ID(), records[1].ID())

	records, err = store.List(ctx, "article", "bob", map[string]any{"unread": true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0]["title"])
}
