package archive_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stocktide/stockwatch/pkg/archive"
	"github.com/stocktide/stockwatch/pkg/model"
)

func newTestStore(t *testing.T) (*archive.DirStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "archive")
	store, err := archive.NewDirStore(dir, "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func TestNewDirStore_CreatesLayout(t *testing.T) {
	_, dir := newTestStore(t)

	info, err := os.Stat(filepath.Join(dir, "reports"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(dir, "runs.db"))
	assert.NoError(t, err)
}

func TestDirStore_SaveSnapshot_Overwrites(t *testing.T) {
	store, dir := newTestStore(t)

	path, err := store.SaveSnapshot([]byte(`[{"title":"A"}]`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "full_inventory.json"), path)

	path, err = store.SaveSnapshot([]byte(`[{"title":"B"}]`))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"B"}]`, string(data))
}

func TestDirStore_SaveSnapshot_CustomName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	store, err := archive.NewDirStore(dir, "data.json")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	path, err := store.SaveSnapshot([]byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data.json"), path)
}

func TestDirStore_SaveReport(t *testing.T) {
	store, dir := newTestStore(t)

	path, err := store.SaveReport("inventory_alerts_2026-08-25.csv", []byte("Site,Part Name\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reports", "inventory_alerts_2026-08-25.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Site,Part Name\n", string(data))
}

func TestDirStore_RecordRun_FillsIDAndStart(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	run := &model.Run{
		Site:           "Sheffield",
		RecordsFetched: 12,
		AlertSites:     "Leeds, Sheffield",
		ReportRows:     3,
		Delivered:      true,
	}
	require.NoError(t, store.RecordRun(ctx, run))

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())

	runs, err := store.ListRuns(ctx, archive.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Sheffield", runs[0].Site)
	assert.Equal(t, 12, runs[0].RecordsFetched)
	assert.Equal(t, "Leeds, Sheffield", runs[0].AlertSites)
	assert.True(t, runs[0].Delivered)
}

func TestDirStore_ListRuns(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.August, 20, 6, 0, 0, 0, time.UTC)
	seed := []model.Run{
		{Site: "Sheffield", StartedAt: base, ReportRows: 5},
		{Site: "Leeds", StartedAt: base.Add(24 * time.Hour), ReportRows: 2},
		{Site: "Sheffield", StartedAt: base.Add(48 * time.Hour), ReportRows: 0},
	}
	for i := range seed {
		require.NoError(t, store.RecordRun(ctx, &seed[i]))
	}

	t.Run("newest first", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, archive.RunFilter{})
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, 0, runs[0].ReportRows)
		assert.Equal(t, 5, runs[2].ReportRows)
	})

	t.Run("filter by site", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, archive.RunFilter{Site: "Leeds"})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "Leeds", runs[0].Site)
	})

	t.Run("since", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, archive.RunFilter{Since: base.Add(12 * time.Hour)})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("limit", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, archive.RunFilter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, 0, runs[0].ReportRows)
	})
}

func TestDirStore_MigrationIdempotency(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")

	store, err := archive.NewDirStore(dir, "")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = archive.NewDirStore(dir, "")
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
