package scanner

import (
	"testing"
	"time"

	"github.com/netshelf/netshelf/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestReconcile_NewFileIntoEmptyIndex(t *testing.T) {
	now := time.Now()
	discovered := []DiscoveredFile{
		{Path: "new_movie.mkv", Name: "new_movie.mkv", Size: 1000000},
	}

	result := Reconcile("folder-1", nil, discovered, now)

	require.Len(t, result.Merged, 1)
	assert.Equal(t, 1, result.NewFiles)
	assert.Equal(t, 0, result.RemovedFiles)
	assert.Empty(t, result.Removed)

	entry := result.Merged[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "folder-1", entry.FolderID)
	assert.Equal(t, "new_movie.mkv", entry.Path)
	assert.Equal(t, int64(1000000), entry.Size)
	assert.Equal(t, database.FileStatusAvailable, entry.Status)
	assert.Equal(t, now, entry.LastSeenAt)
}

func TestReconcile_RemovedFileDroppedFromIndex(t *testing.T) {
	now := time.Now()
	previous := []database.LibraryFile{
		{ID: "f1", FolderID: "folder-1", Path: "old_movie.mkv", Name: "old_movie.mkv", Size: 500, Status: database.FileStatusAvailable},
	}

	result := Reconcile("folder-1", previous, nil, now)

	assert.Empty(t, result.Merged)
	assert.Equal(t, 0, result.NewFiles)
	assert.Equal(t, 1, result.RemovedFiles)
	require.Len(t, result.Removed, 1)
	assert.Equal(t, "old_movie.mkv", result.Removed[0].Path)
	assert.Equal(t, database.FileStatusMissing, result.Removed[0].Status)
}

func TestReconcile_StillPresentKeepsIdentityAndRefreshesMetadata(t *testing.T) {
	seen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	modified := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	previous := []database.LibraryFile{
		{ID: "f1", FolderID: "folder-1", Path: "show/ep1.mkv", Name: "ep1.mkv", Size: 100, Status: database.FileStatusAvailable, LastSeenAt: seen},
	}
	discovered := []DiscoveredFile{
		{Path: "show/ep1.mkv", Name: "ep1.mkv", Size: 250, ModifiedAt: timePtr(modified)},
	}

	result := Reconcile("folder-1", previous, discovered, now)

	require.Len(t, result.Merged, 1)
	assert.Equal(t, 0, result.NewFiles)
	assert.Equal(t, 0, result.RemovedFiles)

	entry := result.Merged[0]
	assert.Equal(t, "f1", entry.ID, "a still-present file keeps its identity")
	assert.Equal(t, int64(250), entry.Size, "size is refreshed from the new observation")
	require.NotNil(t, entry.ModifiedAt)
	assert.Equal(t, modified, *entry.ModifiedAt)
	assert.Equal(t, now, entry.LastSeenAt)
}

func TestReconcile_Idempotence(t *testing.T) {
	now := time.Now()
	discovered := []DiscoveredFile{
		{Path: "a.mkv", Name: "a.mkv", Size: 1},
		{Path: "sub/b.mp4", Name: "b.mp4", Size: 2},
	}

	first := Reconcile("folder-1", nil, discovered, now)
	require.Equal(t, 2, first.NewFiles)

	second := Reconcile("folder-1", first.Merged, discovered, now.Add(time.Minute))

	assert.Equal(t, 0, second.NewFiles)
	assert.Equal(t, 0, second.RemovedFiles)
	require.Len(t, second.Merged, 2)
	for i := range second.Merged {
		assert.Equal(t, first.Merged[i].ID, second.Merged[i].ID)
		assert.Equal(t, first.Merged[i].Path, second.Merged[i].Path)
		assert.Equal(t, first.Merged[i].Size, second.Merged[i].Size)
	}
}

func TestReconcile_MixedAddAndRemove(t *testing.T) {
	now := time.Now()
	previous := []database.LibraryFile{
		{ID: "keep", FolderID: "folder-1", Path: "keep.mkv", Name: "keep.mkv", Status: database.FileStatusAvailable},
		{ID: "gone", FolderID: "folder-1", Path: "gone.mkv", Name: "gone.mkv", Status: database.FileStatusAvailable},
	}
	discovered := []DiscoveredFile{
		{Path: "keep.mkv", Name: "keep.mkv"},
		{Path: "fresh.mkv", Name: "fresh.mkv"},
	}

	result := Reconcile("folder-1", previous, discovered, now)

	assert.Equal(t, 1, result.NewFiles)
	assert.Equal(t, 1, result.RemovedFiles)
	require.Len(t, result.Merged, 2)

	paths := []string{result.Merged[0].Path, result.Merged[1].Path}
	assert.Contains(t, paths, "keep.mkv")
	assert.Contains(t, paths, "fresh.mkv")
	require.Len(t, result.Removed, 1)
	assert.Equal(t, "gone.mkv", result.Removed[0].Path)
}

func TestReconcile_DuplicateDiscoveredPathCountedOnce(t *testing.T) {
	now := time.Now()
	discovered := []DiscoveredFile{
		{Path: "dup.mkv", Name: "dup.mkv", Size: 1},
		{Path: "dup.mkv", Name: "dup.mkv", Size: 1},
	}

	result := Reconcile("folder-1", nil, discovered, now)

	assert.Equal(t, 1, result.NewFiles)
	assert.Len(t, result.Merged, 1)
}
