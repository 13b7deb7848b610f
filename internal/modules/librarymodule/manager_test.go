package librarymodule

import (
	"context"
	"testing"
	"time"

	"github.com/netshelf/netshelf/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedShare(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, db.Create(&database.NetworkShare{
		ID:        id,
		Name:      "share-" + id,
		Host:      "nas.local",
		ShareName: id,
	}).Error)
}

func TestManager_CreateFolder(t *testing.T) {
	db := setupTestDB(t)
	seedShare(t, db, "s1")
	manager := NewManager(db, nil)

	folder := &database.LibraryFolder{
		ShareID: "s1",
		Path:    "Movies",
		Type:    database.FolderTypeMovies,
		Name:    "Movies",
	}
	require.NoError(t, manager.CreateFolder(context.Background(), folder))
	assert.NotEmpty(t, folder.ID)

	loaded, err := manager.GetFolder(context.Background(), folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "Movies", loaded.Path)
	assert.Equal(t, database.FolderTypeMovies, loaded.Type)
}

func TestManager_CreateFolderValidation(t *testing.T) {
	db := setupTestDB(t)
	seedShare(t, db, "s1")
	manager := NewManager(db, nil)

	err := manager.CreateFolder(context.Background(), &database.LibraryFolder{
		ShareID: "s1", Path: "x", Type: "bogus", Name: "x",
	})
	assert.ErrorContains(t, err, "invalid folder type")

	err = manager.CreateFolder(context.Background(), &database.LibraryFolder{
		ShareID: "missing", Path: "x", Type: database.FolderTypeOther, Name: "x",
	})
	assert.ErrorContains(t, err, "share not found")
}

func TestManager_CreateFolderRejectsDuplicatePath(t *testing.T) {
	db := setupTestDB(t)
	seedShare(t, db, "s1")
	manager := NewManager(db, nil)

	first := &database.LibraryFolder{ShareID: "s1", Path: "Movies", Type: database.FolderTypeMovies, Name: "Movies"}
	require.NoError(t, manager.CreateFolder(context.Background(), first))

	dup := &database.LibraryFolder{ShareID: "s1", Path: "Movies", Type: database.FolderTypeMovies, Name: "Movies again"}
	err := manager.CreateFolder(context.Background(), dup)
	assert.ErrorIs(t, err, ErrFolderExists)

	// The same path on a different share is fine.
	seedShare(t, db, "s2")
	other := &database.LibraryFolder{ShareID: "s2", Path: "Movies", Type: database.FolderTypeMovies, Name: "Movies"}
	assert.NoError(t, manager.CreateFolder(context.Background(), other))
}

func TestManager_RenameFolder(t *testing.T) {
	db := setupTestDB(t)
	seedShare(t, db, "s1")
	manager := NewManager(db, nil)

	folder := &database.LibraryFolder{ShareID: "s1", Path: "TV", Type: database.FolderTypeTV, Name: "TV"}
	require.NoError(t, manager.CreateFolder(context.Background(), folder))

	require.NoError(t, manager.RenameFolder(context.Background(), folder.ID, "Television"))

	loaded, err := manager.GetFolder(context.Background(), folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "Television", loaded.Name)
	assert.Equal(t, "TV", loaded.Path, "rename never changes the path")

	err = manager.RenameFolder(context.Background(), "nope", "x")
	assert.ErrorIs(t, err, ErrFolderNotFound)
}

func TestManager_DeleteFolderCascadesToIndex(t *testing.T) {
	db := setupTestDB(t)
	seedShare(t, db, "s1")
	manager := NewManager(db, nil)
	store := NewFileIndexStore(db)

	folder := &database.LibraryFolder{ShareID: "s1", Path: "Movies", Type: database.FolderTypeMovies, Name: "Movies"}
	require.NoError(t, manager.CreateFolder(context.Background(), folder))
	require.NoError(t, store.Save(context.Background(), folder.ID, []database.LibraryFile{
		{Path: "a.mkv", Name: "a.mkv", Status: database.FileStatusAvailable, LastSeenAt: time.Now()},
	}))

	require.NoError(t, manager.DeleteFolder(context.Background(), folder.ID))

	_, err := manager.GetFolder(context.Background(), folder.ID)
	assert.ErrorIs(t, err, ErrFolderNotFound)

	files, err := store.Load(context.Background(), folder.ID)
	require.NoError(t, err)
	assert.Empty(t, files, "deleting a folder drops its file index")
}

func TestManager_RecordScanResults(t *testing.T) {
	db := setupTestDB(t)
	seedShare(t, db, "s1")
	manager := NewManager(db, nil)

	folder := &database.LibraryFolder{ShareID: "s1", Path: "Movies", Type: database.FolderTypeMovies, Name: "Movies"}
	require.NoError(t, manager.CreateFolder(context.Background(), folder))

	scannedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, manager.RecordScanSuccess(context.Background(), folder.ID, 7, scannedAt))

	loaded, err := manager.GetFolder(context.Background(), folder.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.VideoCount)
	require.NotNil(t, loaded.LastScannedAt)
	assert.Empty(t, loaded.LastScanError)

	require.NoError(t, manager.RecordScanFailure(context.Background(), folder.ID, assert.AnError))

	loaded, err = manager.GetFolder(context.Background(), folder.ID)
	require.NoError(t, err)
	assert.Equal(t, assert.AnError.Error(), loaded.LastScanError)
	assert.Equal(t, 7, loaded.VideoCount, "a failed scan keeps the last good count")
}

func TestManager_ListFoldersByShare(t *testing.T) {
	db := setupTestDB(t)
	seedShare(t, db, "s1")
	seedShare(t, db, "s2")
	manager := NewManager(db, nil)

	for _, f := range []*database.LibraryFolder{
		{ShareID: "s1", Path: "Movies", Type: database.FolderTypeMovies, Name: "Movies"},
		{ShareID: "s1", Path: "TV", Type: database.FolderTypeTV, Name: "TV"},
		{ShareID: "s2", Path: "Movies", Type: database.FolderTypeMovies, Name: "Movies"},
	} {
		require.NoError(t, manager.CreateFolder(context.Background(), f))
	}

	all, err := manager.ListFolders(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	s1, err := manager.ListFoldersByShare(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, s1, 2)
}
