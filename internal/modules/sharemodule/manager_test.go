package sharemodule

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/smb"
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

func newTestManager(t *testing.T) (*Manager, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewManager(db, nil, smb.NewLocalConnector()), db
}

func localShare(t *testing.T) *database.NetworkShare {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "movie.mkv"), []byte("x"), 0o644))
	return &database.NetworkShare{
		Name:      "nas",
		Host:      "nas.local",
		ShareName: "media",
		LocalPath: dir,
	}
}

func TestManager_CreateAndGetShare(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	share := localShare(t)
	require.NoError(t, manager.CreateShare(ctx, share))
	assert.NotEmpty(t, share.ID)

	loaded, err := manager.GetShare(ctx, share.ID)
	require.NoError(t, err)
	assert.Equal(t, "nas", loaded.Name)

	// A new share has never been checked.
	assert.Equal(t, smb.StateUnknown, manager.Status(share.ID).State)
}

func TestManager_GetShareNotFound(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.GetShare(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrShareNotFound)
}

func TestManager_UpdateShareResetsStatus(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	share := localShare(t)
	require.NoError(t, manager.CreateShare(ctx, share))

	_, err := manager.CheckShare(ctx, share.ID)
	require.NoError(t, err)
	require.Equal(t, smb.StateOnline, manager.Status(share.ID).State)

	require.NoError(t, manager.UpdateShare(ctx, share.ID, map[string]interface{}{"host": "other.local"}))
	assert.Equal(t, smb.StateUnknown, manager.Status(share.ID).State, "changed connection details invalidate cached health")
}

func TestManager_DeleteShareCascades(t *testing.T) {
	manager, db := newTestManager(t)
	ctx := context.Background()

	share := localShare(t)
	require.NoError(t, manager.CreateShare(ctx, share))

	folder := &database.LibraryFolder{
		ID: "f1", ShareID: share.ID, Path: "Movies",
		Type: database.FolderTypeMovies, Name: "Movies",
	}
	require.NoError(t, db.Create(folder).Error)
	require.NoError(t, db.Create(&database.LibraryFile{
		ID: "file1", FolderID: "f1", Path: "a.mkv", Name: "a.mkv",
		Status: database.FileStatusAvailable, LastSeenAt: time.Now(),
	}).Error)

	require.NoError(t, manager.DeleteShare(ctx, share.ID))

	var folderCount, fileCount int64
	require.NoError(t, db.Model(&database.LibraryFolder{}).Count(&folderCount).Error)
	require.NoError(t, db.Model(&database.LibraryFile{}).Count(&fileCount).Error)
	assert.Zero(t, folderCount, "folders on a deleted share are removed")
	assert.Zero(t, fileCount, "file indexes of those folders are removed")
}

func TestManager_ConnectTracksStatus(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	share := localShare(t)
	require.NoError(t, manager.CreateShare(ctx, share))

	session, err := manager.Connect(ctx, share.ID)
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, smb.StateOnline, manager.Status(share.ID).State)

	entries, err := session.ListDirectory(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "movie.mkv", entries[0].Name)
}

func TestManager_ConnectFailureMarksOffline(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	share := &database.NetworkShare{
		Name: "broken", Host: "nas.local", ShareName: "media",
		LocalPath: "/does/not/exist",
	}
	require.NoError(t, manager.CreateShare(ctx, share))

	_, err := manager.Connect(ctx, share.ID)
	require.Error(t, err)

	status := manager.Status(share.ID)
	assert.Equal(t, smb.StateOffline, status.State)
	assert.NotEmpty(t, status.Reason)
}

func TestManager_ConnectUnknownShare(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.Connect(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrShareNotFound)
}

func TestManager_SetStatus(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	share := localShare(t)
	require.NoError(t, manager.CreateShare(ctx, share))

	require.NoError(t, manager.SetStatus(ctx, share.ID, smb.ShareStatus{
		State:  smb.StateOffline,
		Reason: "maintenance window",
	}))

	status := manager.Status(share.ID)
	assert.Equal(t, smb.StateOffline, status.State)
	assert.Equal(t, "maintenance window", status.Reason)

	assert.ErrorIs(t, manager.SetStatus(ctx, "ghost", smb.ShareStatus{State: smb.StateOnline}), ErrShareNotFound)
}

func TestManager_CheckShare(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	share := localShare(t)
	require.NoError(t, manager.CreateShare(ctx, share))

	status, err := manager.CheckShare(ctx, share.ID)
	require.NoError(t, err)
	assert.Equal(t, smb.StateOnline, status.State)
	assert.True(t, status.Online())
}
