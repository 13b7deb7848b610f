package librarymodule

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/netshelf/netshelf/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestFileIndexStore_SaveReplacesIndex(t *testing.T) {
	db := setupTestDB(t)
	store := NewFileIndexStore(db)
	ctx := context.Background()

	first := []database.LibraryFile{
		{Path: "a.mkv", Name: "a.mkv", Size: 1, Status: database.FileStatusAvailable, LastSeenAt: time.Now()},
		{Path: "b.mkv", Name: "b.mkv", Size: 2, Status: database.FileStatusAvailable, LastSeenAt: time.Now()},
	}
	require.NoError(t, store.Save(ctx, "f1", first))

	loaded, err := store.Load(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "a.mkv", loaded[0].Path)
	assert.NotEmpty(t, loaded[0].ID)
	assert.Equal(t, "f1", loaded[0].FolderID)

	// A second save fully replaces the previous index.
	second := []database.LibraryFile{
		{Path: "c.mkv", Name: "c.mkv", Size: 3, Status: database.FileStatusAvailable, LastSeenAt: time.Now()},
	}
	require.NoError(t, store.Save(ctx, "f1", second))

	loaded, err = store.Load(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "c.mkv", loaded[0].Path)
}

func TestFileIndexStore_SaveEmptyClearsIndex(t *testing.T) {
	db := setupTestDB(t)
	store := NewFileIndexStore(db)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "f1", []database.LibraryFile{
		{Path: "a.mkv", Name: "a.mkv", Status: database.FileStatusAvailable, LastSeenAt: time.Now()},
	}))
	require.NoError(t, store.Save(ctx, "f1", nil))

	loaded, err := store.Load(ctx, "f1")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestFileIndexStore_LoadUnknownFolderIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	store := NewFileIndexStore(db)

	loaded, err := store.Load(context.Background(), "never-scanned")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestFileIndexStore_IndexesAreIsolatedPerFolder(t *testing.T) {
	db := setupTestDB(t)
	store := NewFileIndexStore(db)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "f1", []database.LibraryFile{
		{Path: "one.mkv", Name: "one.mkv", Status: database.FileStatusAvailable, LastSeenAt: time.Now()},
	}))
	require.NoError(t, store.Save(ctx, "f2", []database.LibraryFile{
		{Path: "two.mkv", Name: "two.mkv", Status: database.FileStatusAvailable, LastSeenAt: time.Now()},
	}))

	require.NoError(t, store.Delete(ctx, "f1"))

	gone, err := store.Load(ctx, "f1")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := store.Load(ctx, "f2")
	require.NoError(t, err)
	assert.Len(t, kept, 1, "deleting one folder's index leaves others untouched")
}

// A failed write must surface and roll the transaction back, never leave a
// half-replaced index behind.
func TestFileIndexStore_SaveFailureRollsBack(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "library_files"`).
		WithArgs("f1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "library_files"`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	store := NewFileIndexStore(db)
	saveErr := store.Save(context.Background(), "f1", []database.LibraryFile{
		{Path: "a.mkv", Name: "a.mkv", Status: database.FileStatusAvailable, LastSeenAt: time.Now()},
	})

	require.Error(t, saveErr)
	assert.ErrorIs(t, saveErr, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
