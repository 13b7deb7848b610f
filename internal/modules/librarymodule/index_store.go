package librarymodule

import (
	"context"
	"fmt"

	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/modules/databasemodule"
	"github.com/netshelf/netshelf/internal/utils"
	"gorm.io/gorm"
)

// FileIndexStore persists per-folder file indexes. Save replaces the whole
// index for a folder in one transaction so a crashed scan never leaves a
// half-written index behind.
type FileIndexStore struct {
	db *gorm.DB
	tm *databasemodule.TransactionManager
}

// NewFileIndexStore creates a new file index store
func NewFileIndexStore(db *gorm.DB) *FileIndexStore {
	return &FileIndexStore{
		db: db,
		tm: databasemodule.NewTransactionManager(db),
	}
}

// Load returns the stored index for a folder, ordered by path. A folder
// that has never been scanned yields an empty slice.
func (s *FileIndexStore) Load(ctx context.Context, folderID string) ([]database.LibraryFile, error) {
	var files []database.LibraryFile
	if err := s.db.WithContext(ctx).
		Where("folder_id = ?", folderID).
		Order("path").
		Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to load file index: %w", err)
	}
	return files, nil
}

// Save replaces the stored index for a folder with the given files.
func (s *FileIndexStore) Save(ctx context.Context, folderID string, files []database.LibraryFile) error {
	err := s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("folder_id = ?", folderID).Delete(&database.LibraryFile{}).Error; err != nil {
			return fmt.Errorf("failed to clear file index: %w", err)
		}

		for i := range files {
			files[i].FolderID = folderID
			if files[i].ID == "" {
				files[i].ID = utils.GenerateUUID()
			}
		}

		if len(files) == 0 {
			return nil
		}
		if err := tx.Create(&files).Error; err != nil {
			return fmt.Errorf("failed to write file index: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save file index for folder %s: %w", folderID, err)
	}
	return nil
}

// Delete drops the stored index for a folder
func (s *FileIndexStore) Delete(ctx context.Context, folderID string) error {
	if err := s.db.WithContext(ctx).Where("folder_id = ?", folderID).Delete(&database.LibraryFile{}).Error; err != nil {
		return fmt.Errorf("failed to delete file index: %w", err)
	}
	return nil
}
