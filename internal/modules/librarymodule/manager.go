package librarymodule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/events"
	"github.com/netshelf/netshelf/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrFolderNotFound is returned when a folder ID does not exist.
	ErrFolderNotFound = errors.New("library folder not found")

	// ErrFolderExists is returned when a folder with the same share and
	// path is already registered.
	ErrFolderExists = errors.New("library folder already exists")
)

// Manager handles library folder operations
type Manager struct {
	db       *gorm.DB
	eventBus events.EventBus
}

// NewManager creates a new library manager
func NewManager(db *gorm.DB, eventBus events.EventBus) *Manager {
	return &Manager{
		db:       db,
		eventBus: eventBus,
	}
}

// GetFolder retrieves a folder by ID
func (m *Manager) GetFolder(ctx context.Context, id string) (*database.LibraryFolder, error) {
	var folder database.LibraryFolder
	if err := m.db.WithContext(ctx).Where("id = ?", id).First(&folder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, id)
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return &folder, nil
}

// CreateFolder registers a folder for scanning. The referenced share must
// exist and the (share, path) pair must not already be registered.
func (m *Manager) CreateFolder(ctx context.Context, folder *database.LibraryFolder) error {
	if folder.Name == "" {
		return fmt.Errorf("folder name is required")
	}
	if folder.ShareID == "" {
		return fmt.Errorf("folder share ID is required")
	}
	if !folder.Type.Valid() {
		return fmt.Errorf("invalid folder type: %s", folder.Type)
	}

	var shareCount int64
	if err := m.db.WithContext(ctx).Model(&database.NetworkShare{}).Where("id = ?", folder.ShareID).Count(&shareCount).Error; err != nil {
		return fmt.Errorf("failed to resolve share: %w", err)
	}
	if shareCount == 0 {
		return fmt.Errorf("share not found: %s", folder.ShareID)
	}

	var dupes int64
	if err := m.db.WithContext(ctx).Model(&database.LibraryFolder{}).
		Where("share_id = ? AND path = ?", folder.ShareID, folder.Path).
		Count(&dupes).Error; err != nil {
		return fmt.Errorf("failed to check for duplicate folder: %w", err)
	}
	if dupes > 0 {
		return fmt.Errorf("%w: share %s path %q", ErrFolderExists, folder.ShareID, folder.Path)
	}

	if folder.ID == "" {
		folder.ID = utils.GenerateUUID()
	}

	if err := m.db.WithContext(ctx).Create(folder).Error; err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	if m.eventBus != nil {
		event := events.NewEventWithData(
			events.EventFolderCreated,
			"librarymodule",
			"Library folder created",
			fmt.Sprintf("Folder registered: %s", folder.Name),
			map[string]interface{}{
				"folderId": folder.ID,
				"shareId":  folder.ShareID,
				"path":     folder.Path,
				"type":     string(folder.Type),
			},
		)
		m.eventBus.PublishAsync(event)
	}

	return nil
}

// RenameFolder changes the display name of a folder. The share and path are
// immutable; delete and re-create the folder to move it.
func (m *Manager) RenameFolder(ctx context.Context, id, name string) error {
	if name == "" {
		return fmt.Errorf("folder name is required")
	}

	result := m.db.WithContext(ctx).Model(&database.LibraryFolder{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return fmt.Errorf("failed to rename folder: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, id)
	}

	if m.eventBus != nil {
		event := events.NewEventWithData(
			events.EventFolderRenamed,
			"librarymodule",
			"Library folder renamed",
			fmt.Sprintf("Folder %s renamed to %s", id, name),
			map[string]interface{}{"folderId": id, "name": name},
		)
		m.eventBus.PublishAsync(event)
	}

	return nil
}

// DeleteFolder removes a folder and its file index
func (m *Manager) DeleteFolder(ctx context.Context, id string) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("folder_id = ?", id).Delete(&database.LibraryFile{}).Error; err != nil {
			return fmt.Errorf("failed to delete file index: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&database.LibraryFolder{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete folder: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrFolderNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if m.eventBus != nil {
		event := events.NewEventWithData(
			events.EventFolderDeleted,
			"librarymodule",
			"Library folder deleted",
			fmt.Sprintf("Folder deleted: %s", id),
			map[string]interface{}{"folderId": id},
		)
		m.eventBus.PublishAsync(event)
	}

	return nil
}

// ListFolders lists all library folders
func (m *Manager) ListFolders(ctx context.Context) ([]*database.LibraryFolder, error) {
	var folders []*database.LibraryFolder
	if err := m.db.WithContext(ctx).Order("share_id, path").Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// ListFoldersByShare lists the folders registered on one share
func (m *Manager) ListFoldersByShare(ctx context.Context, shareID string) ([]*database.LibraryFolder, error) {
	var folders []*database.LibraryFolder
	if err := m.db.WithContext(ctx).Where("share_id = ?", shareID).Order("path").Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("failed to list folders for share: %w", err)
	}
	return folders, nil
}

// RecordScanSuccess stamps a folder with the outcome of a completed scan.
func (m *Manager) RecordScanSuccess(ctx context.Context, id string, videoCount int, at time.Time) error {
	return m.recordScan(ctx, id, map[string]interface{}{
		"last_scanned_at": at,
		"video_count":     videoCount,
		"last_scan_error": "",
	})
}

// RecordScanFailure stamps a folder with the error from a failed scan. The
// previous video count and scan timestamp are left untouched.
func (m *Manager) RecordScanFailure(ctx context.Context, id string, scanErr error) error {
	msg := ""
	if scanErr != nil {
		msg = scanErr.Error()
	}
	return m.recordScan(ctx, id, map[string]interface{}{
		"last_scan_error": msg,
	})
}

func (m *Manager) recordScan(ctx context.Context, id string, updates map[string]interface{}) error {
	result := m.db.WithContext(ctx).Model(&database.LibraryFolder{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to record scan result: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, id)
	}
	return nil
}
