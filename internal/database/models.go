package database

import (
	"time"
)

// NetworkShare represents a registered remote file share (a NAS export, an
// SMB share, or a locally mounted remote filesystem). Online/offline state
// is deliberately not a column: it is volatile and lives in the share
// module's status cache.
type NetworkShare struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Host      string    `gorm:"not null;index" json:"host"`
	ShareName string    `gorm:"not null" json:"share_name"`
	Username  string    `json:"username,omitempty"`
	Password  string    `json:"-"`
	// LocalPath, when set, points at a local mount of the share. The
	// local-directory transport adapter serves listings from it.
	LocalPath string    `json:"local_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FolderType classifies the content of a library folder
type FolderType string

const (
	FolderTypeMovies FolderType = "movies"
	FolderTypeTV     FolderType = "tv"
	FolderTypeOther  FolderType = "other"
)

// Valid reports whether t is a known folder type.
func (t FolderType) Valid() bool {
	switch t {
	case FolderTypeMovies, FolderTypeTV, FolderTypeOther:
		return true
	}
	return false
}

// LibraryFolder is a user-designated scan root on a share. The
// (ShareID, Path) pair is unique: the same remote location cannot be
// registered twice.
type LibraryFolder struct {
	ID        string     `gorm:"primaryKey" json:"id"`
	ShareID   string     `gorm:"not null;uniqueIndex:idx_folder_share_path" json:"share_id"`
	Path      string     `gorm:"uniqueIndex:idx_folder_share_path" json:"path"` // relative to share root, "" = root
	Type      FolderType `gorm:"not null;default:other" json:"type"`
	Name      string     `gorm:"not null" json:"name"`
	CreatedAt time.Time  `json:"created_at"`

	// Scan-result fields, mutated only by scans.
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`
	VideoCount    int        `json:"video_count"`
	LastScanError string     `json:"last_scan_error,omitempty"`
}

// FileStatus represents the availability of an indexed file
type FileStatus string

const (
	FileStatusAvailable FileStatus = "available"
	FileStatusMissing   FileStatus = "missing"
)

// LibraryFile is one tracked video file inside a folder's index. Path is
// relative to the folder's scan root and is the reconciliation key; it is
// unique within one folder's index.
type LibraryFile struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	FolderID   string     `gorm:"not null;uniqueIndex:idx_file_folder_path;index" json:"folder_id"`
	Path       string     `gorm:"not null;uniqueIndex:idx_file_folder_path" json:"path"`
	Name       string     `gorm:"not null" json:"name"`
	Size       int64      `json:"size"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	Status     FileStatus `gorm:"not null;default:available" json:"status"`
	LastSeenAt time.Time  `json:"last_seen_at"`
}
