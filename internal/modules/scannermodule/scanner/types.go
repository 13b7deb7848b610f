// Package scanner implements the library scan pipeline: recursive folder
// enumeration over a share session, reconciliation of the enumerated files
// against the persisted per-folder index, and the orchestrator that drives
// both across every registered folder.
package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/smb"
)

// ErrShareNotFound is the resolver's signal that a folder references a
// share ID with no matching share. Folders on such shares are skipped, not
// failed.
var ErrShareNotFound = errors.New("scanner: share not found")

// DiscoveredFile is one video file found by an enumeration pass. Path is
// relative to the scanned folder root, joined with forward slashes.
type DiscoveredFile struct {
	Path       string
	Name       string
	Size       int64
	ModifiedAt *time.Time
}

// ScanFolderStatus is the per-folder outcome reported in progress events
type ScanFolderStatus string

const (
	FolderScanning  ScanFolderStatus = "scanning"
	FolderCompleted ScanFolderStatus = "completed"
	FolderFailed    ScanFolderStatus = "failed"
	FolderSkipped   ScanFolderStatus = "skipped"
)

// SkipReason explains why a folder was skipped without a scan attempt
type SkipReason string

const (
	SkipShareNotFound SkipReason = "share_not_found"
	SkipShareOffline  SkipReason = "share_offline"
)

// ScanProgress is emitted once per folder per run for the scanning state
// and once more for the terminal state. Index is the folder's 0-based
// position in the run's input; Total is the run's folder count.
type ScanProgress struct {
	FolderID   string           `json:"folder_id"`
	FolderName string           `json:"folder_name"`
	Index      int              `json:"index"`
	Total      int              `json:"total"`
	Status     ScanFolderStatus `json:"status"`

	// Set for completed folders.
	VideoCount   int `json:"video_count,omitempty"`
	NewFiles     int `json:"new_files,omitempty"`
	RemovedFiles int `json:"removed_files,omitempty"`

	// Set for failed folders.
	Error string `json:"error,omitempty"`

	// Set for skipped folders.
	Reason SkipReason `json:"reason,omitempty"`
}

// LibraryScanResult aggregates one whole run.
type LibraryScanResult struct {
	ScannedCount int `json:"scanned_count"`
	SkippedCount int `json:"skipped_count"`
	FailedCount  int `json:"failed_count"`

	TotalVideoCount   int `json:"total_video_count"`
	TotalNewFiles     int `json:"total_new_files"`
	TotalRemovedFiles int `json:"total_removed_files"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// ProgressFunc receives per-folder progress events. A nil ProgressFunc is
// allowed; events are then discarded.
type ProgressFunc func(ScanProgress)

// ShareResolver looks up the share a folder points at. Unknown IDs must
// return an error wrapping ErrShareNotFound.
type ShareResolver interface {
	ResolveShare(ctx context.Context, shareID string) (*database.NetworkShare, error)
}

// StatusProvider reports the cached online state of a share. It must be
// fast and must not probe the network.
type StatusProvider interface {
	Status(shareID string) smb.ShareStatus
}

// FileIndexStore is the per-folder index persistence boundary.
type FileIndexStore interface {
	Load(ctx context.Context, folderID string) ([]database.LibraryFile, error)
	Save(ctx context.Context, folderID string, files []database.LibraryFile) error
	Delete(ctx context.Context, folderID string) error
}

// ResultRecorder stamps scan outcomes onto the folder records. Optional;
// recording failures are logged, never fatal to the run.
type ResultRecorder interface {
	RecordScanSuccess(ctx context.Context, folderID string, videoCount int, at time.Time) error
	RecordScanFailure(ctx context.Context, folderID string, scanErr error) error
}
