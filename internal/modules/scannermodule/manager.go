package scannermodule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/netshelf/netshelf/internal/config"
	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/events"
	"github.com/netshelf/netshelf/internal/logger"
	"github.com/netshelf/netshelf/internal/metrics"
	"github.com/netshelf/netshelf/internal/modules/librarymodule"
	"github.com/netshelf/netshelf/internal/modules/scannermodule/scanner"
	"github.com/netshelf/netshelf/internal/modules/sharemodule"
	"github.com/netshelf/netshelf/internal/smb"
)

// ErrScanInProgress is returned when a scan is requested while another run
// is still active.
var ErrScanInProgress = errors.New("a library scan is already in progress")

// Manager runs library scans. At most one run is active at a time; the
// orchestrator and its collaborators are assembled per run so configuration
// changes apply to the next scan without a restart.
type Manager struct {
	eventBus events.EventBus

	scanning atomic.Bool

	mu         sync.RWMutex
	lastResult *scanner.LibraryScanResult
	monitor    *scanner.LoadMonitor
}

// NewManager creates a new scan manager
func NewManager(eventBus events.EventBus) *Manager {
	return &Manager{
		eventBus: eventBus,
	}
}

// shareResolver adapts the share manager to the scanner's resolver
// contract, translating its not-found error into the scanner's sentinel.
type shareResolver struct {
	shares *sharemodule.Manager
}

func (r *shareResolver) ResolveShare(ctx context.Context, shareID string) (*database.NetworkShare, error) {
	share, err := r.shares.GetShare(ctx, shareID)
	if err != nil {
		if errors.Is(err, sharemodule.ErrShareNotFound) {
			return nil, fmt.Errorf("%w: %s", scanner.ErrShareNotFound, shareID)
		}
		return nil, err
	}
	return share, nil
}

// shareConnector adapts the share manager to the scanner's connector
// contract. Connecting through the manager keeps the share status cache
// fresh: a failed connect marks the share offline for the next run.
type shareConnector struct {
	shares  *sharemodule.Manager
	timeout time.Duration
}

func (c *shareConnector) Connect(ctx context.Context, share *database.NetworkShare) (smb.Session, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.shares.Connect(ctx, share.ID)
}

// IsScanning reports whether a run is currently active.
func (m *Manager) IsScanning() bool {
	return m.scanning.Load()
}

// LastResult returns the aggregate of the most recent completed run, or
// nil if no run has completed since startup.
func (m *Manager) LastResult() *scanner.LibraryScanResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastResult == nil {
		return nil
	}
	result := *m.lastResult
	return &result
}

// ScanAll scans every registered library folder.
func (m *Manager) ScanAll(ctx context.Context) (scanner.LibraryScanResult, error) {
	folders, err := librarymodule.GetManager().ListFolders(ctx)
	if err != nil {
		return scanner.LibraryScanResult{}, err
	}
	return m.Scan(ctx, folders)
}

// ScanShare scans every folder registered on one share.
func (m *Manager) ScanShare(ctx context.Context, shareID string) (scanner.LibraryScanResult, error) {
	if _, err := sharemodule.GetManager().GetShare(ctx, shareID); err != nil {
		return scanner.LibraryScanResult{}, err
	}
	folders, err := librarymodule.GetManager().ListFoldersByShare(ctx, shareID)
	if err != nil {
		return scanner.LibraryScanResult{}, err
	}
	return m.Scan(ctx, folders)
}

// ScanFolder scans a single library folder.
func (m *Manager) ScanFolder(ctx context.Context, folderID string) (scanner.LibraryScanResult, error) {
	folder, err := librarymodule.GetManager().GetFolder(ctx, folderID)
	if err != nil {
		return scanner.LibraryScanResult{}, err
	}
	return m.Scan(ctx, []*database.LibraryFolder{folder})
}

// Scan runs the orchestrator over the given folders, publishing progress
// events and recording metrics along the way.
func (m *Manager) Scan(ctx context.Context, folders []*database.LibraryFolder) (scanner.LibraryScanResult, error) {
	if !m.scanning.CompareAndSwap(false, true) {
		return scanner.LibraryScanResult{}, ErrScanInProgress
	}
	defer m.scanning.Store(false)

	cfg := config.Get().Scanner
	shares := sharemodule.GetManager()

	orchestrator := scanner.NewOrchestrator(
		scanner.NewFolderScanner(cfg.MaxDepth, cfg.VideoExtensions),
		&shareResolver{shares: shares},
		shares,
		&shareConnector{shares: shares, timeout: cfg.ConnectTimeout},
		librarymodule.GetFileIndexStore(),
		scanner.OrchestratorOptions{
			Recorder:         librarymodule.GetManager(),
			Monitor:          m.loadMonitor(cfg),
			ShareConcurrency: cfg.ShareConcurrency,
		},
	)

	metrics.ScanRunsTotal.Inc()
	metrics.ScanRunning.Set(1)
	defer metrics.ScanRunning.Set(0)

	if len(folders) > 0 {
		m.publishStarted(folders)
	}

	logger.Info("Starting library scan of %d folder(s)", len(folders))
	result, err := orchestrator.Scan(ctx, folders, m.handleProgress)

	metrics.ScanLastRunDuration.Set(result.Duration.Seconds())
	metrics.ScanLastRunTimestamp.Set(float64(time.Now().Unix()))

	m.mu.Lock()
	m.lastResult = &result
	m.mu.Unlock()

	if err != nil {
		logger.Warn("Library scan aborted: %v (scanned=%d, skipped=%d, failed=%d)",
			err, result.ScannedCount, result.SkippedCount, result.FailedCount)
	} else {
		logger.Info("Library scan finished: scanned=%d, skipped=%d, failed=%d, videos=%d, new=%d, removed=%d",
			result.ScannedCount, result.SkippedCount, result.FailedCount,
			result.TotalVideoCount, result.TotalNewFiles, result.TotalRemovedFiles)
	}

	if len(folders) > 0 {
		m.publishCompleted(result, err)
	}

	return result, err
}

// loadMonitor lazily creates the shared load monitor when pacing is
// enabled.
func (m *Manager) loadMonitor(cfg config.ScannerConfig) *scanner.LoadMonitor {
	if !cfg.PacingEnabled {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.monitor == nil {
		m.monitor = scanner.NewLoadMonitor()
	}
	return m.monitor
}

// Shutdown stops the background load monitor.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.monitor != nil {
		m.monitor.Stop()
		m.monitor = nil
	}
}

// handleProgress records metrics and publishes one event per terminal
// folder state.
func (m *Manager) handleProgress(p scanner.ScanProgress) {
	switch p.Status {
	case scanner.FolderScanning:
		return
	case scanner.FolderCompleted:
		metrics.FoldersScannedTotal.Inc()
		metrics.FilesDiscoveredTotal.Add(float64(p.VideoCount))
		metrics.FilesNewTotal.Add(float64(p.NewFiles))
		metrics.FilesRemovedTotal.Add(float64(p.RemovedFiles))
	case scanner.FolderFailed:
		metrics.FoldersFailedTotal.Inc()
	case scanner.FolderSkipped:
		metrics.FoldersSkippedTotal.WithLabelValues(string(p.Reason)).Inc()
	}

	if m.eventBus == nil {
		return
	}

	var (
		eventType events.EventType
		message   string
	)
	switch p.Status {
	case scanner.FolderCompleted:
		eventType = events.EventScanFolderCompleted
		message = fmt.Sprintf("Scanned folder %s: %d video(s), %d new, %d removed",
			p.FolderName, p.VideoCount, p.NewFiles, p.RemovedFiles)
	case scanner.FolderFailed:
		eventType = events.EventScanFolderFailed
		message = fmt.Sprintf("Scan failed for folder %s: %s", p.FolderName, p.Error)
	case scanner.FolderSkipped:
		eventType = events.EventScanFolderSkipped
		message = fmt.Sprintf("Skipped folder %s: %s", p.FolderName, p.Reason)
	}

	event := events.NewEventWithData(eventType, "scannermodule", "Folder scan progress", message,
		map[string]interface{}{
			"folder_id":     p.FolderID,
			"folder_name":   p.FolderName,
			"index":         p.Index,
			"total":         p.Total,
			"status":        string(p.Status),
			"video_count":   p.VideoCount,
			"new_files":     p.NewFiles,
			"removed_files": p.RemovedFiles,
			"error":         p.Error,
			"skip_reason":   string(p.Reason),
		})
	m.eventBus.PublishAsync(event)
}

func (m *Manager) publishStarted(folders []*database.LibraryFolder) {
	if m.eventBus == nil {
		return
	}

	shareIDs := make(map[string]struct{})
	for _, folder := range folders {
		shareIDs[folder.ShareID] = struct{}{}
	}

	event := events.NewEventWithData(
		events.EventScanStarted,
		"scannermodule",
		"Library scan started",
		fmt.Sprintf("Scanning %d folder(s) across %d share(s)", len(folders), len(shareIDs)),
		map[string]interface{}{
			"folder_count": len(folders),
			"share_count":  len(shareIDs),
		},
	)
	m.eventBus.PublishAsync(event)
}

func (m *Manager) publishCompleted(result scanner.LibraryScanResult, runErr error) {
	if m.eventBus == nil {
		return
	}

	data := map[string]interface{}{
		"scanned_folders":     result.ScannedCount,
		"skipped_folders":     result.SkippedCount,
		"failed_folders":      result.FailedCount,
		"total_videos":        result.TotalVideoCount,
		"total_new_files":     result.TotalNewFiles,
		"total_removed_files": result.TotalRemovedFiles,
		"duration_ms":         result.Duration.Milliseconds(),
	}
	if runErr != nil {
		data["error"] = runErr.Error()
	}

	event := events.NewEventWithData(
		events.EventScanCompleted,
		"scannermodule",
		"Library scan completed",
		fmt.Sprintf("Scan finished: %d scanned, %d skipped, %d failed",
			result.ScannedCount, result.SkippedCount, result.FailedCount),
		data,
	)
	m.eventBus.PublishAsync(event)
}
