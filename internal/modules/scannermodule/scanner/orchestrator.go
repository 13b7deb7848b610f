package scanner

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/logger"
	"github.com/netshelf/netshelf/internal/smb"
)

// Orchestrator drives one library scan run: it groups folders by share,
// opens one session per share, scans and reconciles every folder on that
// session, and aggregates the outcome.
type Orchestrator struct {
	scanner   *FolderScanner
	resolver  ShareResolver
	status    StatusProvider
	connector smb.Connector
	index     FileIndexStore

	// Optional collaborators.
	recorder ResultRecorder
	monitor  *LoadMonitor

	// Number of share groups processed concurrently. Folders within one
	// share always run sequentially on the shared session.
	shareConcurrency int
}

// OrchestratorOptions bundle the optional knobs of NewOrchestrator.
type OrchestratorOptions struct {
	Recorder         ResultRecorder
	Monitor          *LoadMonitor
	ShareConcurrency int
}

// NewOrchestrator creates a scan orchestrator
func NewOrchestrator(scanner *FolderScanner, resolver ShareResolver, status StatusProvider, connector smb.Connector, index FileIndexStore, opts OrchestratorOptions) *Orchestrator {
	concurrency := opts.ShareConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Orchestrator{
		scanner:          scanner,
		resolver:         resolver,
		status:           status,
		connector:        connector,
		index:            index,
		recorder:         opts.Recorder,
		monitor:          opts.Monitor,
		shareConcurrency: concurrency,
	}
}

// runState carries the per-run bookkeeping shared by all share groups.
type runState struct {
	mu       sync.Mutex
	result   LibraryScanResult
	progress ProgressFunc

	// Position of each folder in the run input, fixed up front so event
	// indexes are stable no matter which group finishes first.
	position map[string]int
	total    int
}

func (r *runState) emit(p ScanProgress) {
	if r.progress == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress(p)
}

func (r *runState) add(delta LibraryScanResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.ScannedCount += delta.ScannedCount
	r.result.SkippedCount += delta.SkippedCount
	r.result.FailedCount += delta.FailedCount
	r.result.TotalVideoCount += delta.TotalVideoCount
	r.result.TotalNewFiles += delta.TotalNewFiles
	r.result.TotalRemovedFiles += delta.TotalRemovedFiles
}

// Scan runs one full library scan over the given folders. It never fails
// because folders failed; the only error it returns is the context's, in
// which case the aggregate covers the folders processed before
// cancellation.
func (o *Orchestrator) Scan(ctx context.Context, folders []*database.LibraryFolder, progress ProgressFunc) (LibraryScanResult, error) {
	startedAt := time.Now()

	if len(folders) == 0 {
		return LibraryScanResult{StartedAt: startedAt}, nil
	}

	state := &runState{
		progress: progress,
		position: make(map[string]int, len(folders)),
		total:    len(folders),
	}
	for i, folder := range folders {
		state.position[folder.ID] = i
	}

	groups := make(map[string][]*database.LibraryFolder)
	for _, folder := range folders {
		groups[folder.ShareID] = append(groups[folder.ShareID], folder)
	}

	// Sorted keys keep group processing order deterministic across runs.
	shareIDs := make([]string, 0, len(groups))
	for shareID := range groups {
		shareIDs = append(shareIDs, shareID)
	}
	sort.Strings(shareIDs)

	if o.shareConcurrency > 1 && len(shareIDs) > 1 {
		o.scanGroupsConcurrently(ctx, shareIDs, groups, state)
	} else {
		for _, shareID := range shareIDs {
			if ctx.Err() != nil {
				break
			}
			o.scanShareGroup(ctx, shareID, groups[shareID], state)
		}
	}

	state.result.StartedAt = startedAt
	state.result.Duration = time.Since(startedAt)
	return state.result, ctx.Err()
}

// scanGroupsConcurrently fans share groups out over a bounded worker pool.
// Each group still holds exactly one session and scans its folders
// sequentially.
func (o *Orchestrator) scanGroupsConcurrently(ctx context.Context, shareIDs []string, groups map[string][]*database.LibraryFolder, state *runState) {
	work := make(chan string)
	var wg sync.WaitGroup

	workers := o.shareConcurrency
	if workers > len(shareIDs) {
		workers = len(shareIDs)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for shareID := range work {
				o.scanShareGroup(ctx, shareID, groups[shareID], state)
			}
		}()
	}

	for _, shareID := range shareIDs {
		if ctx.Err() != nil {
			break
		}
		work <- shareID
	}
	close(work)
	wg.Wait()
}

// scanShareGroup processes every folder registered on one share.
func (o *Orchestrator) scanShareGroup(ctx context.Context, shareID string, folders []*database.LibraryFolder, state *runState) {
	share, err := o.resolver.ResolveShare(ctx, shareID)
	if err != nil {
		if errors.Is(err, ErrShareNotFound) {
			o.skipGroup(folders, state, SkipShareNotFound)
			return
		}
		o.failGroup(ctx, folders, state, err)
		return
	}

	if status := o.status.Status(shareID); !status.Online() {
		logger.Info("Skipping %d folder(s) on share %s: %s", len(folders), shareID, status.State)
		o.skipGroup(folders, state, SkipShareOffline)
		return
	}

	session, err := o.connector.Connect(ctx, share)
	if err != nil {
		logger.Warn("Failed to connect to share %s: %v", shareID, err)
		o.failGroup(ctx, folders, state, err)
		return
	}
	defer session.Close()

	for _, folder := range folders {
		if ctx.Err() != nil {
			return
		}

		state.emit(ScanProgress{
			FolderID:   folder.ID,
			FolderName: folder.Name,
			Index:      state.position[folder.ID],
			Total:      state.total,
			Status:     FolderScanning,
		})

		videoCount, newFiles, removedFiles, err := o.scanFolder(ctx, session, folder)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Scan failed for folder %s (%s): %v", folder.Name, folder.ID, err)
			o.recordFailure(ctx, folder.ID, err)
			state.add(LibraryScanResult{FailedCount: 1})
			state.emit(ScanProgress{
				FolderID:   folder.ID,
				FolderName: folder.Name,
				Index:      state.position[folder.ID],
				Total:      state.total,
				Status:     FolderFailed,
				Error:      err.Error(),
			})
			continue
		}

		state.add(LibraryScanResult{
			ScannedCount:      1,
			TotalVideoCount:   videoCount,
			TotalNewFiles:     newFiles,
			TotalRemovedFiles: removedFiles,
		})
		state.emit(ScanProgress{
			FolderID:     folder.ID,
			FolderName:   folder.Name,
			Index:        state.position[folder.ID],
			Total:        state.total,
			Status:       FolderCompleted,
			VideoCount:   videoCount,
			NewFiles:     newFiles,
			RemovedFiles: removedFiles,
		})

		if o.monitor != nil {
			o.monitor.Pace(ctx)
		}
	}
}

// scanFolder enumerates one folder, reconciles the result against its
// persisted index, and writes the merged index back.
func (o *Orchestrator) scanFolder(ctx context.Context, session smb.Session, folder *database.LibraryFolder) (videoCount, newFiles, removedFiles int, err error) {
	discovered, err := o.scanner.Enumerate(ctx, session, folder.Path)
	if err != nil {
		return 0, 0, 0, err
	}

	previous, err := o.index.Load(ctx, folder.ID)
	if err != nil {
		return 0, 0, 0, err
	}

	now := time.Now()
	diff := Reconcile(folder.ID, previous, discovered, now)

	if err := o.index.Save(ctx, folder.ID, diff.Merged); err != nil {
		return 0, 0, 0, err
	}

	if o.recorder != nil {
		if err := o.recorder.RecordScanSuccess(ctx, folder.ID, len(diff.Merged), now); err != nil {
			logger.Warn("Failed to record scan result for folder %s: %v", folder.ID, err)
		}
	}

	return len(diff.Merged), diff.NewFiles, diff.RemovedFiles, nil
}

// skipGroup emits one skipped event per folder
func (o *Orchestrator) skipGroup(folders []*database.LibraryFolder, state *runState, reason SkipReason) {
	for _, folder := range folders {
		state.add(LibraryScanResult{SkippedCount: 1})
		state.emit(ScanProgress{
			FolderID:   folder.ID,
			FolderName: folder.Name,
			Index:      state.position[folder.ID],
			Total:      state.total,
			Status:     FolderSkipped,
			Reason:     reason,
		})
	}
}

// failGroup emits one failed event per folder, used when the share itself
// cannot be resolved or connected.
func (o *Orchestrator) failGroup(ctx context.Context, folders []*database.LibraryFolder, state *runState, cause error) {
	for _, folder := range folders {
		o.recordFailure(ctx, folder.ID, cause)
		state.add(LibraryScanResult{FailedCount: 1})
		state.emit(ScanProgress{
			FolderID:   folder.ID,
			FolderName: folder.Name,
			Index:      state.position[folder.ID],
			Total:      state.total,
			Status:     FolderFailed,
			Error:      cause.Error(),
		})
	}
}

func (o *Orchestrator) recordFailure(ctx context.Context, folderID string, cause error) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordScanFailure(ctx, folderID, cause); err != nil {
		logger.Warn("Failed to record scan error for folder %s: %v", folderID, err)
	}
}
