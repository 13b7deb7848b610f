package scanner

import (
	"time"

	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/utils"
)

// ReconcileResult is the outcome of diffing one enumeration pass against a
// folder's persisted index.
type ReconcileResult struct {
	// Merged is the index to persist: every file present in the current
	// enumeration, ordered as enumerated. Missing files are not carried
	// forward.
	Merged []database.LibraryFile

	// Removed holds the entries dropped from the index, marked missing so
	// callers can report what disappeared.
	Removed []database.LibraryFile

	NewFiles     int
	RemovedFiles int
}

// Reconcile diffs the discovered files against the previously persisted
// index for a folder. The relative path is the sole reconciliation key.
//
// Still-present files keep their identity but have their size, name and
// modified date refreshed from the new observation; a file whose content
// changed in place is otherwise indistinguishable from an unchanged one.
// Files absent from the enumeration are dropped from the merged index
// entirely and returned in Removed with status missing.
func Reconcile(folderID string, previous []database.LibraryFile, discovered []DiscoveredFile, now time.Time) ReconcileResult {
	prevByPath := make(map[string]database.LibraryFile, len(previous))
	for _, file := range previous {
		prevByPath[file.Path] = file
	}

	seen := make(map[string]struct{}, len(discovered))
	result := ReconcileResult{
		Merged: make([]database.LibraryFile, 0, len(discovered)),
	}

	for _, found := range discovered {
		if _, dup := seen[found.Path]; dup {
			continue
		}
		seen[found.Path] = struct{}{}

		if prev, ok := prevByPath[found.Path]; ok {
			prev.Name = found.Name
			prev.Size = found.Size
			prev.ModifiedAt = found.ModifiedAt
			prev.Status = database.FileStatusAvailable
			prev.LastSeenAt = now
			result.Merged = append(result.Merged, prev)
			continue
		}

		result.Merged = append(result.Merged, database.LibraryFile{
			ID:         utils.GenerateUUID(),
			FolderID:   folderID,
			Path:       found.Path,
			Name:       found.Name,
			Size:       found.Size,
			ModifiedAt: found.ModifiedAt,
			Status:     database.FileStatusAvailable,
			LastSeenAt: now,
		})
		result.NewFiles++
	}

	for _, file := range previous {
		if _, ok := seen[file.Path]; ok {
			continue
		}
		file.Status = database.FileStatusMissing
		result.Removed = append(result.Removed, file)
		result.RemovedFiles++
	}

	return result
}
