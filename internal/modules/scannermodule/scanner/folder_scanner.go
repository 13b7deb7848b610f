package scanner

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/netshelf/netshelf/internal/logger"
	"github.com/netshelf/netshelf/internal/smb"
)

// DefaultMaxDepth bounds recursion when no explicit depth is configured.
const DefaultMaxDepth = 10

// DefaultVideoExtensions lists the file extensions recognized as video.
var DefaultVideoExtensions = []string{"mkv", "mp4", "avi", "mov", "wmv", "m4v", "ts", "webm"}

// FolderScanner walks a folder tree over a share session, collecting video
// files. Depth is bounded: the root listing is depth 1 and no listing
// happens at depths beyond maxDepth, so deeper subtrees are silently
// excluded rather than reported as errors.
type FolderScanner struct {
	maxDepth   int
	extensions map[string]struct{}
}

// NewFolderScanner creates a folder scanner. A maxDepth below 1 falls back
// to DefaultMaxDepth; an empty extension list falls back to
// DefaultVideoExtensions.
func NewFolderScanner(maxDepth int, extensions []string) *FolderScanner {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	if len(extensions) == 0 {
		extensions = DefaultVideoExtensions
	}

	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	return &FolderScanner{
		maxDepth:   maxDepth,
		extensions: extSet,
	}
}

// Count walks the tree under rootPath and returns the number of video
// files and their total size in bytes.
func (s *FolderScanner) Count(ctx context.Context, session smb.Session, rootPath string) (int, int64, error) {
	var count int
	var totalSize int64

	err := s.walk(ctx, session, rootPath, "", 1, func(file DiscoveredFile) {
		count++
		totalSize += file.Size
	})
	if err != nil {
		return 0, 0, err
	}
	return count, totalSize, nil
}

// Enumerate walks the tree under rootPath and returns every video file
// found, with paths relative to rootPath.
func (s *FolderScanner) Enumerate(ctx context.Context, session smb.Session, rootPath string) ([]DiscoveredFile, error) {
	var files []DiscoveredFile

	err := s.walk(ctx, session, rootPath, "", 1, func(file DiscoveredFile) {
		files = append(files, file)
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// walk lists one directory level and recurses into subdirectories. A
// listing failure at the root is fatal; a failure below the root drops
// that subtree and continues with its siblings. Cancellation always
// propagates.
func (s *FolderScanner) walk(ctx context.Context, session smb.Session, rootPath, relPath string, depth int, visit func(DiscoveredFile)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	listPath := path.Join(rootPath, relPath)
	entries, err := session.ListDirectory(ctx, listPath)
	if err != nil {
		if relPath == "" {
			return fmt.Errorf("failed to list folder root %q: %w", rootPath, err)
		}
		logger.Warn("Skipping unreadable subdirectory %q: %v", listPath, err)
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch entry.Kind {
		case smb.KindFile:
			if !s.isVideo(entry.Name) {
				continue
			}
			visit(DiscoveredFile{
				Path:       path.Join(relPath, entry.Name),
				Name:       entry.Name,
				Size:       entry.Size,
				ModifiedAt: entry.ModifiedAt,
			})
		case smb.KindDirectory:
			if depth+1 > s.maxDepth {
				continue
			}
			if err := s.walk(ctx, session, rootPath, path.Join(relPath, entry.Name), depth+1, visit); err != nil {
				return err
			}
		}
	}

	return nil
}

// isVideo reports whether name carries a recognized video extension.
func (s *FolderScanner) isVideo(name string) bool {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return false
	}
	_, ok := s.extensions[strings.ToLower(name[dot+1:])]
	return ok
}
