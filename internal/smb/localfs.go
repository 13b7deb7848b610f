package smb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"github.com/netshelf/netshelf/internal/database"
)

// LocalConnector serves share listings from a local mount point. It is the
// transport used when a share's remote filesystem is already mounted into
// this host (autofs, fstab cifs mounts, test fixtures).
type LocalConnector struct {
	log hclog.Logger
}

// NewLocalConnector creates a connector for locally mounted shares.
func NewLocalConnector() *LocalConnector {
	return &LocalConnector{
		log: hclog.New(&hclog.LoggerOptions{
			Name:  "smb.localfs",
			Level: hclog.Info,
		}),
	}
}

// Connect validates the share's mount point and returns a session rooted at
// it. A share without a LocalPath cannot be served by this connector.
func (c *LocalConnector) Connect(ctx context.Context, share *database.NetworkShare) (Session, error) {
	if share.LocalPath == "" {
		return nil, fmt.Errorf("share %s has no local mount point", share.Name)
	}

	info, err := os.Stat(share.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("mount point %s is not accessible: %w", share.LocalPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mount point %s is not a directory", share.LocalPath)
	}

	c.log.Info("session opened", "share", share.Name, "host", share.Host, "root", share.LocalPath)

	return &localSession{
		root: share.LocalPath,
		log:  c.log.With("share", share.Name),
	}, nil
}

type localSession struct {
	root   string
	log    hclog.Logger
	closed atomic.Bool
}

func (s *localSession) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	if s.closed.Load() {
		return nil, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := s.root
	if path != "" {
		// Share paths use forward slashes; translate for the host.
		full = filepath.Join(s.root, filepath.FromSlash(path))
	}

	dirEntries, err := os.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", path, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}

		entry := Entry{Name: de.Name()}
		switch {
		case de.IsDir():
			entry.Kind = KindDirectory
		case de.Type().IsRegular():
			entry.Kind = KindFile
			if info, err := de.Info(); err == nil {
				entry.Size = info.Size()
				mod := info.ModTime()
				entry.ModifiedAt = &mod
			}
		default:
			entry.Kind = KindOther
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *localSession) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.log.Debug("session closed")
	}
	return nil
}
