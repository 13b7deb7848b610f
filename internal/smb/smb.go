// Package smb defines the directory-listing boundary between netshelf and
// whatever network file-sharing transport actually serves the bytes. The
// scanner only ever sees Sessions and Entries; the wire protocol behind a
// Session (SMB, NFS, a local mount) is an adapter's concern.
package smb

import (
	"context"
	"errors"
	"time"

	"github.com/netshelf/netshelf/internal/database"
)

// EntryKind classifies a directory entry
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
	KindOther
)

// Entry is one directory entry as reported by a share listing.
type Entry struct {
	Name       string
	Kind       EntryKind
	Size       int64
	ModifiedAt *time.Time
}

// Session is an open connection to one share. Listings are relative to the
// share root; "" lists the root itself. Implementations must be safe for
// sequential reuse across multiple listings but need not be safe for
// concurrent use.
type Session interface {
	// ListDirectory lists the entries at path. Path components are joined
	// with forward slashes regardless of host platform.
	ListDirectory(ctx context.Context, path string) ([]Entry, error)

	// Close releases the connection. Safe to call more than once.
	Close() error
}

// Connector opens sessions to shares. One session is intended to be reused
// for every folder on the same share within a scan run.
type Connector interface {
	Connect(ctx context.Context, share *database.NetworkShare) (Session, error)
}

// ShareState is the cached health state of a share.
type ShareState string

const (
	StateOnline   ShareState = "online"
	StateOffline  ShareState = "offline"
	StateUnknown  ShareState = "unknown"
	StateChecking ShareState = "checking"
)

// ShareStatus pairs a state with an optional human-readable reason for
// offline shares. Reading a status must never trigger a network probe;
// freshness is the responsibility of whatever health checker feeds the
// cache.
type ShareStatus struct {
	State  ShareState `json:"state"`
	Reason string     `json:"reason,omitempty"`
}

// Online reports whether the share can be connected to right now.
func (s ShareStatus) Online() bool {
	return s.State == StateOnline
}

// ErrNotConnected is returned by sessions used after Close.
var ErrNotConnected = errors.New("smb: session is closed")
