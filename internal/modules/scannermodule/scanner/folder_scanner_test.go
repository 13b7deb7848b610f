package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/netshelf/netshelf/internal/smb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession serves directory listings from an in-memory map keyed by the
// listing path ("" is the root). Paths in failPaths return listErr.
type fakeSession struct {
	entries   map[string][]smb.Entry
	failPaths map[string]bool
	listErr   error

	listCalls int
	closed    bool
}

func (s *fakeSession) ListDirectory(ctx context.Context, path string) ([]smb.Entry, error) {
	s.listCalls++
	if s.failPaths[path] {
		err := s.listErr
		if err == nil {
			err = errors.New("listing refused")
		}
		return nil, err
	}
	entries, ok := s.entries[path]
	if !ok {
		return nil, fmt.Errorf("no such directory: %q", path)
	}
	return entries, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func file(name string, size int64) smb.Entry {
	return smb.Entry{Name: name, Kind: smb.KindFile, Size: size}
}

func dir(name string) smb.Entry {
	return smb.Entry{Name: name, Kind: smb.KindDirectory}
}

func TestFolderScanner_CountAndFilterExtensions(t *testing.T) {
	session := &fakeSession{
		entries: map[string][]smb.Entry{
			"": {
				file("a.mkv", 100),
				file("b.MP4", 200),
				file("notes.txt", 50),
				file("noext", 10),
				file("trailing.", 5),
				{Name: "odd", Kind: smb.KindOther},
			},
		},
	}

	s := NewFolderScanner(DefaultMaxDepth, nil)
	count, size, err := s.Count(context.Background(), session, "")

	require.NoError(t, err)
	assert.Equal(t, 2, count, "only recognized video extensions count")
	assert.Equal(t, int64(300), size)
}

func TestFolderScanner_EnumerateRelativePaths(t *testing.T) {
	session := &fakeSession{
		entries: map[string][]smb.Entry{
			"Movies":        {file("root.mkv", 1), dir("Action")},
			"Movies/Action": {file("nested.mp4", 2)},
		},
	}

	s := NewFolderScanner(DefaultMaxDepth, nil)
	files, err := s.Enumerate(context.Background(), session, "Movies")

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "root.mkv", files[0].Path)
	assert.Equal(t, "Action/nested.mp4", files[1].Path)
	assert.Equal(t, "nested.mp4", files[1].Name)
}

func TestFolderScanner_DepthBound(t *testing.T) {
	// level1 is listed (depth 1), level2 is listed (depth 2), level3 is
	// beyond maxDepth 2 and never listed.
	session := &fakeSession{
		entries: map[string][]smb.Entry{
			"":               {file("l1.mkv", 1), dir("level2")},
			"level2":         {file("l2.mkv", 1), dir("level3")},
			"level2/level3":  {file("l3.mkv", 1)},
		},
	}

	s := NewFolderScanner(2, nil)
	files, err := s.Enumerate(context.Background(), session, "")

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "l1.mkv", files[0].Path)
	assert.Equal(t, "level2/l2.mkv", files[1].Path)

	// The listing beyond the bound must never have been requested.
	assert.Equal(t, 2, session.listCalls)
}

func TestFolderScanner_RootListingFailureIsFatal(t *testing.T) {
	session := &fakeSession{
		entries:   map[string][]smb.Entry{},
		failPaths: map[string]bool{"Movies": true},
		listErr:   errors.New("access denied"),
	}

	s := NewFolderScanner(DefaultMaxDepth, nil)
	_, err := s.Enumerate(context.Background(), session, "Movies")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Movies")
	assert.ErrorContains(t, err, "access denied")
}

func TestFolderScanner_SubtreeFailureTolerated(t *testing.T) {
	session := &fakeSession{
		entries: map[string][]smb.Entry{
			"":     {dir("bad"), dir("good"), file("top.mkv", 10)},
			"good": {file("inner.mkv", 20)},
		},
		failPaths: map[string]bool{"bad": true},
	}

	s := NewFolderScanner(DefaultMaxDepth, nil)
	count, size, err := s.Count(context.Background(), session, "")

	require.NoError(t, err, "a failed subtree must not fail the scan")
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(30), size)
}

func TestFolderScanner_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := &fakeSession{
		entries: map[string][]smb.Entry{"": {file("a.mkv", 1)}},
	}

	s := NewFolderScanner(DefaultMaxDepth, nil)
	_, err := s.Enumerate(ctx, session, "")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFolderScanner_CustomExtensions(t *testing.T) {
	session := &fakeSession{
		entries: map[string][]smb.Entry{
			"": {file("clip.ogv", 1), file("movie.mkv", 2)},
		},
	}

	s := NewFolderScanner(DefaultMaxDepth, []string{".ogv"})
	count, _, err := s.Count(context.Background(), session, "")

	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
