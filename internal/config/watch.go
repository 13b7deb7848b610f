package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/netshelf/netshelf/internal/logger"
)

// FileWatcher reloads the configuration when the config file changes on
// disk. Editors typically produce a burst of writes, so reloads are
// debounced.
type FileWatcher struct {
	manager *Manager
	watcher *fsnotify.Watcher
	path    string

	debounce time.Duration
	timerMu  sync.Mutex
	timer    *time.Timer

	stopOnce sync.Once
	done     chan struct{}
}

// WatchFile starts watching the given config file for changes. The watch
// covers the containing directory because many editors replace the file on
// save rather than writing in place.
func (m *Manager) WatchFile(path string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch config dir: %w", err)
	}

	fw := &FileWatcher{
		manager:  m,
		watcher:  w,
		path:     path,
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}

	go fw.run()
	logger.Info("Watching config file for changes: %s", path)
	return fw, nil
}

// Stop stops the watcher.
func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		close(fw.done)
		fw.watcher.Close()
	})
}

func (fw *FileWatcher) run() {
	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(fw.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.scheduleReload()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error: %v", err)
		}
	}
}

func (fw *FileWatcher) scheduleReload() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, func() {
		if err := fw.manager.LoadConfig(fw.path); err != nil {
			logger.Error("Config reload failed, keeping previous config: %v", err)
			return
		}
		logger.Info("Configuration reloaded from %s", fw.path)
	})
}
