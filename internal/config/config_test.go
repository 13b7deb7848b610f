package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 10, cfg.Scanner.MaxDepth)
	assert.Equal(t, 1, cfg.Scanner.ShareConcurrency)
	assert.Contains(t, cfg.Scanner.VideoExtensions, "mkv")
	assert.True(t, cfg.Scanner.PacingEnabled)
	assert.Equal(t, 15*time.Second, cfg.Scanner.ConnectTimeout)
	assert.Equal(t, 1000, cfg.Events.BufferSize)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	manager := NewManager()

	require.NoError(t, manager.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Equal(t, Default().Server.Port, manager.GetConfig().Server.Port)
}

func TestLoadConfig_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netshelf.yaml")
	content := `
server:
  port: 9000
scanner:
  max_depth: 3
  video_extensions: [mkv, ogv]
  share_concurrency: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	manager := NewManager()
	require.NoError(t, manager.LoadConfig(path))

	cfg := manager.GetConfig()
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Scanner.MaxDepth)
	assert.Equal(t, []string{"mkv", "ogv"}, cfg.Scanner.VideoExtensions)
	assert.Equal(t, 4, cfg.Scanner.ShareConcurrency)
	assert.Equal(t, path, manager.ConfigPath())
}

func TestLoadConfig_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netshelf.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 9000"), 0o644))

	err := NewManager().LoadConfig(path)
	assert.ErrorContains(t, err, "unsupported config file format")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("NETSHELF_PORT", "8181")
	t.Setenv("NETSHELF_SCAN_MAX_DEPTH", "2")
	t.Setenv("NETSHELF_VIDEO_EXTENSIONS", "mkv, mp4 ,webm")
	t.Setenv("NETSHELF_SCAN_PACING", "false")
	t.Setenv("NETSHELF_CONNECT_TIMEOUT", "5s")

	manager := NewManager()
	require.NoError(t, manager.LoadConfig(""))

	cfg := manager.GetConfig()
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Scanner.MaxDepth)
	assert.Equal(t, []string{"mkv", "mp4", "webm"}, cfg.Scanner.VideoExtensions)
	assert.False(t, cfg.Scanner.PacingEnabled)
	assert.Equal(t, 5*time.Second, cfg.Scanner.ConnectTimeout)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netshelf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644))
	t.Setenv("NETSHELF_PORT", "9001")

	manager := NewManager()
	require.NoError(t, manager.LoadConfig(path))
	assert.Equal(t, 9001, manager.GetConfig().Server.Port)
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad port", map[string]string{"NETSHELF_PORT": "0"}, "invalid server port"},
		{"bad database type", map[string]string{"DATABASE_TYPE": "mongo"}, "unsupported database type"},
		{"bad max depth", map[string]string{"NETSHELF_SCAN_MAX_DEPTH": "0"}, "invalid scanner max depth"},
		{"bad concurrency", map[string]string{"NETSHELF_SHARE_CONCURRENCY": "0"}, "invalid share concurrency"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			err := NewManager().LoadConfig("")
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestLoadConfig_EmptyExtensionsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netshelf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scanner:\n  video_extensions: []\n"), 0o644))

	err := NewManager().LoadConfig(path)
	assert.ErrorContains(t, err, "video extension whitelist is empty")
}

func TestLoadConfig_DerivedSqlitePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NETSHELF_DATA_DIR", dir)

	manager := NewManager()
	require.NoError(t, manager.LoadConfig(""))
	assert.Equal(t, filepath.Join(dir, "netshelf.db"), manager.GetConfig().Database.DatabasePath)
}

func TestManager_Watchers(t *testing.T) {
	manager := NewManager()

	notified := make(chan int, 1)
	manager.AddWatcher(func(oldConfig, newConfig *Config) {
		notified <- newConfig.Server.Port
	})

	t.Setenv("NETSHELF_PORT", "8500")
	require.NoError(t, manager.LoadConfig(""))

	select {
	case port := <-notified:
		assert.Equal(t, 8500, port)
	case <-time.After(time.Second):
		t.Fatal("watcher was not notified")
	}
}
