// Package config holds the application configuration: defaults, a yaml
// config file, and environment overrides applied via `env:` struct tags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Scanner  ScannerConfig  `yaml:"scanner" json:"scanner"`
	Events   EventsConfig   `yaml:"events" json:"events"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" env:"NETSHELF_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" json:"port" env:"NETSHELF_PORT" default:"8090"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" env:"NETSHELF_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"NETSHELF_WRITE_TIMEOUT" default:"30s"`
	EnableCORS   bool          `yaml:"enable_cors" json:"enable_cors" env:"NETSHELF_ENABLE_CORS" default:"true"`
}

// DatabaseConfig holds persistence configuration
type DatabaseConfig struct {
	Type         string `yaml:"type" json:"type" env:"DATABASE_TYPE" default:"sqlite"`
	Host         string `yaml:"host" json:"host" env:"POSTGRES_HOST" default:"localhost"`
	Port         int    `yaml:"port" json:"port" env:"POSTGRES_PORT" default:"5432"`
	Username     string `yaml:"username" json:"username" env:"POSTGRES_USER" default:"netshelf"`
	Password     string `yaml:"password" json:"-" env:"POSTGRES_PASSWORD"`
	Database     string `yaml:"database" json:"database" env:"POSTGRES_DB" default:"netshelf"`
	DataDir      string `yaml:"data_dir" json:"data_dir" env:"NETSHELF_DATA_DIR" default:"./netshelf-data"`
	DatabasePath string `yaml:"database_path" json:"database_path" env:"NETSHELF_DATABASE_PATH"`
	LogQueries   bool   `yaml:"log_queries" json:"log_queries" env:"DB_LOG_QUERIES" default:"false"`
}

// ScannerConfig holds library scan configuration
type ScannerConfig struct {
	// MaxDepth bounds recursive traversal of a folder; subtrees at or
	// beyond this depth are excluded from the scan.
	MaxDepth int `yaml:"max_depth" json:"max_depth" env:"NETSHELF_SCAN_MAX_DEPTH" default:"10"`

	// VideoExtensions is the whitelist of file extensions that count as
	// video content, without the leading dot.
	VideoExtensions []string `yaml:"video_extensions" json:"video_extensions" env:"NETSHELF_VIDEO_EXTENSIONS"`

	// ShareConcurrency is the number of shares scanned in parallel. Folders
	// on one share are always scanned sequentially over the share's single
	// connection. 1 disables parallelism.
	ShareConcurrency int `yaml:"share_concurrency" json:"share_concurrency" env:"NETSHELF_SHARE_CONCURRENCY" default:"1"`

	// PacingEnabled inserts a short delay between folders when the local
	// system is under heavy load.
	PacingEnabled bool `yaml:"pacing_enabled" json:"pacing_enabled" env:"NETSHELF_SCAN_PACING" default:"true"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout" env:"NETSHELF_CONNECT_TIMEOUT" default:"15s"`
}

// EventsConfig holds event bus configuration
type EventsConfig struct {
	BufferSize        int           `yaml:"buffer_size" json:"buffer_size" env:"NETSHELF_EVENT_BUFFER" default:"1000"`
	EnablePersistence bool          `yaml:"enable_persistence" json:"enable_persistence" env:"NETSHELF_EVENT_PERSISTENCE" default:"true"`
	MaxEventAge       time.Duration `yaml:"max_event_age" json:"max_event_age" env:"NETSHELF_EVENT_MAX_AGE" default:"168h"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" env:"NETSHELF_LOG_LEVEL" default:"info"`
}

// Manager manages application configuration with reload support
type Manager struct {
	config     *Config
	configPath string
	watchers   []Watcher
	mu         sync.RWMutex
}

// Watcher is called when configuration changes
type Watcher func(oldConfig, newConfig *Config)

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global configuration manager instance
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = NewManager()
	})
	return globalManager
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{config: Default()}
}

// Default returns the default application configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8090,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   true,
		},
		Database: DatabaseConfig{
			Type:     "sqlite",
			Host:     "localhost",
			Port:     5432,
			Username: "netshelf",
			Database: "netshelf",
			DataDir:  "./netshelf-data",
		},
		Scanner: ScannerConfig{
			MaxDepth:         10,
			VideoExtensions:  []string{"mkv", "mp4", "avi", "mov", "wmv", "m4v", "ts", "webm"},
			ShareConcurrency: 1,
			PacingEnabled:    true,
			ConnectTimeout:   15 * time.Second,
		},
		Events: EventsConfig{
			BufferSize:        1000,
			EnablePersistence: true,
			MaxEventAge:       7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func (m *Manager) LoadConfig(configPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldConfig := *m.config
	m.configPath = configPath

	newConfig := Default()

	if configPath != "" && fileExists(configPath) {
		if err := loadFromFile(configPath, newConfig); err != nil {
			return fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadStructFromEnv(reflect.ValueOf(newConfig).Elem()); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validate(newConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDerived(newConfig)

	m.config = newConfig

	for _, watcher := range m.watchers {
		go watcher(&oldConfig, newConfig)
	}

	return nil
}

// GetConfig returns the current configuration (thread-safe copy)
func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configCopy := *m.config
	return &configCopy
}

// AddWatcher adds a configuration change watcher
func (m *Manager) AddWatcher(w Watcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, w)
}

// ConfigPath returns the path the current configuration was loaded from.
func (m *Manager) ConfigPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

func loadStructFromEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := loadStructFromEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(intVal)
		}
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			values := strings.Split(value, ",")
			for i, v := range values {
				values[i] = strings.TrimSpace(v)
			}
			field.Set(reflect.ValueOf(values))
		}
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

func validate(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Type != "sqlite" && config.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}

	if config.Scanner.MaxDepth < 1 {
		return fmt.Errorf("invalid scanner max depth: %d", config.Scanner.MaxDepth)
	}

	if config.Scanner.ShareConcurrency < 1 {
		return fmt.Errorf("invalid share concurrency: %d", config.Scanner.ShareConcurrency)
	}

	if len(config.Scanner.VideoExtensions) == 0 {
		return fmt.Errorf("video extension whitelist is empty")
	}

	return nil
}

func applyDerived(config *Config) {
	if config.Database.DatabasePath == "" && config.Database.Type == "sqlite" {
		config.Database.DatabasePath = filepath.Join(config.Database.DataDir, "netshelf.db")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Global convenience functions

// Get returns the current global configuration
func Get() *Config {
	return GetManager().GetConfig()
}

// Load loads configuration from the specified path
func Load(configPath string) error {
	return GetManager().LoadConfig(configPath)
}

// AddWatcher adds a global configuration watcher
func AddWatcher(w Watcher) {
	GetManager().AddWatcher(w)
}
