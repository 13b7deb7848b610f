package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/netshelf/netshelf/internal/config"
	"github.com/netshelf/netshelf/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// Initialize opens the database described by the configuration and migrates
// the core schema. It must be called once before GetDB.
func Initialize(cfg *config.DatabaseConfig) error {
	var err error

	switch cfg.Type {
	case "postgres":
		db, err = connectPostgres(cfg)
	case "sqlite":
		db, err = connectSQLite(cfg)
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}

	if err := Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate core schema: %w", err)
	}

	logger.Info("Database initialized (%s)", cfg.Type)
	return nil
}

// Migrate creates the core tables. Modules migrate their own additions via
// the module registry.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&NetworkShare{},
		&LibraryFolder{},
		&LibraryFile{},
	)
}

func connectPostgres(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogMode(cfg.LogQueries),
	})
}

func connectSQLite(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	return gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: gormLogMode(cfg.LogQueries),
	})
}

func gormLogMode(logQueries bool) gormlogger.Interface {
	if logQueries {
		return gormlogger.Default.LogMode(gormlogger.Info)
	}
	return gormlogger.Default.LogMode(gormlogger.Warn)
}

// GetDB returns the process-wide database handle.
func GetDB() *gorm.DB {
	return db
}

// SetDB replaces the process-wide handle. Used by tests.
func SetDB(d *gorm.DB) {
	db = d
}
