package librarymodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/events"
	"github.com/netshelf/netshelf/internal/logger"
	"github.com/netshelf/netshelf/internal/modules/modulemanager"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	// ModuleID is the unique identifier for the library module
	ModuleID = "netshelf.library"

	// ModuleName is the display name for the library module
	ModuleName = "Library Manager"
)

// Module implements library folder management as a module
type Module struct {
	db       *gorm.DB
	eventBus events.EventBus

	manager    *Manager
	indexStore *FileIndexStore
}

var instance *Module

// Register registers the library module with the module system
func Register() {
	instance = &Module{}
	modulemanager.Register(instance)
}

// GetManager returns the library manager. It is only valid after the module
// system has been loaded.
func GetManager() *Manager {
	if instance == nil {
		return nil
	}
	return instance.manager
}

// GetFileIndexStore returns the shared file index store. It is only valid
// after the module system has been loaded.
func GetFileIndexStore() *FileIndexStore {
	if instance == nil {
		return nil
	}
	return instance.indexStore
}

// ID returns the unique module identifier
func (m *Module) ID() string {
	return ModuleID
}

// Name returns the module display name
func (m *Module) Name() string {
	return ModuleName
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return true
}

// Migrate performs database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	logger.Info("Migrating library database schema")

	if err := db.AutoMigrate(
		&database.LibraryFolder{},
		&database.LibraryFile{},
	); err != nil {
		return fmt.Errorf("failed to migrate library models: %w", err)
	}

	return nil
}

// Init initializes the library module
func (m *Module) Init() error {
	logger.Info("Initializing library module")

	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.eventBus == nil {
		m.eventBus = events.GetGlobalEventBus()
	}

	m.manager = NewManager(m.db, m.eventBus)
	m.indexStore = NewFileIndexStore(m.db)

	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	registerRoutes(router, m.manager, m.indexStore)
}
