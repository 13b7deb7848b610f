package sharemodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/events"
	"github.com/netshelf/netshelf/internal/logger"
	"github.com/netshelf/netshelf/internal/modules/modulemanager"
	"github.com/netshelf/netshelf/internal/smb"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	// ModuleID is the unique identifier for the share module
	ModuleID = "netshelf.shares"

	// ModuleName is the display name for the share module
	ModuleName = "Share Manager"
)

// Module implements network share management as a module
type Module struct {
	db       *gorm.DB
	eventBus events.EventBus
	manager  *Manager
}

var instance *Module

// Register registers the share module with the module system
func Register() {
	instance = &Module{}
	modulemanager.Register(instance)
}

// GetManager returns the share manager. It is only valid after the module
// system has been loaded.
func GetManager() *Manager {
	if instance == nil {
		return nil
	}
	return instance.manager
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
	logger.Info("Migrating share database schema")

	if err := db.AutoMigrate(&database.NetworkShare{}); err != nil {
		return fmt.Errorf("failed to migrate share models: %w", err)
	}

	return nil
}

// Init initializes the share module
func (m *Module) Init() error {
	logger.Info("Initializing share module")

	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.eventBus == nil {
		m.eventBus = events.GetGlobalEventBus()
	}

	m.manager = NewManager(m.db, m.eventBus, smb.NewLocalConnector())

	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	registerRoutes(router, m.manager)
}
