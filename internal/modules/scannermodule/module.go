package scannermodule

import (
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
	// ModuleID is the unique identifier for the scanner module
	ModuleID = "netshelf.scanner"

	// ModuleName is the display name for the scanner module
	ModuleName = "Library Scanner"
)

// Module implements library scanning as a module
type Module struct {
	db       *gorm.DB
	eventBus events.EventBus
	manager  *Manager
}

var instance *Module

// Register registers the scanner module with the module system
func Register() {
	instance = &Module{}
	modulemanager.Register(instance)
}

// GetManager returns the scan manager. It is only valid after the module
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
	// Scan results live on the library tables; the scanner owns no
	// tables of its own.
	return nil
}

// Init initializes the scanner module. The share and library managers are
// resolved lazily at scan time; module initialization order does not
// guarantee they exist yet.
func (m *Module) Init() error {
	logger.Info("Initializing scanner module")

	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.eventBus == nil {
		m.eventBus = events.GetGlobalEventBus()
	}

	m.manager = NewManager(m.eventBus)

	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	registerRoutes(router, m.manager)
}
