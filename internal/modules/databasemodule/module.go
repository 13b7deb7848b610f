package databasemodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/logger"
	"github.com/netshelf/netshelf/internal/modules/modulemanager"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	// ModuleID is the unique identifier for the database module
	ModuleID = "system.database"

	// ModuleName is the display name for the database module
	ModuleName = "Database Manager"
)

// Module exposes database health and connection statistics and owns the
// shared transaction manager used by other modules.
type Module struct {
	db *gorm.DB
	tm *TransactionManager
}

var instance *Module

// Register registers the database module with the module system
func Register() {
	instance = &Module{}
	modulemanager.Register(instance)
}

// GetTransactionManager returns the shared transaction manager. It is only
// valid after the module system has been loaded.
func GetTransactionManager() *TransactionManager {
	if instance == nil {
		return nil
	}
	return instance.tm
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
	// Schema migrations for shared models run in database.Migrate during
	// bootstrap; this module owns no tables of its own.
	return nil
}

// Init initializes the database module
func (m *Module) Init() error {
	logger.Info("Initializing database module")

	if m.db == nil {
		m.db = database.GetDB()
	}
	m.tm = NewTransactionManager(m.db)

	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/database/health", m.healthHandler)
	router.GET("/api/database/stats", m.statsHandler)
}

func (m *Module) healthHandler(c *gin.Context) {
	sqlDB, err := m.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (m *Module) statsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, m.tm.GetStats())
}
