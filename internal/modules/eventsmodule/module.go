// Package eventsmodule exposes the system event log over HTTP. The bus
// itself is created during bootstrap; this module only migrates the event
// table and registers the query routes.
package eventsmodule

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
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
	// ModuleID is the unique identifier for the events module
	ModuleID = "system.events"

	// ModuleName is the display name for the events module
	ModuleName = "Event Manager"
)

// Module implements the events API as a module
type Module struct {
	eventBus events.EventBus
}

// Register registers the events module with the module system
func Register() {
	modulemanager.Register(&Module{})
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
	logger.Info("Migrating events database schema")

	if err := db.AutoMigrate(&events.SystemEvent{}); err != nil {
		return fmt.Errorf("failed to migrate event models: %w", err)
	}

	return nil
}

// Init initializes the events module
func (m *Module) Init() error {
	logger.Info("Initializing events module")

	if m.eventBus == nil {
		m.eventBus = events.GetGlobalEventBus()
	}
	if m.eventBus == nil {
		return fmt.Errorf("global event bus not initialized")
	}

	return nil
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/events")
	{
		api.GET("/", m.listEvents)
		api.GET("/stats", m.getStats)
		api.GET("/subscriptions", m.listSubscriptions)
		api.GET("/health", m.health)
		api.DELETE("/", m.clearEvents)
	}
}

// listEvents returns stored events, newest first, filtered by the optional
// type/source/priority query parameters.
func (m *Module) listEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var filter events.EventFilter
	if t := c.Query("type"); t != "" {
		filter.Types = []events.EventType{events.EventType(t)}
	}
	if s := c.Query("source"); s != "" {
		filter.Sources = []string{s}
	}
	if p := c.Query("priority"); p != "" {
		val, err := strconv.Atoi(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
			return
		}
		priority := events.EventPriority(val)
		filter.Priority = &priority
	}

	evts, total, err := m.eventBus.GetEvents(filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": evts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (m *Module) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, m.eventBus.GetStats())
}

func (m *Module) listSubscriptions(c *gin.Context) {
	subs := m.eventBus.GetSubscriptions()
	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"count":         len(subs),
	})
}

func (m *Module) health(c *gin.Context) {
	if err := m.eventBus.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (m *Module) clearEvents(c *gin.Context) {
	if err := m.eventBus.ClearEvents(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
