// Package server wires the HTTP surface of netshelf: the gin router, the
// system event bus, and the module system.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/events"
	"github.com/netshelf/netshelf/internal/logger"
	"github.com/netshelf/netshelf/internal/modules/modulemanager"
	"github.com/netshelf/netshelf/internal/modules/scannermodule"

	// Import all modules to trigger their registration
	_ "github.com/netshelf/netshelf/internal/modules/databasemodule"
	_ "github.com/netshelf/netshelf/internal/modules/eventsmodule"
	_ "github.com/netshelf/netshelf/internal/modules/librarymodule"
	_ "github.com/netshelf/netshelf/internal/modules/sharemodule"
)

var (
	systemEventBus    events.EventBus
	moduleInitialized bool
)

// SetupRouter configures and returns the main router
func SetupRouter() *gin.Engine {
	r := gin.Default()

	// CORS middleware for development
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	if err := initializeEventBus(); err != nil {
		log.Printf("Failed to initialize event bus: %v", err)
	}

	if err := initializeModules(); err != nil {
		log.Printf("Failed to initialize modules: %v", err)
	}

	setupRoutes(r)

	return r
}

// initializeModules sets up the module system and loads all modules
func initializeModules() error {
	if moduleInitialized {
		return nil
	}

	db := database.GetDB()

	// Register the event bus globally so modules can access it
	events.SetGlobalEventBus(systemEventBus)

	if err := modulemanager.LoadAll(db); err != nil {
		return err
	}

	moduleInitialized = true
	logModuleStatus()

	return nil
}

// logModuleStatus logs the loaded modules
func logModuleStatus() {
	modules := modulemanager.ListModules()

	log.Printf("✅ Module system initialized with %d modules", len(modules))

	log.Printf("┌────────────────────────────────────────────────────────────────┐")
	log.Printf("│ %-20s │ %-25s │ %-8s │", "MODULE NAME", "MODULE ID", "CORE")
	log.Printf("├────────────────────────────────────────────────────────────────┤")

	for _, module := range modules {
		coreStatus := "No"
		if module.Core() {
			coreStatus = "Yes"
		}
		log.Printf("│ %-20s │ %-25s │ %-8s │",
			truncate(module.Name(), 20),
			truncate(module.ID(), 25),
			coreStatus)
	}

	log.Printf("└────────────────────────────────────────────────────────────────┘")
}

// truncate shortens a string to the given length, adding ... if needed
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// initializeEventBus sets up the system-wide event bus
func initializeEventBus() error {
	config := events.DefaultEventBusConfig()
	config.BufferSize = 1000

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized before event bus")
	}
	storage := events.NewDatabaseEventStorage(db)

	systemEventBus = events.NewEventBus(config, &eventLogger{}, storage)

	if err := systemEventBus.Start(context.Background()); err != nil {
		log.Printf("Failed to start event bus: %v", err)
		return err
	}

	log.Println("✅ System event bus initialized and started")
	return nil
}

// eventLogger implements the events.EventLogger interface
type eventLogger struct{}

func (l *eventLogger) Info(msg string, args ...interface{}) { log.Printf("[EVENT-INFO] "+msg, args...) }
func (l *eventLogger) Error(msg string, args ...interface{}) {
	log.Printf("[EVENT-ERROR] "+msg, args...)
}
func (l *eventLogger) Warn(msg string, args ...interface{}) { log.Printf("[EVENT-WARN] "+msg, args...) }
func (l *eventLogger) Debug(msg string, args ...interface{}) {
	log.Printf("[EVENT-DEBUG] "+msg, args...)
}

// GetEventBus returns the system event bus instance
func GetEventBus() events.EventBus {
	return systemEventBus
}

// ShutdownEventBus gracefully shuts down the event bus
func ShutdownEventBus() error {
	if systemEventBus == nil {
		return nil
	}
	logger.Info("Shutting down event bus...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return systemEventBus.Stop(ctx)
}

// ShutdownScanner stops the scan manager's background workers.
func ShutdownScanner() {
	if manager := scannermodule.GetManager(); manager != nil {
		logger.Info("Shutting down scanner...")
		manager.Shutdown()
	}
}
