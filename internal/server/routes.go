// This file contains the core route definitions; module routes register
// themselves through the module system.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/netshelf/netshelf/internal/apiroutes"
	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/modules/modulemanager"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var serverStartedAt = time.Now()

// setupRoutes configures the core routes and hands the router to every
// module that registers its own.
func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", handleHealthCheck)
		apiroutes.Register(api.BasePath()+"/health", "GET", "System health check.")

		api.GET("/db-status", handleDBStatus)
		apiroutes.Register(api.BasePath()+"/db-status", "GET", "Database connection status.")

		api.GET("/", handleListRoutes)
		apiroutes.Register(api.BasePath(), "GET", "Lists all available API endpoints.")
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	apiroutes.Register("/metrics", "GET", "Prometheus metrics.")

	apiroutes.Register("/api/shares", "GET, POST", "Manages network shares.")
	apiroutes.Register("/api/library/folders", "GET, POST", "Manages library folders.")
	apiroutes.Register("/api/scanner/scan", "POST", "Starts a library scan.")
	apiroutes.Register("/api/events", "GET, DELETE", "Queries the system event log.")

	modulemanager.RegisterRoutes(r)
}

func handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(serverStartedAt).String(),
		"modules": len(modulemanager.ListModules()),
	})
}

func handleDBStatus(c *gin.Context) {
	db := database.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": "database not initialized"})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}

	stats := sqlDB.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
	})
}

func handleListRoutes(c *gin.Context) {
	routes := apiroutes.Get()
	c.JSON(http.StatusOK, gin.H{"routes": routes, "count": len(routes)})
}
