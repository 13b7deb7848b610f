package scannermodule

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/netshelf/netshelf/internal/config"
	"github.com/netshelf/netshelf/internal/logger"
	"github.com/netshelf/netshelf/internal/modules/librarymodule"
	"github.com/netshelf/netshelf/internal/modules/sharemodule"
)

func registerRoutes(router *gin.Engine, manager *Manager) {
	api := router.Group("/api/scanner")
	{
		api.POST("/scan", func(c *gin.Context) { startScan(c, manager) })
		api.POST("/scan/folder/:folderId", func(c *gin.Context) { scanFolder(c, manager) })
		api.POST("/scan/share/:shareId", func(c *gin.Context) { scanShare(c, manager) })
		api.GET("/status", func(c *gin.Context) { scanStatus(c, manager) })
		api.GET("/config", scanConfig)
	}
}

// startScan kicks off a scan of every registered folder. The scan runs in
// the background; pass ?wait=true to block until it finishes.
func startScan(c *gin.Context, manager *Manager) {
	if c.Query("wait") == "true" {
		result, err := manager.ScanAll(c.Request.Context())
		if err != nil {
			if errors.Is(err, ErrScanInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	if manager.IsScanning() {
		c.JSON(http.StatusConflict, gin.H{"error": ErrScanInProgress.Error()})
		return
	}

	go func() {
		if _, err := manager.ScanAll(context.Background()); err != nil {
			logger.Error("Background library scan failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// scanShare scans every folder on one share synchronously.
func scanShare(c *gin.Context, manager *Manager) {
	result, err := manager.ScanShare(c.Request.Context(), c.Param("shareId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrScanInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, sharemodule.ErrShareNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// scanFolder scans one folder synchronously and returns its run aggregate.
func scanFolder(c *gin.Context, manager *Manager) {
	result, err := manager.ScanFolder(c.Request.Context(), c.Param("folderId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrScanInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, librarymodule.ErrFolderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func scanStatus(c *gin.Context, manager *Manager) {
	c.JSON(http.StatusOK, gin.H{
		"scanning":    manager.IsScanning(),
		"last_result": manager.LastResult(),
	})
}

// scanConfig exposes the settings the next run will use.
func scanConfig(c *gin.Context) {
	c.JSON(http.StatusOK, config.Get().Scanner)
}
