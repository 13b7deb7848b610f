package librarymodule

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/netshelf/netshelf/internal/database"
)

type createFolderRequest struct {
	ShareID string `json:"share_id" binding:"required"`
	Path    string `json:"path"`
	Type    string `json:"type" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

type renameFolderRequest struct {
	Name string `json:"name" binding:"required"`
}

func registerRoutes(router *gin.Engine, manager *Manager, indexStore *FileIndexStore) {
	api := router.Group("/api/library/folders")
	{
		api.GET("/", func(c *gin.Context) { listFolders(c, manager) })
		api.POST("/", func(c *gin.Context) { createFolder(c, manager) })
		api.GET("/:id", func(c *gin.Context) { getFolder(c, manager) })
		api.PUT("/:id", func(c *gin.Context) { renameFolder(c, manager) })
		api.DELETE("/:id", func(c *gin.Context) { deleteFolder(c, manager) })
		api.GET("/:id/files", func(c *gin.Context) { listFolderFiles(c, manager, indexStore) })
	}
}

func listFolders(c *gin.Context, manager *Manager) {
	var (
		folders []*database.LibraryFolder
		err     error
	)
	if shareID := c.Query("share_id"); shareID != "" {
		folders, err = manager.ListFoldersByShare(c.Request.Context(), shareID)
	} else {
		folders, err = manager.ListFolders(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders, "count": len(folders)})
}

func createFolder(c *gin.Context, manager *Manager) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder := &database.LibraryFolder{
		ShareID: req.ShareID,
		Path:    req.Path,
		Type:    database.FolderType(req.Type),
		Name:    req.Name,
	}

	if err := manager.CreateFolder(c.Request.Context(), folder); err != nil {
		if errors.Is(err, ErrFolderExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, folder)
}

func getFolder(c *gin.Context, manager *Manager) {
	folder, err := manager.GetFolder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrFolderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, folder)
}

func renameFolder(c *gin.Context, manager *Manager) {
	var req renameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := manager.RenameFolder(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		if errors.Is(err, ErrFolderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "renamed"})
}

func deleteFolder(c *gin.Context, manager *Manager) {
	if err := manager.DeleteFolder(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrFolderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func listFolderFiles(c *gin.Context, manager *Manager, indexStore *FileIndexStore) {
	folderID := c.Param("id")
	if _, err := manager.GetFolder(c.Request.Context(), folderID); err != nil {
		if errors.Is(err, ErrFolderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	files, err := indexStore.Load(c.Request.Context(), folderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "count": len(files)})
}
