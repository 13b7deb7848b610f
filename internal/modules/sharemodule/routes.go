package sharemodule

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/smb"
)

type createShareRequest struct {
	Name      string `json:"name" binding:"required"`
	Host      string `json:"host"`
	ShareName string `json:"share_name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	LocalPath string `json:"local_path"`
}

type updateShareRequest struct {
	Name      *string `json:"name"`
	Host      *string `json:"host"`
	ShareName *string `json:"share_name"`
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	LocalPath *string `json:"local_path"`
}

func registerRoutes(router *gin.Engine, manager *Manager) {
	api := router.Group("/api/shares")
	{
		api.GET("/", func(c *gin.Context) { listShares(c, manager) })
		api.POST("/", func(c *gin.Context) { createShare(c, manager) })
		api.GET("/:id", func(c *gin.Context) { getShare(c, manager) })
		api.PUT("/:id", func(c *gin.Context) { updateShare(c, manager) })
		api.DELETE("/:id", func(c *gin.Context) { deleteShare(c, manager) })
		api.GET("/:id/status", func(c *gin.Context) { getShareStatus(c, manager) })
		api.PUT("/:id/status", func(c *gin.Context) { setShareStatus(c, manager) })
		api.POST("/:id/check", func(c *gin.Context) { checkShare(c, manager) })
	}
}

func listShares(c *gin.Context, manager *Manager) {
	shares, err := manager.ListShares(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type shareWithStatus struct {
		*database.NetworkShare
		Status interface{} `json:"status"`
	}
	out := make([]shareWithStatus, 0, len(shares))
	for _, share := range shares {
		out = append(out, shareWithStatus{share, manager.Status(share.ID)})
	}

	c.JSON(http.StatusOK, gin.H{"shares": out, "count": len(out)})
}

func createShare(c *gin.Context, manager *Manager) {
	var req createShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	share := &database.NetworkShare{
		Name:      req.Name,
		Host:      req.Host,
		ShareName: req.ShareName,
		Username:  req.Username,
		Password:  req.Password,
		LocalPath: req.LocalPath,
	}

	if err := manager.CreateShare(c.Request.Context(), share); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, share)
}

func getShare(c *gin.Context, manager *Manager) {
	share, err := manager.GetShare(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, share)
}

func updateShare(c *gin.Context, manager *Manager) {
	var req updateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Host != nil {
		updates["host"] = *req.Host
	}
	if req.ShareName != nil {
		updates["share_name"] = *req.ShareName
	}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Password != nil {
		updates["password"] = *req.Password
	}
	if req.LocalPath != nil {
		updates["local_path"] = *req.LocalPath
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if err := manager.UpdateShare(c.Request.Context(), c.Param("id"), updates); err != nil {
		if errors.Is(err, ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func deleteShare(c *gin.Context, manager *Manager) {
	if err := manager.DeleteShare(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func getShareStatus(c *gin.Context, manager *Manager) {
	// Resolve the share first so unknown IDs return 404 rather than a
	// fabricated "unknown" status.
	if _, err := manager.GetShare(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, manager.Status(c.Param("id")))
}

func setShareStatus(c *gin.Context, manager *Manager) {
	var status smb.ShareStatus
	if err := c.ShouldBindJSON(&status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch status.State {
	case smb.StateOnline, smb.StateOffline, smb.StateUnknown, smb.StateChecking:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid share state"})
		return
	}

	if err := manager.SetStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		if errors.Is(err, ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func checkShare(c *gin.Context, manager *Manager) {
	status, err := manager.CheckShare(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}
