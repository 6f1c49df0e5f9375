package handlers

import (
	"github.com/gin-gonic/gin"
)

// Register mounts the import endpoints on the /internal group.
func (h *ImportHandler) Register(internal *gin.RouterGroup) {
	admin := internal.Group("/admin")
	{
		admin.POST("/extract", h.Extract)
		admin.POST("/transform", h.Transform)
		admin.POST("/import", h.Import)
		admin.POST("/relocate", h.Relocate)
	}

	imp := internal.Group("/import")
	{
		imp.GET("/status", h.Status)
		imp.GET("/settings", h.GetSettings)
		imp.PUT("/settings", h.UpdateSettings)
		imp.GET("/runs", h.ListRuns)
		imp.DELETE("/queue", h.PurgeQueue)
		imp.DELETE("/queue/:id", h.RemoveRecord)
	}
}
