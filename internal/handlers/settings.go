package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UpdateSettingsRequest changes import settings. Omitted fields are kept.
type UpdateSettingsRequest struct {
	NotificationEmails *[]string `json:"notificationEmails"`
	BatchLimit         *int      `json:"batchLimit" binding:"omitempty,min=1,max=10000"`
	ClearError         bool      `json:"clearError"`
}

// GetSettings returns the import settings
// @Summary Get import settings
// @Tags import
// @Produce json
// @Success 200 {object} settings.View
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/import/settings [get]
func (h *ImportHandler) GetSettings(c *gin.Context) {
	view, err := h.pipeline.Settings().Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to read settings: %v", err)})
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateSettings changes the import settings
// @Summary Update import settings
// @Tags import
// @Accept json
// @Produce json
// @Param request body UpdateSettingsRequest true "Settings"
// @Success 200 {object} settings.View
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/import/settings [put]
func (h *ImportHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	s := h.pipeline.Settings()

	if req.NotificationEmails != nil {
		if err := s.SetRecipients(ctx, *req.NotificationEmails); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to save recipients: %v", err)})
			return
		}
	}
	if req.BatchLimit != nil {
		if err := s.SetBatchLimit(ctx, *req.BatchLimit); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.ClearError {
		if err := s.SetHasError(ctx, false); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to clear error flag: %v", err)})
			return
		}
	}

	view, err := s.Snapshot(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to read settings: %v", err)})
		return
	}
	c.JSON(http.StatusOK, view)
}
