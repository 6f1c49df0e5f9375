package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/catalog-service/internal/staging"
)

// PurgeResponse reports how many staged records were deleted.
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// RemoveRecord deletes one staged record
// @Summary Remove a staged record
// @Tags import
// @Param id path int true "Record id"
// @Success 204
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/import/queue/{id} [delete]
func (h *ImportHandler) RemoveRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	err = h.pipeline.Queue().Remove(c.Request.Context(), id)
	if errors.Is(err, staging.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Staged record %d not found", id)})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to remove record: %v", err)})
		return
	}
	c.Status(http.StatusNoContent)
}

// PurgeQueue deletes every staged record
// @Summary Purge the staging queue
// @Tags import
// @Produce json
// @Success 200 {object} PurgeResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/import/queue [delete]
func (h *ImportHandler) PurgeQueue(c *gin.Context) {
	n, err := h.pipeline.Queue().Purge(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to purge queue: %v", err)})
		return
	}
	h.logger.Warn().Int64("deleted", n).Msg("Staging queue purged")
	c.JSON(http.StatusOK, PurgeResponse{Deleted: n})
}
