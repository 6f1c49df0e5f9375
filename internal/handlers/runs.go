package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/catalog-service/internal/history"
)

// ListRunsRequest represents query parameters for listing runs
type ListRunsRequest struct {
	Job   string `form:"job" json:"job" jsonschema:"enum=extract,enum=transform,enum=import,enum=relocate"`
	Limit int    `form:"limit" json:"limit" binding:"omitempty,min=1,max=100" jsonschema:"minimum=1,maximum=100"`
}

// ListRunsResponse represents the response for listing runs
type ListRunsResponse struct {
	Runs  []history.Run `json:"runs" jsonschema:"required"`
	Total int           `json:"total" jsonschema:"required"`
}

// ListRuns returns the most recent job runs
// @Summary List import runs
// @Description Returns the most recent import job runs, newest first
// @Tags import
// @Produce json
// @Param job query string false "Filter by job" Enums(extract, transform, import, relocate)
// @Param limit query int false "Number of items to return" default(20) minimum(1) maximum(100)
// @Success 200 {object} ListRunsResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/import/runs [get]
func (h *ImportHandler) ListRuns(c *gin.Context) {
	var req ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	// Filtering happens after the fetch, so ask for the maximum when a job
	// filter is set.
	fetch := req.Limit
	if req.Job != "" {
		fetch = 100
	}
	runs, err := h.pipeline.History().Recent(c.Request.Context(), fetch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to list runs: %v", err)})
		return
	}

	out := make([]history.Run, 0, len(runs))
	for _, r := range runs {
		if req.Job != "" && r.Job != req.Job {
			continue
		}
		if len(out) == req.Limit {
			break
		}
		out = append(out, r)
	}
	c.JSON(http.StatusOK, ListRunsResponse{Runs: out, Total: len(out)})
}
