package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kosarica/catalog-service/internal/pipeline"
	"github.com/kosarica/catalog-service/internal/scheduler"
)

// jobTimeout bounds a job started over HTTP.
const jobTimeout = 30 * time.Minute

// Schedule exposes the periodic job state.
type Schedule interface {
	Entries() []scheduler.Entry
}

// ImportHandler serves the import admin endpoints.
type ImportHandler struct {
	pipeline *pipeline.Pipeline
	schedule Schedule
	logger   *zerolog.Logger

	// base is the parent context of jobs started in the background.
	base context.Context
	sem  chan struct{}
	wg   sync.WaitGroup
}

// NewImportHandler creates an ImportHandler. schedule may be nil. Background
// jobs are cancelled when base is.
func NewImportHandler(base context.Context, p *pipeline.Pipeline, schedule Schedule, logger *zerolog.Logger) *ImportHandler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ImportHandler{
		pipeline: p,
		schedule: schedule,
		logger:   logger,
		base:     base,
		sem:      make(chan struct{}, 4),
	}
}

// Wait blocks until background jobs have returned.
func (h *ImportHandler) Wait() {
	h.wg.Wait()
}

// JobStartedResponse is returned when a job was started in the background.
type JobStartedResponse struct {
	RequestID string `json:"requestId"`
	Job       string `json:"job"`
	Status    string `json:"status"`
	PollURL   string `json:"pollUrl"`
}

// JobResponse is returned when a job ran synchronously.
type JobResponse struct {
	Job    string `json:"job"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
}

type jobFunc func(ctx context.Context) (any, error)

// run starts fn in the background, or runs it in the request when the
// query has wait=true.
func (h *ImportHandler) run(c *gin.Context, job string, fn jobFunc) {
	if c.Query("wait") == "true" {
		result, err := fn(c.Request.Context())
		if errors.Is(err, pipeline.ErrJobRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s failed: %v", job, err)})
			return
		}
		c.JSON(http.StatusOK, JobResponse{Job: job, Status: "completed", Result: result})
		return
	}

	requestID := uuid.NewString()
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.sem <- struct{}{}
		defer func() { <-h.sem }()

		ctx, cancel := context.WithTimeout(h.base, jobTimeout)
		defer cancel()
		if _, err := fn(ctx); err != nil {
			ev := h.logger.Error()
			if errors.Is(err, pipeline.ErrJobRunning) {
				ev = h.logger.Warn()
			}
			ev.Err(err).Str("job", job).Str("request_id", requestID).Msg("Triggered job did not complete")
		}
	}()

	c.JSON(http.StatusAccepted, JobStartedResponse{
		RequestID: requestID,
		Job:       job,
		Status:    "started",
		PollURL:   "/internal/import/runs",
	})
}

// Extract triggers an extract run
// @Summary Extract the active feed
// @Description Stages every element of the active inbox file and moves the file to backup
// @Tags admin
// @Produce json
// @Param wait query bool false "Run synchronously"
// @Success 200 {object} JobResponse
// @Success 202 {object} JobStartedResponse
// @Failure 409 {object} map[string]string "Job already running"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/admin/extract [post]
func (h *ImportHandler) Extract(c *gin.Context) {
	h.run(c, pipeline.JobExtract, func(ctx context.Context) (any, error) {
		return h.pipeline.Extract(ctx, pipeline.TriggerAPI)
	})
}

// Transform triggers a transform run
// @Summary Transform one batch
// @Description Drains one batch from the staging queue into the catalog
// @Tags admin
// @Produce json
// @Param wait query bool false "Run synchronously"
// @Success 200 {object} JobResponse
// @Success 202 {object} JobStartedResponse
// @Failure 409 {object} map[string]string "Job already running"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/admin/transform [post]
func (h *ImportHandler) Transform(c *gin.Context) {
	h.run(c, pipeline.JobTransform, func(ctx context.Context) (any, error) {
		return h.pipeline.Transform(ctx, pipeline.TriggerAPI)
	})
}

// Import triggers a full import cycle
// @Summary Import now
// @Description Extracts the active feed and drains the staging queue
// @Tags admin
// @Produce json
// @Param wait query bool false "Run synchronously"
// @Success 200 {object} JobResponse
// @Success 202 {object} JobStartedResponse
// @Failure 409 {object} map[string]string "Job already running"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/admin/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	h.run(c, pipeline.JobImport, func(ctx context.Context) (any, error) {
		return h.pipeline.ImportNow(ctx, pipeline.TriggerAPI)
	})
}

// RelocateResponse is the result of a relocation.
type RelocateResponse struct {
	Relocated bool   `json:"relocated"`
	Path      string `json:"path,omitempty"`
}

// Relocate moves the active feed to backup
// @Summary Relocate the active feed
// @Tags admin
// @Produce json
// @Success 200 {object} RelocateResponse
// @Router /internal/admin/relocate [post]
func (h *ImportHandler) Relocate(c *gin.Context) {
	path := h.pipeline.Relocate(c.Request.Context(), pipeline.TriggerAPI)
	c.JSON(http.StatusOK, RelocateResponse{Relocated: path != "", Path: path})
}

// StatusResponse describes the importer state.
type StatusResponse struct {
	Queue      map[string]int64  `json:"queue"`
	QueueTotal int64             `json:"queueTotal"`
	HasError   bool              `json:"hasError"`
	BatchLimit int               `json:"batchLimit"`
	ActiveFeed string            `json:"activeFeed,omitempty"`
	Schedule   []scheduler.Entry `json:"schedule,omitempty"`
}

// Status returns queue depth, error flag and schedule
// @Summary Import status
// @Tags import
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/import/status [get]
func (h *ImportHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.pipeline.Queue().CountByKind(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to count staged records: %v", err)})
		return
	}
	view, err := h.pipeline.Settings().Snapshot(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to read settings: %v", err)})
		return
	}

	resp := StatusResponse{
		Queue:      make(map[string]int64, len(counts)),
		HasError:   view.HasError,
		BatchLimit: view.BatchLimit,
	}
	for kind, n := range counts {
		resp.Queue[string(kind)] = n
		resp.QueueTotal += n
	}
	if active, err := h.pipeline.Inbox().Active(); err == nil {
		resp.ActiveFeed = active
	}
	if h.schedule != nil {
		resp.Schedule = h.schedule.Entries()
	}
	c.JSON(http.StatusOK, resp)
}
