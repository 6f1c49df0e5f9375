package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is what the health check needs from the connection pool.
type Database interface {
	Ping(ctx context.Context) error
}

type poolStater interface {
	Stat() *pgxpool.Stat
}

// PoolStats summarises the connection pool.
type PoolStats struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
	Max      int32 `json:"max"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string     `json:"status"`
	Database string     `json:"database"`
	Pool     *PoolStats `json:"pool,omitempty"`
}

// HealthHandler reports service and database health.
type HealthHandler struct {
	db Database
}

// NewHealthHandler creates a HealthHandler. db is nil when the service runs
// on in-memory stores.
func NewHealthHandler(db Database) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles the health check endpoint
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
	}

	if h.db == nil {
		response.Database = "not configured"
		c.JSON(http.StatusOK, response)
		return
	}

	if err := h.db.Ping(c.Request.Context()); err != nil {
		response.Status = "degraded"
		response.Database = "disconnected"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	response.Database = "connected"
	if s, ok := h.db.(poolStater); ok {
		st := s.Stat()
		response.Pool = &PoolStats{
			Total:    st.TotalConns(),
			Idle:     st.IdleConns(),
			Acquired: st.AcquiredConns(),
			Max:      st.MaxConns(),
		}
	}
	c.JSON(http.StatusOK, response)
}
