package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r http.Handler, header map[string]string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestInternalAuthMiddleware(t *testing.T) {
	r := newRouter(InternalAuthMiddleware("secret"))
	assert.Equal(t, http.StatusUnauthorized, get(r, nil))
	assert.Equal(t, http.StatusUnauthorized, get(r, map[string]string{APIKeyHeader: "wrong"}))
	assert.Equal(t, http.StatusOK, get(r, map[string]string{APIKeyHeader: "secret"}))

	misconfigured := newRouter(InternalAuthMiddleware(""))
	assert.Equal(t, http.StatusInternalServerError, get(misconfigured, map[string]string{APIKeyHeader: ""}))
}

func TestServiceRateLimitMiddleware(t *testing.T) {
	r := newRouter(ServiceRateLimitMiddleware(0.001, 2))
	assert.Equal(t, http.StatusOK, get(r, nil))
	assert.Equal(t, http.StatusOK, get(r, nil))
	assert.Equal(t, http.StatusTooManyRequests, get(r, nil))
}

func TestRateLimitMiddlewarePerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newRouter(RateLimitMiddleware(ctx, RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 1}))

	assert.Equal(t, http.StatusOK, get(r, nil))
	assert.Equal(t, http.StatusTooManyRequests, get(r, nil))
}

func TestCleanupOldLimiters(t *testing.T) {
	now := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	rl := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	rl.now = func() time.Time { return now }

	rl.GetLimiter("10.0.0.1")
	now = now.Add(2 * time.Minute)
	rl.GetLimiter("10.0.0.2")

	assert.Equal(t, 1, rl.CleanupOldLimiters())
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "10.0.0.2")
}
