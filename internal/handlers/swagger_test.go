package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kosarica/catalog-service/docs"
)

var pathParam = regexp.MustCompile(`:(\w+)`)

// servedSwagger registers the import routes next to the swagger handler and
// returns the router with the served document.
func servedSwagger(t *testing.T) (*gin.Engine, map[string]map[string]any) {
	t.Helper()
	s := newTestServer(t)
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	return s.router, doc.Paths
}

func TestSwaggerServesDocument(t *testing.T) {
	_, paths := servedSwagger(t)
	assert.Contains(t, paths, "/health")
	assert.Contains(t, paths, "/internal/admin/extract")
	assert.Contains(t, paths, "/internal/import/queue/{id}")
}

func TestSwaggerDocumentsImportRoutes(t *testing.T) {
	router, paths := servedSwagger(t)

	var checked int
	for _, route := range router.Routes() {
		if !strings.HasPrefix(route.Path, "/internal/") {
			continue
		}
		checked++
		path := pathParam.ReplaceAllString(route.Path, "{$1}")
		ops, ok := paths[path]
		if !assert.True(t, ok, "route %s %s is not documented", route.Method, route.Path) {
			continue
		}
		assert.Contains(t, ops, strings.ToLower(route.Method), "method %s of %s is not documented", route.Method, path)
	}
	assert.Equal(t, 10, checked)
}
