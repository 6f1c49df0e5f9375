package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/bmecat"
	"github.com/kosarica/catalog-service/internal/catalog"
	"github.com/kosarica/catalog-service/internal/history"
	"github.com/kosarica/catalog-service/internal/importer"
	"github.com/kosarica/catalog-service/internal/inbox"
	"github.com/kosarica/catalog-service/internal/lock"
	"github.com/kosarica/catalog-service/internal/pipeline"
	"github.com/kosarica/catalog-service/internal/scheduler"
	"github.com/kosarica/catalog-service/internal/settings"
	"github.com/kosarica/catalog-service/internal/staging"
)

const feed = `<BMECAT><T_NEW_CATALOG>
<CATALOG_STRUCTURE type="leaf"><GROUP_ID>10</GROUP_ID><GROUP_NAME>Widgets</GROUP_NAME></CATALOG_STRUCTURE>
<ARTICLE><SUPPLIER_AID>W-1</SUPPLIER_AID><ARTICLE_DETAILS><DESCRIPTION_SHORT>Widget</DESCRIPTION_SHORT></ARTICLE_DETAILS></ARTICLE>
<ARTICLE_TO_CATALOGGROUP_MAP><ART_ID>W-1</ART_ID><CATALOG_GROUP_ID>10</CATALOG_GROUP_ID></ARTICLE_TO_CATALOGGROUP_MAP>
</T_NEW_CATALOG></BMECAT>`

type fakeSchedule struct{}

func (fakeSchedule) Entries() []scheduler.Entry {
	return []scheduler.Entry{{Name: pipeline.JobTransform}}
}

type testServer struct {
	router  *gin.Engine
	handler *ImportHandler
	queue   *staging.MemoryQueue
	locker  *lock.Local
	inbox   *inbox.Dir
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	dir, err := inbox.New(filepath.Join(root, "inbox"), filepath.Join(root, "backup"), nil)
	require.NoError(t, err)

	queue := staging.NewMemoryQueue()
	store := catalog.NewMemoryStore()
	locker := lock.NewLocal()
	p := pipeline.New(pipeline.Deps{
		Inbox:    dir,
		Queue:    queue,
		Engine:   importer.NewEngine(importer.Deps{Queue: queue, Store: store}),
		Settings: settings.New(settings.NewMemoryKV(), settings.Defaults{BatchLimit: 200}),
		Locker:   locker,
		History:  history.NewMemoryStore(0),
	})

	h := NewImportHandler(context.Background(), p, fakeSchedule{}, nil)
	router := gin.New()
	router.GET("/health", NewHealthHandler(nil).Check)
	h.Register(router.Group("/internal"))

	return &testServer{router: router, handler: h, queue: queue, locker: locker, inbox: dir}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthCheckWithoutDatabase(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not configured", resp.Database)
}

type fakeDatabase struct{ err error }

func (f fakeDatabase) Ping(ctx context.Context) error { return f.err }

func TestHealthCheckDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		db         Database
		wantCode   int
		wantStatus string
		wantDB     string
	}{
		{"connected", fakeDatabase{}, http.StatusOK, "ok", "connected"},
		{"ping fails", fakeDatabase{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "degraded", "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", NewHealthHandler(tt.db).Check)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantCode, w.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantDB, resp.Database)
			assert.Nil(t, resp.Pool)
		})
	}
}

func TestExtractSyncAndStatus(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.inbox.Path(), "feed.xml"), []byte(feed), 0644))

	w := s.do(t, http.MethodGet, "/internal/import/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, filepath.Join(s.inbox.Path(), "feed.xml"), status.ActiveFeed)
	assert.Len(t, status.Schedule, 1)

	w = s.do(t, http.MethodPost, "/internal/admin/extract?wait=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Job    string                 `json:"job"`
		Result pipeline.ExtractResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pipeline.JobExtract, resp.Job)
	assert.Equal(t, 3, resp.Result.Total())

	w = s.do(t, http.MethodGet, "/internal/import/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status = StatusResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, int64(3), status.QueueTotal)
	assert.Equal(t, int64(1), status.Queue["product"])
	assert.Empty(t, status.ActiveFeed)
}

func TestTransformAsync(t *testing.T) {
	s := newTestServer(t)
	_, err := s.queue.Enqueue(context.Background(), staging.KindProduct, bmecat.Article{SKU: "W-1"})
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/internal/admin/transform", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	var started JobStartedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	assert.Equal(t, "started", started.Status)
	assert.NotEmpty(t, started.RequestID)

	s.handler.Wait()

	w = s.do(t, http.MethodGet, "/internal/import/runs?job=transform", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var runs ListRunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Equal(t, 1, runs.Total)
	assert.Equal(t, 1, runs.Runs[0].Drained)
	assert.Equal(t, pipeline.TriggerAPI, runs.Runs[0].Trigger)
}

func TestTransformConflictWhenLocked(t *testing.T) {
	s := newTestServer(t)
	release, ok, err := s.locker.TryLock(context.Background(), lock.Transform)
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	w := s.do(t, http.MethodPost, "/internal/admin/transform?wait=true", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/internal/import/settings", map[string]any{
		"notificationEmails": []string{"a@x.ch", "A@x.ch", "b@x.ch"},
		"batchLimit":         50,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/internal/import/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view settings.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, []string{"a@x.ch", "b@x.ch"}, view.Recipients)
	assert.Equal(t, 50, view.BatchLimit)

	w = s.do(t, http.MethodPut, "/internal/import/settings", map[string]any{"batchLimit": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueueEndpoints(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id, err := s.queue.Enqueue(ctx, staging.KindMapping, bmecat.Mapping{SKU: "W-1", GroupID: "10"})
	require.NoError(t, err)
	_, err = s.queue.Enqueue(ctx, staging.KindMapping, bmecat.Mapping{SKU: "W-2", GroupID: "10"})
	require.NoError(t, err)

	w := s.do(t, http.MethodDelete, "/internal/import/queue/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/internal/import/queue/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/internal/import/queue/"+strconv.FormatInt(id, 10), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodDelete, "/internal/import/queue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var purged PurgeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &purged))
	assert.Equal(t, int64(1), purged.Deleted)
}

func TestRelocateEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/internal/admin/relocate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp RelocateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Relocated)

	require.NoError(t, os.WriteFile(filepath.Join(s.inbox.Path(), "feed.xml"), []byte(feed), 0644))
	w = s.do(t, http.MethodPost, "/internal/admin/relocate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Relocated)
	assert.FileExists(t, resp.Path)
}
