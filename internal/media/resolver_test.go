package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/catalog"
	apphttp "github.com/kosarica/catalog-service/internal/http"
	"github.com/kosarica/catalog-service/internal/http/ratelimit"
	"github.com/kosarica/catalog-service/internal/storage"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	resolver  *Resolver
	store     *catalog.MemoryStore
	server    *httptest.Server
	downloads *atomic.Int32
}

func newFixture(t *testing.T, handler http.HandlerFunc, opts ...Option) *fixture {
	t.Helper()
	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := catalog.NewMemoryStore()
	client := apphttp.NewClient(ratelimit.Config{MaxRetries: 0})

	return &fixture{
		resolver:  NewResolver(store, files, client, nil, opts...),
		store:     store,
		server:    srv,
		downloads: &downloads,
	}
}

func TestResolveDedupByFilenameAndOrigin(t *testing.T) {
	body := pngBytes(t, 4, 3)
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) { w.Write(body) })
	ctx := context.Background()

	id1, err := f.resolver.Resolve(ctx, "W-1", f.server.URL+"/a/w1.png", "a/w1.png")
	require.NoError(t, err)
	assert.NotZero(t, id1)

	id2, err := f.resolver.Resolve(ctx, "W-1", f.server.URL+"/a/w1.png", "a/w1.png")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, int32(1), f.downloads.Load())

	// Same basename from another source path is a different asset.
	id3, err := f.resolver.Resolve(ctx, "W-2", f.server.URL+"/b/w1.png", "b/w1.png")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
	assert.Equal(t, int32(2), f.downloads.Load())
	assert.Equal(t, 2, f.store.Assets())

	asset, err := f.store.FindAsset(ctx, "w1.png", "a/w1.png")
	require.NoError(t, err)
	assert.Equal(t, 4, asset.Width)
	assert.Equal(t, 3, asset.Height)
	assert.Equal(t, "image/png", asset.ContentType)
}

func TestResolveRejectsUnsupportedType(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("%PDF-1.4 not an image"))
	})

	_, err := f.resolver.Resolve(context.Background(), "W-1", f.server.URL+"/doc.png", "doc.png")
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Equal(t, 0, f.store.Assets())
}

func TestResolveDownloadTimeout(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := f.resolver.Resolve(context.Background(), "W-1", f.server.URL+"/slow.png", "slow.png")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolveConcurrentSingleDownload(t *testing.T) {
	body := pngBytes(t, 2, 2)
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write(body)
	})

	var wg sync.WaitGroup
	ids := make([]int64, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := f.resolver.Resolve(context.Background(), "W-1", f.server.URL+"/c.png", "c.png")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.downloads.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestFilenameAndJoinURL(t *testing.T) {
	name, err := Filename("https://img.example.com/x/y/Foto%20A.jpg?v=2")
	require.NoError(t, err)
	assert.Equal(t, "Foto A.jpg", name)

	_, err = Filename("https://img.example.com/")
	assert.Error(t, err)

	assert.Equal(t, "https://img.example.com/a/b.jpg", JoinURL("https://img.example.com/", "/a/b.jpg"))
	assert.Equal(t, "http://other/b.jpg", JoinURL("https://img.example.com/", "http://other/b.jpg"))
}
