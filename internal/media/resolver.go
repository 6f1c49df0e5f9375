// Package media imports remote images into the asset store, reusing an
// earlier import when the same file was already fetched from the same origin.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/kosarica/catalog-service/internal/catalog"
	apphttp "github.com/kosarica/catalog-service/internal/http"
	"github.com/kosarica/catalog-service/internal/storage"
)

// ErrUnsupportedType is returned for downloads outside the image allow-list.
var ErrUnsupportedType = errors.New("unsupported media type")

// AllowedTypes are the MIME types accepted as images.
var AllowedTypes = []string{"image/jpeg", "image/gif", "image/png", "image/x-icon"}

// DefaultTimeout bounds a single download when none is configured.
const DefaultTimeout = 30 * time.Second

// Fetcher downloads a remote resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*apphttp.Response, error)
}

// Resolver resolves remote image references to asset ids.
type Resolver struct {
	assets  catalog.AssetStore
	store   storage.Storage
	fetcher Fetcher
	timeout time.Duration
	logger  *zerolog.Logger
	now     func() time.Time

	group singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout sets the per-download timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock overrides the clock used for storage keys.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver.
func NewResolver(assets catalog.AssetStore, store storage.Storage, fetcher Fetcher, logger *zerolog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	r := &Resolver{
		assets:  assets,
		store:   store,
		fetcher: fetcher,
		timeout: DefaultTimeout,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the asset id for remoteURL. An asset with the same file
// name and origin is reused; otherwise the file is downloaded, checked
// against AllowedTypes, stored and registered. owner identifies the entity
// the image belongs to and is only recorded.
func (r *Resolver) Resolve(ctx context.Context, owner, remoteURL, origin string) (int64, error) {
	filename, err := Filename(remoteURL)
	if err != nil {
		return 0, err
	}

	existing, err := r.assets.FindAsset(ctx, filename, origin)
	if err == nil {
		mediaResolved.WithLabelValues("reused").Inc()
		return existing.ID, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return 0, fmt.Errorf("lookup asset %s: %w", filename, err)
	}

	v, err, _ := r.group.Do(filename+"\x00"+origin, func() (any, error) {
		// Another caller may have finished the import while we waited.
		if a, err := r.assets.FindAsset(ctx, filename, origin); err == nil {
			return a.ID, nil
		}
		return r.importAsset(ctx, owner, remoteURL, filename, origin)
	})
	if err != nil {
		mediaResolved.WithLabelValues("failed").Inc()
		return 0, err
	}
	return v.(int64), nil
}

func (r *Resolver) importAsset(ctx context.Context, owner, remoteURL, filename, origin string) (int64, error) {
	dlCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.fetcher.Fetch(dlCtx, remoteURL)
	mediaDownloadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", remoteURL, err)
	}

	mt := mimetype.Detect(resp.Body)
	contentType := ""
	for _, allowed := range AllowedTypes {
		if mt.Is(allowed) {
			contentType = allowed
			break
		}
	}
	if contentType == "" {
		return 0, fmt.Errorf("%w: %s is %s", ErrUnsupportedType, remoteURL, mt.String())
	}

	sum := sha256.Sum256(resp.Body)
	key := path.Join("assets", r.now().Format("2006/01"), hex.EncodeToString(sum[:6]), filename)
	if err := r.store.Put(ctx, key, resp.Body, &storage.Metadata{
		ContentType:  contentType,
		OriginalName: filename,
		SourceURL:    remoteURL,
		Origin:       origin,
	}); err != nil {
		return 0, fmt.Errorf("store %s: %w", filename, err)
	}

	asset := &catalog.Asset{
		OwnerKey:    owner,
		Filename:    filename,
		Origin:      origin,
		StorageKey:  key,
		ContentType: contentType,
		Size:        int64(len(resp.Body)),
	}
	// Dimensions are best effort; icons have no registered decoder.
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(resp.Body)); err == nil {
		asset.Width, asset.Height = cfg.Width, cfg.Height
	}

	id, err := r.assets.CreateAsset(ctx, asset)
	if err != nil {
		r.store.Delete(ctx, key)
		return 0, fmt.Errorf("register asset %s: %w", filename, err)
	}

	mediaResolved.WithLabelValues("downloaded").Inc()
	r.logger.Debug().Str("owner", owner).Str("file", filename).Int64("asset_id", id).Msg("Image imported")
	return id, nil
}

// Filename returns the unescaped base name of the URL path.
func Filename(remoteURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(remoteURL))
	if err != nil {
		return "", fmt.Errorf("invalid image url %q: %w", remoteURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("image url %q has no file name", remoteURL)
	}
	return name, nil
}

// JoinURL appends a feed-relative source to the image base URL.
func JoinURL(base, source string) string {
	source = strings.TrimSpace(source)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return source
	}
	if base == "" {
		return source
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(source, "/")
}
