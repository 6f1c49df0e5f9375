package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/config"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "assets/2026/10/a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "assets/2026/10/a.png", []byte("png"), &Metadata{
		ContentType: "image/png",
		Origin:      "img/a.png",
	}))

	data, err := s.Get(ctx, "assets/2026/10/a.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	info, err := s.GetInfo(ctx, "assets/2026/10/a.png")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
	assert.Equal(t, "image/png", info.ContentType)
	require.NotNil(t, info.Metadata)
	assert.Equal(t, "img/a.png", info.Metadata.Origin)
	assert.Len(t, info.Checksum, 64)

	keys, err := s.List(ctx, "assets/")
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/2026/10/a.png"}, keys)

	require.NoError(t, s.Delete(ctx, "assets/2026/10/a.png"))
	_, err = s.Get(ctx, "assets/2026/10/a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageKeyEscape(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "../../outside.txt", []byte("x"), nil))
	keys, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"outside.txt"}, keys)
}

func TestNewFromConfig(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Type: "local", BasePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(context.Background(), config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Type: "s3"})
	assert.Error(t, err)
}
