package importlog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyFileRollsOver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	day := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	f, err := Open(dir)
	require.NoError(t, err)
	f.WithClock(func() time.Time { return day })
	defer f.Close()

	_, err = f.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "log_05-03-2024.log"), f.Path())

	day = day.Add(2 * time.Minute)
	_, err = f.Write([]byte("second\n"))
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "log_05-03-2024.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(first))
	second, err := os.ReadFile(filepath.Join(dir, "log_06-03-2024.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(second))
}

func TestNewLoggerWritesBoth(t *testing.T) {
	f, err := Open(t.TempDir())
	require.NoError(t, err)
	defer f.Close()

	var out bytes.Buffer
	logger := NewLogger(&out, f, zerolog.InfoLevel)
	logger.Info().Str("sku", "W-1").Msg("Product was imported")
	logger.Debug().Msg("hidden")

	assert.Contains(t, out.String(), `"message":"Product was imported"`)
	assert.NotContains(t, out.String(), "hidden")

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "Product was imported")
	assert.Contains(t, string(data), "sku=W-1")
}
