package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestCleanupLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	touch(t, filepath.Join(dir, "log_01-02-2024.log"), now.AddDate(0, 0, -40))
	touch(t, filepath.Join(dir, "log_02-03-2024.log"), now.AddDate(0, 0, -30))
	touch(t, filepath.Join(dir, "log_20-03-2024.log"), now.AddDate(0, 0, -12))
	touch(t, filepath.Join(dir, "notes.txt"), now.AddDate(0, 0, -90))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.log"), 0755))

	removed, err := CleanupLogs(dir, 30, now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"log_20-03-2024.log", "notes.txt", "old.log"}, names)
}

func TestCleanupLogsMissingDir(t *testing.T) {
	removed, err := CleanupLogs(filepath.Join(t.TempDir(), "missing"), 30, time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

type fakePruner struct {
	cutoff time.Time
	err    error
}

func (f *fakePruner) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestCleanerRunsBothSteps(t *testing.T) {
	logger := zerolog.Nop()
	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{err: errors.New("db down")}

	c := NewCleaner(CleanupConfig{LogDir: t.TempDir(), RunRetentionDays: 10}, pruner, &logger)
	c.now = func() time.Time { return now }

	err := c.RunDailyCleanup(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, now.AddDate(0, 0, -10), pruner.cutoff)
}
