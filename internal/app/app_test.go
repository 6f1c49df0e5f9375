package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/config"
	"github.com/kosarica/catalog-service/internal/pipeline"
)

func testConfig(t *testing.T) *config.Config {
	root := t.TempDir()
	return &config.Config{
		Logging: config.LoggingConfig{Level: "warn"},
		Storage: config.StorageConfig{Type: "local", BasePath: filepath.Join(root, "assets")},
		Import: config.ImportConfig{
			InboxDir:   filepath.Join(root, "inbox"),
			BackupDir:  filepath.Join(root, "backup"),
			BatchLimit: 50,
		},
		Media: config.MediaConfig{DownloadTimeout: time.Second, RequestsPerSecond: 5},
		Schedule: config.ScheduleConfig{
			ExtractInterval:    time.Hour,
			TransformInterval:  time.Minute,
			LogCleanupInterval: time.Hour,
			LogRetentionDays:   30,
		},
	}
}

func TestNewInMemory(t *testing.T) {
	logger := zerolog.Nop()
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg, &logger)
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.UsesDatabase())
	assert.DirExists(t, filepath.Join(cfg.Import.BackupDir, "logs"))

	limit, err := a.Pipeline.Settings().BatchLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, limit)

	require.NoError(t, a.ScheduleJobs())
	var names []string
	for _, e := range a.Scheduler.Entries() {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{JobExtract, JobTransform, JobLogCleanup}, names)
}

func TestImportCycleInMemory(t *testing.T) {
	logger := zerolog.Nop()
	cfg := testConfig(t)
	cfg.Logging.Level = "info"
	a, err := New(context.Background(), cfg, &logger)
	require.NoError(t, err)
	defer a.Close()

	feed := `<BMECAT><ARTICLE><SUPPLIER_AID>W-1</SUPPLIER_AID><ARTICLE_DETAILS><DESCRIPTION_SHORT>Widget</DESCRIPTION_SHORT></ARTICLE_DETAILS></ARTICLE></BMECAT>`
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Import.InboxDir, "feed.xml"), []byte(feed), 0644))

	res, err := a.Pipeline.ImportNow(context.Background(), pipeline.TriggerCLI)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Batch.Drained)
	assert.False(t, res.Batch.HasError)

	// The import log for today was written.
	entries, err := os.ReadDir(filepath.Join(cfg.Import.BackupDir, "logs"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
