// Package jobs holds the maintenance jobs of the import service.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CleanupConfig configures retention for cleanup jobs.
type CleanupConfig struct {
	LogDir           string
	LogRetentionDays int
	RunRetentionDays int
}

// DefaultCleanupConfig returns the default retention.
func DefaultCleanupConfig(logDir string) CleanupConfig {
	return CleanupConfig{
		LogDir:           logDir,
		LogRetentionDays: 30,
		RunRetentionDays: 90,
	}
}

// RunPruner deletes job history older than a cutoff.
type RunPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupLogs removes .log files in dir whose modification time is at least
// retentionDays old. It returns the number of files removed.
func CleanupLogs(dir string, retentionDays int, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cleanup logs: %w", err)
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	var (
		removed int
		errs    []error
	)
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Cleaner runs the daily cleanup.
type Cleaner struct {
	config CleanupConfig
	runs   RunPruner
	logger *zerolog.Logger
	now    func() time.Time
}

// NewCleaner creates a Cleaner. runs may be nil when no job history is kept.
func NewCleaner(config CleanupConfig, runs RunPruner, logger *zerolog.Logger) *Cleaner {
	if config.LogRetentionDays <= 0 {
		config.LogRetentionDays = 30
	}
	if config.RunRetentionDays <= 0 {
		config.RunRetentionDays = 90
	}
	return &Cleaner{config: config, runs: runs, logger: logger, now: time.Now}
}

// RunDailyCleanup removes expired import logs and job history. Both steps
// run even if one fails.
func (c *Cleaner) RunDailyCleanup(ctx context.Context) error {
	now := c.now()
	var errs []error

	removed, err := CleanupLogs(c.config.LogDir, c.config.LogRetentionDays, now)
	if err != nil {
		c.logger.Error().Err(err).Str("dir", c.config.LogDir).Msg("Failed to clean up import logs")
		errs = append(errs, err)
	}
	c.logger.Info().Int("files_deleted", removed).Int("retention_days", c.config.LogRetentionDays).Msg("Cleaned up import logs")

	if c.runs != nil {
		cutoff := now.AddDate(0, 0, -c.config.RunRetentionDays)
		n, err := c.runs.DeleteBefore(ctx, cutoff)
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to prune job history")
			errs = append(errs, fmt.Errorf("prune runs: %w", err))
		} else {
			c.logger.Info().Int64("rows_deleted", n).Time("cutoff", cutoff).Msg("Pruned job history")
		}
	}
	return errors.Join(errs...)
}
