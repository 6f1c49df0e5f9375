// Package app wires the import services from configuration. Postgres backs
// the queue, catalog, settings, history and job locks when a database URL
// is configured; otherwise everything lives in memory.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/kosarica/catalog-service/config"
	"github.com/kosarica/catalog-service/internal/catalog"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/history"
	apphttp "github.com/kosarica/catalog-service/internal/http"
	"github.com/kosarica/catalog-service/internal/http/ratelimit"
	"github.com/kosarica/catalog-service/internal/importer"
	"github.com/kosarica/catalog-service/internal/importlog"
	"github.com/kosarica/catalog-service/internal/inbox"
	"github.com/kosarica/catalog-service/internal/jobs"
	"github.com/kosarica/catalog-service/internal/lock"
	"github.com/kosarica/catalog-service/internal/media"
	"github.com/kosarica/catalog-service/internal/notify"
	"github.com/kosarica/catalog-service/internal/pipeline"
	"github.com/kosarica/catalog-service/internal/scheduler"
	"github.com/kosarica/catalog-service/internal/settings"
	"github.com/kosarica/catalog-service/internal/staging"
	"github.com/kosarica/catalog-service/internal/storage"
)

// Job names used by the scheduler.
const (
	JobExtract    = pipeline.JobExtract
	JobTransform  = pipeline.JobTransform
	JobLogCleanup = "log-cleanup"
)

type runStore interface {
	history.Store
	jobs.RunPruner
}

// App holds the wired services.
type App struct {
	Config    *config.Config
	Logger    *zerolog.Logger
	Pipeline  *pipeline.Pipeline
	Scheduler *scheduler.Scheduler
	Cleaner   *jobs.Cleaner

	// ImportLogger writes to stdout and to the dated import log.
	ImportLogger *zerolog.Logger

	// DB is nil when the in-memory stores are used.
	DB *pgxpool.Pool

	logFile *importlog.DailyFile
}

// New builds the services described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	dir, err := inbox.New(cfg.Import.InboxDir, cfg.Import.BackupDir, logger)
	if err != nil {
		return nil, err
	}

	a.logFile, err = importlog.Open(dir.LogDir())
	if err != nil {
		return nil, err
	}
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	importLogger := importlog.NewLogger(os.Stdout, a.logFile, level)
	a.ImportLogger = &importLogger

	var (
		queue  staging.Queue
		store  catalog.Store
		kv     settings.KV
		locker lock.Locker
		runs   runStore
	)

	if url := cfg.Database.URL; url != "" {
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(url); err != nil {
				a.Close()
				return nil, err
			}
		}
		pool, err := database.Connect(ctx, url, database.PoolConfig{
			MaxConns:        cfg.Database.MaxConnections,
			MinConns:        cfg.Database.MinConnections,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = pool
		queue = staging.NewPostgresQueue(pool)
		store = database.NewCatalogStore(pool)
		kv = database.NewSettingsStore(pool)
		locker = database.NewAdvisoryLocker(pool)
		runs = database.NewRunStore(pool)
		logger.Info().Msg("Using Postgres stores")
	} else {
		queue = staging.NewMemoryQueue()
		store = catalog.NewMemoryStore()
		kv = settings.NewMemoryKV()
		locker = lock.NewLocal()
		runs = history.NewMemoryStore(0)
		logger.Warn().Msg("database.url not set, using in-memory stores")
	}

	assets, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize asset storage: %w", err)
	}

	client := apphttp.NewClient(ratelimit.Config{
		RequestsPerSecond: cfg.Media.RequestsPerSecond,
		MaxRetries:        cfg.Media.MaxRetries,
		InitialBackoffMs:  cfg.Media.InitialBackoffMs,
		MaxBackoffMs:      cfg.Media.MaxBackoffMs,
	}, apphttp.WithTimeout(cfg.Media.DownloadTimeout), apphttp.WithMaxBytes(cfg.Media.MaxBytes))
	resolver := media.NewResolver(store, assets, client, a.ImportLogger, media.WithTimeout(cfg.Media.DownloadTimeout))

	engine := importer.NewEngine(importer.Deps{
		Queue:        queue,
		Store:        store,
		Media:        resolver,
		ImageBaseURL: cfg.Import.ImageBaseURL,
		Logger:       a.ImportLogger,
	})

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Notify.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(cfg.Notify, logger)
	}

	a.Pipeline = pipeline.New(pipeline.Deps{
		Inbox:  dir,
		Queue:  queue,
		Engine: engine,
		Settings: settings.New(kv, settings.Defaults{
			Recipients: cfg.Notify.Recipients,
			BatchLimit: cfg.Import.BatchLimit,
		}),
		Locker:     locker,
		Notifier:   notifier,
		History:    runs,
		Logger:     a.ImportLogger,
		SiteURL:    cfg.Notify.SiteURL,
		BatchLimit: cfg.Import.BatchLimit,
	})

	cleanupCfg := jobs.DefaultCleanupConfig(dir.LogDir())
	if cfg.Schedule.LogRetentionDays > 0 {
		cleanupCfg.LogRetentionDays = cfg.Schedule.LogRetentionDays
	}
	a.Cleaner = jobs.NewCleaner(cleanupCfg, runs, logger)
	a.Scheduler = scheduler.New(logger)
	return a, nil
}

// UsesDatabase reports whether the Postgres stores are wired.
func (a *App) UsesDatabase() bool {
	return a.DB != nil
}

// ScheduleJobs registers the periodic jobs. A run skipped because the
// previous one still holds its lock is not an error.
func (a *App) ScheduleJobs() error {
	s := a.Config.Schedule
	entries := []scheduler.Job{
		{
			Name:     JobExtract,
			Interval: s.ExtractInterval,
			Run: func(ctx context.Context) error {
				_, err := a.Pipeline.Extract(ctx, pipeline.TriggerSchedule)
				return ignoreRunning(err)
			},
		},
		{
			Name:     JobTransform,
			Interval: s.TransformInterval,
			Run: func(ctx context.Context) error {
				_, err := a.Pipeline.Transform(ctx, pipeline.TriggerSchedule)
				return ignoreRunning(err)
			},
		},
		{
			Name:       JobLogCleanup,
			Interval:   s.LogCleanupInterval,
			RunOnStart: true,
			Run:        a.Cleaner.RunDailyCleanup,
		},
	}
	for _, job := range entries {
		if err := a.Scheduler.Add(job); err != nil {
			return err
		}
	}
	return nil
}

func ignoreRunning(err error) error {
	if errors.Is(err, pipeline.ErrJobRunning) {
		return nil
	}
	return err
}

// Close releases the database pool and the import log file.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close import log")
		}
	}
}
