// Package pipeline runs the catalog import jobs: extract moves a feed file
// into the staging queue, transform drains the queue into the catalog.
// Each job runs under its own named lock and records a history entry.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kosarica/catalog-service/internal/history"
	"github.com/kosarica/catalog-service/internal/importer"
	"github.com/kosarica/catalog-service/internal/inbox"
	"github.com/kosarica/catalog-service/internal/lock"
	"github.com/kosarica/catalog-service/internal/notify"
	"github.com/kosarica/catalog-service/internal/settings"
	"github.com/kosarica/catalog-service/internal/staging"
)

// Job names.
const (
	JobExtract   = "extract"
	JobTransform = "transform"
	JobImport    = "import"
	JobRelocate  = "relocate"
)

// Triggers.
const (
	TriggerSchedule = "schedule"
	TriggerAPI      = "api"
	TriggerCLI      = "cli"
)

// ErrJobRunning is returned when the lock of a job is held by another run.
var ErrJobRunning = errors.New("import job is already running")

var tracer = otel.Tracer("github.com/kosarica/catalog-service/internal/pipeline")

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Inbox    *inbox.Dir
	Queue    staging.Queue
	Engine   *importer.Engine
	Settings *settings.Settings
	Locker   lock.Locker
	Notifier notify.Notifier
	History  history.Store
	Logger   *zerolog.Logger

	// SiteURL is named in notification subjects.
	SiteURL string
	// LogBase is the directory or URL the dated import logs are published
	// under. Defaults to the inbox log directory.
	LogBase string
	// BatchLimit is used when the batch limit setting cannot be read.
	BatchLimit int
	Now        func() time.Time
}

// Pipeline orchestrates the import jobs.
type Pipeline struct {
	inbox      *inbox.Dir
	queue      staging.Queue
	engine     *importer.Engine
	settings   *settings.Settings
	locker     lock.Locker
	notifier   notify.Notifier
	history    history.Store
	logger     *zerolog.Logger
	siteURL    string
	logBase    string
	batchLimit int
	now        func() time.Time
}

// New creates a Pipeline. Missing optional collaborators get in-memory or
// no-op defaults.
func New(d Deps) *Pipeline {
	p := &Pipeline{
		inbox:      d.Inbox,
		queue:      d.Queue,
		engine:     d.Engine,
		settings:   d.Settings,
		locker:     d.Locker,
		notifier:   d.Notifier,
		history:    d.History,
		logger:     d.Logger,
		siteURL:    d.SiteURL,
		logBase:    d.LogBase,
		batchLimit: d.BatchLimit,
		now:        d.Now,
	}
	if p.logger == nil {
		nop := zerolog.Nop()
		p.logger = &nop
	}
	if p.settings == nil {
		p.settings = settings.New(settings.NewMemoryKV(), settings.Defaults{BatchLimit: d.BatchLimit})
	}
	if p.locker == nil {
		p.locker = lock.NewLocal()
	}
	if p.notifier == nil {
		p.notifier = notify.NewLogNotifier(p.logger)
	}
	if p.history == nil {
		p.history = history.NewMemoryStore(0)
	}
	if p.batchLimit <= 0 {
		p.batchLimit = staging.DefaultDrainLimit
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logBase == "" && p.inbox != nil {
		p.logBase = p.inbox.LogDir()
	}
	return p
}

// Queue returns the staging queue.
func (p *Pipeline) Queue() staging.Queue {
	return p.queue
}

// Settings returns the import settings.
func (p *Pipeline) Settings() *settings.Settings {
	return p.settings
}

// History returns the run history.
func (p *Pipeline) History() history.Store {
	return p.history
}

// Inbox returns the feed inbox.
func (p *Pipeline) Inbox() *inbox.Dir {
	return p.inbox
}

// tryLock takes the named lock or returns ErrJobRunning.
func (p *Pipeline) tryLock(ctx context.Context, name string) (func(), error) {
	release, ok, err := p.locker.TryLock(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrJobRunning
	}
	return release, nil
}

func (p *Pipeline) newRun(job, trigger string) *history.Run {
	return &history.Run{
		ID:        uuid.NewString(),
		Job:       job,
		Trigger:   trigger,
		StartedAt: p.now(),
	}
}

// finish completes run according to err and stores it. ErrJobRunning marks
// the run as skipped.
func (p *Pipeline) finish(ctx context.Context, span trace.Span, run *history.Run, err error) {
	run.FinishedAt = p.now()
	switch {
	case errors.Is(err, ErrJobRunning):
		run.Status = history.StatusSkipped
		run.Message = err.Error()
	case err != nil:
		run.Status = history.StatusFailed
		run.Message = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case run.Status == "":
		run.Status = history.StatusCompleted
	}

	span.SetAttributes(
		attribute.String("run.id", run.ID),
		attribute.String("run.status", run.Status),
	)
	jobRuns.WithLabelValues(run.Job, run.Status).Inc()
	jobDuration.WithLabelValues(run.Job).Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())

	// The run outcome is kept even if the job context was cancelled.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.history.Record(recordCtx, *run); err != nil {
		p.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to record run")
	}
}

func startSpan(ctx context.Context, job, trigger string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pipeline."+job, trace.WithAttributes(
		attribute.String("job", job),
		attribute.String("trigger", trigger),
	))
}
