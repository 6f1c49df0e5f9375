// Package importer applies staged feed records to the catalog. Every record
// is an independent unit of work: failures are recorded on the record's
// Outcome and never stop the rest of the batch.
package importer

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/catalog"
	"github.com/kosarica/catalog-service/internal/resolver"
	"github.com/kosarica/catalog-service/internal/staging"
)

// MediaResolver resolves a remote image to an asset id.
type MediaResolver interface {
	Resolve(ctx context.Context, owner, remoteURL, origin string) (int64, error)
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Queue        staging.Queue
	Store        catalog.Store
	Media        MediaResolver
	ImageBaseURL string
	Logger       *zerolog.Logger
}

// Engine drains the staging queue and dispatches records by kind.
type Engine struct {
	queue        staging.Queue
	store        catalog.Store
	resolver     *resolver.Resolver
	attrs        *attributes.Materializer
	media        MediaResolver
	sanitizer    *bluemonday.Policy
	imageBaseURL string
	logger       *zerolog.Logger
}

// NewEngine creates an Engine.
func NewEngine(d Deps) *Engine {
	logger := d.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Engine{
		queue:        d.Queue,
		store:        d.Store,
		resolver:     resolver.New(d.Store, d.Store),
		attrs:        attributes.New(d.Store, logger),
		media:        d.Media,
		sanitizer:    bluemonday.UGCPolicy(),
		imageBaseURL: d.ImageBaseURL,
		logger:       logger,
	}
}

// RunBatch drains at most limit records and processes each of them. The
// records are gone from the queue once drained, whatever their outcome. An
// error is returned only when the queue cannot be read.
func (e *Engine) RunBatch(ctx context.Context, limit int) (*BatchResult, error) {
	start := time.Now()
	records, err := e.queue.Drain(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("drain staging queue: %w", err)
	}

	e.attrs.Reset()
	result := &BatchResult{Drained: len(records)}
	for _, rec := range records {
		result.add(e.Process(ctx, rec))
	}

	batchDuration.Observe(time.Since(start).Seconds())
	e.logger.Info().
		Int("drained", result.Drained).
		Int("applied", result.Count(StatusApplied)).
		Int("partial", result.Count(StatusPartial)).
		Int("skipped", result.Count(StatusSkipped)).
		Int("dropped", result.Count(StatusDropped)).
		Int("failed", result.Count(StatusFailed)).
		Bool("has_error", result.HasError).
		Dur("duration", time.Since(start)).
		Msg("Transform batch finished")
	return result, nil
}

// Process handles a single record. Panics are recovered into a failed
// outcome.
func (e *Engine) Process(ctx context.Context, rec staging.Record) (out Outcome) {
	out = Outcome{RecordID: rec.ID, Kind: rec.Kind}
	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusFailed
			out.Err = fmt.Errorf("panic: %v", r)
			e.logger.Error().
				Int64("record_id", rec.ID).
				Str("kind", string(rec.Kind)).
				Str("key", out.Key).
				Str("stack", string(debug.Stack())).
				Msgf("Record handler panicked: %v", r)
		}
		recordsProcessed.WithLabelValues(string(rec.Kind), string(out.Status)).Inc()
	}()

	switch rec.Kind {
	case staging.KindCategory:
		c, err := rec.Category()
		if err != nil {
			return e.corrupt(out, err)
		}
		out.Key = c.GroupID
		out = e.applyCategory(ctx, out, c)
	case staging.KindProduct:
		a, err := rec.Article()
		if err != nil {
			return e.corrupt(out, err)
		}
		out.Key = a.SKU
		out = e.applyProduct(ctx, out, a)
	case staging.KindMapping:
		m, err := rec.Mapping()
		if err != nil {
			return e.corrupt(out, err)
		}
		out.Key = m.SKU + "->" + m.GroupID
		out = e.applyMapping(ctx, out, m)
	default:
		return e.corrupt(out, fmt.Errorf("unknown record kind %q", rec.Kind))
	}

	e.log(out)
	return out
}

func (e *Engine) corrupt(out Outcome, err error) Outcome {
	out.Status = StatusFailed
	out.Err = err
	e.log(out)
	return out
}

func (e *Engine) log(o Outcome) {
	var ev *zerolog.Event
	switch o.Status {
	case StatusFailed, StatusPartial:
		ev = e.logger.Error().Err(o.Err)
	case StatusDropped, StatusSkipped:
		ev = e.logger.Warn()
	default:
		ev = e.logger.Info()
	}
	ev.Int64("record_id", o.RecordID).
		Str("kind", string(o.Kind)).
		Str("key", o.Key).
		Str("status", string(o.Status)).
		Int64("entity_id", o.EntityID).
		Msg(o.Message)
}
