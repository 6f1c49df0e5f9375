package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/kosarica/catalog-service/internal/bmecat"
	"github.com/kosarica/catalog-service/internal/feed"
	"github.com/kosarica/catalog-service/internal/history"
	"github.com/kosarica/catalog-service/internal/lock"
	"github.com/kosarica/catalog-service/internal/staging"
)

// ExtractResult summarizes an extract run.
type ExtractResult struct {
	RunID     string               `json:"runId"`
	File      string               `json:"file,omitempty"`
	Enqueued  map[staging.Kind]int `json:"enqueued"`
	Invalid   map[staging.Kind]int `json:"invalid"`
	Relocated string               `json:"relocated,omitempty"`
}

// Total returns the number of enqueued records.
func (r *ExtractResult) Total() int {
	n := 0
	for _, c := range r.Enqueued {
		n += c
	}
	return n
}

type validator interface {
	Validate() error
}

// decodeAs decodes an element into a T and validates it.
func decodeAs[T any, PT interface {
	*T
	validator
}](el *feed.Element) (any, error) {
	var v T
	if err := el.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", bmecat.ErrInvalid, err)
	}
	if err := PT(&v).Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

type extractPass struct {
	tag    string
	kind   staging.Kind
	decode func(*feed.Element) (any, error)
}

// passes are run in this order so categories exist before the articles and
// mappings that reference them.
var passes = []extractPass{
	{bmecat.TagCategory, staging.KindCategory, decodeAs[bmecat.Category, *bmecat.Category]},
	{bmecat.TagArticle, staging.KindProduct, decodeAs[bmecat.Article, *bmecat.Article]},
	{bmecat.TagMapping, staging.KindMapping, decodeAs[bmecat.Mapping, *bmecat.Mapping]},
}

// Extract stages every element of the active inbox file and moves the file
// to the backup directory. An empty inbox is not an error. On a read error
// the file stays in the inbox so the next run can extract it again; records
// staged before the error stay queued.
func (p *Pipeline) Extract(ctx context.Context, trigger string) (res *ExtractResult, err error) {
	ctx, span := startSpan(ctx, JobExtract, trigger)
	defer span.End()

	run := p.newRun(JobExtract, trigger)
	res = &ExtractResult{
		RunID:    run.ID,
		Enqueued: make(map[staging.Kind]int),
		Invalid:  make(map[staging.Kind]int),
	}
	defer func() {
		run.Enqueued = res.Total()
		run.File = res.File
		p.finish(ctx, span, run, err)
	}()

	release, err := p.tryLock(ctx, lock.Extract)
	if err != nil {
		return res, err
	}
	defer release()

	src, err := feed.OpenNext(p.inbox)
	if errors.Is(err, feed.ErrNotFound) {
		p.logger.Warn().Str("inbox", p.inbox.Path()).Msg("No feed file to extract")
		run.Status = history.StatusSkipped
		run.Message = "inbox is empty"
		return res, nil
	}
	if err != nil {
		p.logger.Error().Err(err).Msg("Cannot open feed")
		return res, err
	}
	res.File = src.Name()
	p.logger.Info().Str("file", src.Path()).Str("run_id", run.ID).Msg("Extracting feed")

	for _, pass := range passes {
		if err := p.runPass(ctx, src, pass, res); err != nil {
			p.logger.Error().Err(err).Str("file", src.Path()).Str("tag", pass.tag).
				Msg("Extraction aborted, feed left in inbox")
			return res, err
		}
	}

	res.Relocated = p.inbox.RelocateFile(src.Path())
	p.logger.Info().
		Str("file", res.File).
		Int("categories", res.Enqueued[staging.KindCategory]).
		Int("products", res.Enqueued[staging.KindProduct]).
		Int("mappings", res.Enqueued[staging.KindMapping]).
		Str("backup", res.Relocated).
		Msg("Feed extracted")
	return res, nil
}

func (p *Pipeline) runPass(ctx context.Context, src *feed.Source, pass extractPass, res *ExtractResult) error {
	for el, err := range src.Elements(pass.tag) {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := pass.decode(el)
		if err != nil {
			res.Invalid[pass.kind]++
			invalidElements.WithLabelValues(string(pass.kind)).Inc()
			p.logger.Warn().Err(err).Str("tag", pass.tag).Msg("Skipping invalid feed element")
			continue
		}

		if _, err := p.queue.Enqueue(ctx, pass.kind, payload); err != nil {
			return fmt.Errorf("enqueue %s: %w", pass.kind, err)
		}
		res.Enqueued[pass.kind]++
		extractedElements.WithLabelValues(string(pass.kind)).Inc()
	}
	return nil
}

// Relocate moves the active inbox file to the backup directory and returns
// its new path, or "" when nothing was moved.
func (p *Pipeline) Relocate(ctx context.Context, trigger string) string {
	ctx, span := startSpan(ctx, JobRelocate, trigger)
	defer span.End()

	run := p.newRun(JobRelocate, trigger)
	release, err := p.tryLock(ctx, lock.Extract)
	if err != nil {
		p.finish(ctx, span, run, err)
		return ""
	}
	defer release()

	target := p.inbox.Relocate()
	run.File = target
	if target == "" {
		run.Status = history.StatusSkipped
		run.Message = "nothing relocated"
	}
	p.finish(ctx, span, run, nil)
	return target
}
