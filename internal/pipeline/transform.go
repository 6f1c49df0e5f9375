package pipeline

import (
	"context"
	"fmt"

	"github.com/kosarica/catalog-service/internal/importer"
	"github.com/kosarica/catalog-service/internal/lock"
	"github.com/kosarica/catalog-service/internal/notify"
	"github.com/kosarica/catalog-service/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TransformResult summarizes a transform run.
type TransformResult struct {
	RunID     string                `json:"runId"`
	Limit     int                   `json:"limit"`
	Batch     *importer.BatchResult `json:"batch"`
	Remaining int64                 `json:"remaining"`
	Notified  []notify.Kind         `json:"notified"`
}

// Transform drains one batch from the staging queue into the catalog.
//
// A batch with errors raises the persisted error flag. Afterwards, while
// records are still queued, an error notification is sent if the flag is
// raised (clearing it) and a success notification is sent in any case.
func (p *Pipeline) Transform(ctx context.Context, trigger string) (res *TransformResult, err error) {
	ctx, span := startSpan(ctx, JobTransform, trigger)
	defer span.End()

	run := p.newRun(JobTransform, trigger)
	res = &TransformResult{RunID: run.ID}
	defer func() {
		if res.Batch != nil {
			run.Drained = res.Batch.Drained
			run.Failures = len(res.Batch.Failures())
			run.HasError = res.Batch.HasError
		}
		p.finish(ctx, span, run, err)
	}()

	release, err := p.tryLock(ctx, lock.Transform)
	if err != nil {
		return res, err
	}
	defer release()

	res.Limit = p.currentBatchLimit(ctx)
	batch, err := p.engine.RunBatch(ctx, res.Limit)
	if err != nil {
		return res, err
	}
	res.Batch = batch

	if batch.HasError {
		if err := p.settings.SetHasError(ctx, true); err != nil {
			p.logger.Error().Err(err).Msg("Failed to persist import error flag")
		}
	}

	hasError, err := p.settings.HasError(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to read import error flag")
		hasError = batch.HasError
	}
	res.Remaining, err = p.queue.Count(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to count staged records")
		res.Remaining = 0
	}

	plan := notify.PlanFor(hasError, res.Remaining > 0)
	for _, kind := range plan.Kinds() {
		if !p.sendNotification(ctx, kind, batch) {
			continue
		}
		res.Notified = append(res.Notified, kind)
		if kind == notify.KindError {
			if err := p.settings.SetHasError(ctx, false); err != nil {
				p.logger.Error().Err(err).Msg("Failed to clear import error flag")
			}
		}
	}
	return res, nil
}

func (p *Pipeline) currentBatchLimit(ctx context.Context) int {
	limit, err := p.settings.BatchLimit(ctx)
	if err != nil || limit <= 0 {
		if err != nil {
			p.logger.Warn().Err(err).Int("fallback", p.batchLimit).Msg("Failed to read batch limit")
		}
		return p.batchLimit
	}
	return limit
}

// sendNotification sends one notification and reports whether it went out.
func (p *Pipeline) sendNotification(ctx context.Context, kind notify.Kind, batch *importer.BatchResult) bool {
	to, err := p.settings.Recipients(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to read notification recipients")
		notificationsSent.WithLabelValues(string(kind), "error").Inc()
		return false
	}

	now := p.now()
	msg := notify.Compose(kind, to, p.siteURL, p.logBase, now)
	if kind == notify.KindError && batch != nil && len(batch.Failures()) > 0 {
		data, err := report.Build(batch, now, true)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Failed to build import report")
		} else {
			msg.Attachments = append(msg.Attachments, notify.Attachment{
				Name:        report.Filename(now),
				ContentType: xlsxContentType,
				Data:        data,
			})
		}
	}

	if err := p.notifier.Send(ctx, msg); err != nil {
		p.logger.Error().Err(err).Str("kind", string(kind)).Msg("Failed to send notification")
		notificationsSent.WithLabelValues(string(kind), "error").Inc()
		return false
	}
	notificationsSent.WithLabelValues(string(kind), "sent").Inc()
	return true
}

// ImportResult summarizes a manual import.
type ImportResult struct {
	RunID    string                `json:"runId"`
	Extract  *ExtractResult        `json:"extract"`
	Batches  int                   `json:"batches"`
	Batch    *importer.BatchResult `json:"batch"`
	Notified []notify.Kind         `json:"notified"`
}

// ImportNow runs a full import cycle: extract the active feed (which moves
// it to backup), then drain the staging queue batch by batch until it is
// empty. An error notification is sent when any batch had errors, and a
// success notification when anything was drained. The persisted error flag
// belongs to scheduled transforms and is left as it is.
func (p *Pipeline) ImportNow(ctx context.Context, trigger string) (res *ImportResult, err error) {
	extracted, err := p.Extract(ctx, trigger)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	ctx, span := startSpan(ctx, JobImport, trigger)
	defer span.End()

	run := p.newRun(JobImport, trigger)
	res = &ImportResult{RunID: run.ID, Extract: extracted, Batch: &importer.BatchResult{}}
	defer func() {
		run.File = extracted.File
		run.Enqueued = extracted.Total()
		run.Drained = res.Batch.Drained
		run.Failures = len(res.Batch.Failures())
		run.HasError = res.Batch.HasError
		p.finish(ctx, span, run, err)
	}()

	release, err := p.tryLock(ctx, lock.Transform)
	if err != nil {
		return res, err
	}
	defer release()

	limit := p.currentBatchLimit(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		batch, err := p.engine.RunBatch(ctx, limit)
		if err != nil {
			return res, err
		}
		if batch.Drained == 0 {
			break
		}
		res.Batches++
		res.Batch.Merge(batch)
		if batch.Drained < limit {
			break
		}
	}

	if res.Batch.HasError && p.sendNotification(ctx, notify.KindError, res.Batch) {
		res.Notified = append(res.Notified, notify.KindError)
	}
	if res.Batch.Drained > 0 && p.sendNotification(ctx, notify.KindSuccess, res.Batch) {
		res.Notified = append(res.Notified, notify.KindSuccess)
	}
	return res, nil
}
