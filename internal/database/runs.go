package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kosarica/catalog-service/internal/history"
)

// RunStore keeps the import job history in import_runs.
type RunStore struct {
	pool *pgxpool.Pool
}

// NewRunStore returns a history.Store backed by pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

func (s *RunStore) Record(ctx context.Context, run history.Run) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		id = uuid.New()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO import_runs (
			id, job, triggered_by, status, file, enqueued, drained, failures,
			has_error, message, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, id, run.Job, run.Trigger, run.Status, run.File, run.Enqueued, run.Drained, run.Failures,
		run.HasError, run.Message, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("error recording %s run: %w", run.Job, err)
	}
	return nil
}

func (s *RunStore) Recent(ctx context.Context, limit int) ([]history.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, job, triggered_by, status, file, enqueued, drained, failures,
		       has_error, message, started_at, finished_at
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}
	defer rows.Close()

	runs := make([]history.Run, 0)
	for rows.Next() {
		var (
			r  history.Run
			id uuid.UUID
		)
		if err := rows.Scan(&id, &r.Job, &r.Trigger, &r.Status, &r.File, &r.Enqueued, &r.Drained,
			&r.Failures, &r.HasError, &r.Message, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("error scanning run: %w", err)
		}
		r.ID = id.String()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteBefore removes runs started before cutoff.
func (s *RunStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM import_runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error pruning runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
