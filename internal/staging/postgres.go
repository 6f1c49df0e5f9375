package staging

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresQueue stores records in the staging_records table.
type PostgresQueue struct {
	pool *pgxpool.Pool
}

// NewPostgresQueue returns a queue backed by pool.
func NewPostgresQueue(pool *pgxpool.Pool) *PostgresQueue {
	return &PostgresQueue{pool: pool}
}

func (q *PostgresQueue) Enqueue(ctx context.Context, kind Kind, payload any) (int64, error) {
	data, err := marshalPayload(kind, payload)
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.pool.QueryRow(ctx, `
		INSERT INTO staging_records (kind, payload)
		VALUES ($1, $2)
		RETURNING id
	`, string(kind), data).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("enqueue %s record: %w", kind, err)
	}
	return id, nil
}

// Drain deletes and returns the oldest records in one statement. SKIP LOCKED
// keeps overlapping drains from handing out the same record.
func (q *PostgresQueue) Drain(ctx context.Context, limit int) ([]Record, error) {
	rows, err := q.pool.Query(ctx, `
		DELETE FROM staging_records
		WHERE id IN (
			SELECT id FROM staging_records
			ORDER BY id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, kind, payload, created_at
	`, drainLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("drain staging records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			r    Record
			kind string
		)
		if err := rows.Scan(&r.ID, &kind, &r.Payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan staging record: %w", err)
		}
		r.Kind = Kind(kind)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("drain staging records: %w", err)
	}

	// RETURNING has no defined order
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (q *PostgresQueue) Remove(ctx context.Context, id int64) error {
	tag, err := q.pool.Exec(ctx, `DELETE FROM staging_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove staging record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (q *PostgresQueue) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := q.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staging_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count staging records: %w", err)
	}
	return n, nil
}

func (q *PostgresQueue) CountByKind(ctx context.Context) (map[Kind]int64, error) {
	rows, err := q.pool.Query(ctx, `SELECT kind, COUNT(*) FROM staging_records GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count staging records: %w", err)
	}
	defer rows.Close()

	counts := make(map[Kind]int64)
	for rows.Next() {
		var (
			kind string
			n    int64
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[Kind(kind)] = n
	}
	return counts, rows.Err()
}

func (q *PostgresQueue) Purge(ctx context.Context) (int64, error) {
	tag, err := q.pool.Exec(ctx, `DELETE FROM staging_records`)
	if err != nil {
		return 0, fmt.Errorf("purge staging records: %w", err)
	}
	return tag.RowsAffected(), nil
}
