package staging

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is an in-process Queue used for dry runs and tests.
type MemoryQueue struct {
	mu      sync.Mutex
	nextID  int64
	records []Record
}

// NewMemoryQueue returns an empty queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, kind Kind, payload any) (int64, error) {
	data, err := marshalPayload(kind, payload)
	if err != nil {
		return 0, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.records = append(q.records, Record{
		ID:        q.nextID,
		Kind:      kind,
		Payload:   append([]byte(nil), data...),
		CreatedAt: time.Now(),
	})
	return q.nextID, nil
}

func (q *MemoryQueue) Drain(ctx context.Context, limit int) ([]Record, error) {
	limit = drainLimit(limit)

	q.mu.Lock()
	defer q.mu.Unlock()
	if limit > len(q.records) {
		limit = len(q.records)
	}
	out := make([]Record, limit)
	copy(out, q.records[:limit])
	q.records = append(q.records[:0], q.records[limit:]...)
	return out, nil
}

func (q *MemoryQueue) Remove(ctx context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, r := range q.records {
		if r.ID == id {
			q.records = append(q.records[:i], q.records[i+1:]...)
			return nil
		}
	}
	return ErrRecordNotFound
}

func (q *MemoryQueue) Count(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.records)), nil
}

func (q *MemoryQueue) CountByKind(ctx context.Context) (map[Kind]int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	counts := make(map[Kind]int64)
	for _, r := range q.records {
		counts[r.Kind]++
	}
	return counts, nil
}

func (q *MemoryQueue) Purge(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := int64(len(q.records))
	q.records = nil
	return n, nil
}
