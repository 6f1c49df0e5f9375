// Package history records finished import job runs.
package history

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Run is one execution of an import job.
type Run struct {
	ID         string    `json:"id"`
	Job        string    `json:"job"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	File       string    `json:"file,omitempty"`
	Enqueued   int       `json:"enqueued"`
	Drained    int       `json:"drained"`
	Failures   int       `json:"failures"`
	HasError   bool      `json:"hasError"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Store persists runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// MemoryStore keeps the most recent runs in memory.
type MemoryStore struct {
	mu   sync.Mutex
	max  int
	runs []Run
}

// NewMemoryStore keeps at most max runs (100 when max <= 0).
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 100
	}
	return &MemoryStore{max: max}
}

func (m *MemoryStore) Record(ctx context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	if over := len(m.runs) - m.max; over > 0 {
		m.runs = m.runs[over:]
	}
	return nil
}

func (m *MemoryStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.runs)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteBefore removes runs started before cutoff.
func (m *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.runs)
	m.runs = slices.DeleteFunc(m.runs, func(r Run) bool { return r.StartedAt.Before(cutoff) })
	return int64(before - len(m.runs)), nil
}
