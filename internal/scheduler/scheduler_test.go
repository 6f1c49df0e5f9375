package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJobs(t *testing.T) {
	logger := zerolog.Nop()
	s := New(&logger)

	var ticks, failures atomic.Int32
	require.NoError(t, s.Add(Job{Name: "transform", Interval: 10 * time.Millisecond, Run: func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	}}))
	require.NoError(t, s.Add(Job{Name: "extract", Interval: time.Hour, RunOnStart: true, Run: func(ctx context.Context) error {
		failures.Add(1)
		return errors.New("inbox unreadable")
	}}))

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return failures.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	next, ok := s.NextRun("extract")
	require.True(t, ok)
	assert.True(t, next.After(time.Now().Add(50*time.Minute)))

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "extract", entries[0].Name)
	assert.Equal(t, "inbox unreadable", entries[0].LastErr)
	assert.False(t, entries[1].LastRun.IsZero())

	_, ok = s.NextRun("unknown")
	assert.False(t, ok)
}

func TestSchedulerRejectsBadJobs(t *testing.T) {
	logger := zerolog.Nop()
	s := New(&logger)
	run := func(ctx context.Context) error { return nil }

	assert.Error(t, s.Add(Job{Name: "a", Interval: 0, Run: run}))
	assert.Error(t, s.Add(Job{Name: "a", Interval: time.Second}))
	require.NoError(t, s.Add(Job{Name: "a", Interval: time.Second, Run: run}))
	assert.Error(t, s.Add(Job{Name: "a", Interval: time.Second, Run: run}))
}
