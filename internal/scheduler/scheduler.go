// Package scheduler runs the import jobs on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is a named periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the job once right after Start.
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Entry is the schedule state of a job.
type Entry struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	LastRun  time.Time     `json:"lastRun,omitempty"`
	NextRun  time.Time     `json:"nextRun"`
	LastErr  string        `json:"lastError,omitempty"`
}

// Scheduler runs each job in its own ticker loop. A job never overlaps with
// itself: a tick that arrives while the job is running is dropped.
type Scheduler struct {
	logger *zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	jobs    []Job
	entries map[string]*Entry
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// New creates a Scheduler.
func New(logger *zerolog.Logger) *Scheduler {
	return &Scheduler{logger: logger, now: time.Now, entries: make(map[string]*Entry)}
}

// Add registers job. It must be called before Start.
func (s *Scheduler) Add(job Job) error {
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}
	if job.Run == nil {
		return fmt.Errorf("job %s: no run function", job.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[job.Name]; ok {
		return fmt.Errorf("job %s already registered", job.Name)
	}
	s.jobs = append(s.jobs, job)
	s.entries[job.Name] = &Entry{Name: job.Name, Interval: job.Interval}
	return nil
}

// Start launches the job loops. They stop when ctx is done or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		s.logger.Info().Str("job", job.Name).Dur("interval", job.Interval).Msg("Starting scheduled job")
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Stop cancels the loops and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	s.setNext(job.Name, s.now().Add(job.Interval))

	if job.RunOnStart {
		s.runOnce(ctx, job)
	}
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Str("job", job.Name).Msg("Scheduled job stopping (context cancelled)")
			return
		case <-ticker.C:
			s.setNext(job.Name, s.now().Add(job.Interval))
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	start := s.now()
	err := job.Run(ctx)

	s.mu.Lock()
	e := s.entries[job.Name]
	e.LastRun = start
	e.LastErr = ""
	if err != nil {
		e.LastErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("job", job.Name).Msg("Scheduled job failed")
		return
	}
	s.logger.Debug().Str("job", job.Name).Dur("duration", s.now().Sub(start)).Msg("Scheduled job finished")
}

func (s *Scheduler) setNext(name string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[name]; ok {
		e.NextRun = t
	}
}

// NextRun returns the next planned run of the named job.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok || e.NextRun.IsZero() {
		return time.Time{}, false
	}
	return e.NextRun, true
}

// Entries returns the state of every job ordered by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
