// Package scheduler runs the periodic background jobs: the trending/expiry
// sweep, the recommendation precompute, and the cache eviction.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic task. Run is invoked once at startup and then on
// every tick of Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives a set of jobs, each on its own goroutine and ticker.
// Jobs never share state through the scheduler; a panicking or failing run
// is logged and the ticker keeps going.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
	wg     sync.WaitGroup
}

// New creates a scheduler over the given jobs.
func New(logger *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, logger: logger}
}

// Start launches every job. It returns immediately; jobs stop when ctx is
// cancelled, and Wait blocks until they have all drained.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		job := job
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, job)
		}()
	}
}

// Wait blocks until every job goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	s.logger.Info("scheduled job started", "job", job.Name, "interval", job.Interval)

	s.runOnce(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduled job stopped", "job", job.Name)
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

// runOnce executes one run with panic isolation, so a bad run never takes
// down the scheduler goroutine.
func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked", "job", job.Name, "panic", fmt.Sprint(r))
		}
	}()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", job.Name, "err", err)
		return
	}
	s.logger.Debug("scheduled job finished", "job", job.Name, "took", time.Since(start))
}
