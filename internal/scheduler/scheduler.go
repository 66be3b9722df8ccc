package scheduler

import (
	"context"
	"log"
	"time"
)

// Job is one periodic sweep. Run receives the tick time so tests can drive
// transitions at arbitrary clocks without a ticker.
type Job struct {
	Name string
	Run  func(ctx context.Context, now time.Time) error
}

// Scheduler drives the time-based booking transitions the state machine
// does not trigger itself. It is constructed and owned by main, not a
// package-level singleton, so tests invoke RunOnce directly.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
	stop     chan struct{}
	done     chan struct{}
}

func New(interval time.Duration, jobs ...Job) *Scheduler {
	return &Scheduler{
		interval: interval,
		jobs:     jobs,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Printf("[Scheduler] started, interval %s, %d jobs", s.interval, len(s.jobs))
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.RunOnce(ctx, now)
			}
		}
	}()
}

// RunOnce executes every job for one tick. A job's failure is logged and
// never blocks the others; the next tick retries it.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) {
	for _, job := range s.jobs {
		if err := job.Run(ctx, now); err != nil {
			log.Printf("[Scheduler] job %s failed: %v", job.Name, err)
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}
