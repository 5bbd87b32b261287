package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron expression in a fixed timezone.
type Scheduler struct {
	scheduler *gocron.Scheduler
	expr      string
	job       Job
	logger    *slog.Logger
}

// New creates a new Scheduler. A nil tz means UTC.
func New(expr string, tz *time.Location, job Job, logger *slog.Logger) *Scheduler {
	if tz == nil {
		tz = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(tz)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		expr:      expr,
		job:       job,
		logger:    logger,
	}
}

// Start registers the job and starts the underlying scheduler. Runs receive
// ctx, so canceling it interrupts an in-flight run.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Cron(s.expr).Do(func() {
		s.run(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "cron", s.expr)
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("scheduler: running agent job")
	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduler: job failed", "err", err)
		return
	}
	s.logger.Info("scheduler: completed agent job", "elapsed", time.Since(start).Round(time.Millisecond))
}

// NextRun reports when the job fires next; zero before Start.
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s != nil && s.scheduler != nil {
		s.scheduler.Stop()
	}
}
