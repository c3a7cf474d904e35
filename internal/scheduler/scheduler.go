// Package scheduler wires the periodic jobs onto a cron runner. Jobs are
// plain functions so they stay directly invocable from tests and from the
// CLI entry points.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/avito-insight/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one scheduled unit of work. The scheduler supplies the trigger time
// so jobs resolve "today" from the trigger, not from when they reach the CPU.
type Job func(ctx context.Context, now time.Time) error

// Scheduler runs the expense tick and the daily and weekly pipelines on their
// configured cadences. Each job is wrapped with SkipIfStillRunning so a slow
// run is never overlapped by its own next trigger.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

// New creates a scheduler running in the configured timezone.
func New(cfg *config.SchedulerConfig, log *logrus.Logger) *Scheduler {
	cronLog := cron.PrintfLogger(log)
	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cronLog)),
	)
	return &Scheduler{cron: c, log: log}
}

// AddTick schedules a job on a fixed interval.
func (s *Scheduler) AddTick(name string, interval time.Duration, job Job) error {
	return s.add(name, fmt.Sprintf("@every %s", interval), job)
}

// AddCron schedules a job on a five-field cron expression.
func (s *Scheduler) AddCron(name, expr string, job Job) error {
	return s.add(name, expr, job)
}

func (s *Scheduler) add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job(context.Background(), start); err != nil {
			s.log.WithFields(logrus.Fields{
				"job": name,
			}).WithError(err).Error("Scheduled job failed")
			return
		}
		s.log.WithFields(logrus.Fields{
			"job":      name,
			"duration": time.Since(start).String(),
		}).Debug("Scheduled job finished")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s (%s): %w", name, spec, err)
	}
	s.log.WithFields(logrus.Fields{
		"job":  name,
		"spec": spec,
	}).Info("Job scheduled")
	return nil
}

// Start begins running scheduled jobs in their own goroutines
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
