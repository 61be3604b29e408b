// Package scheduler runs periodic housekeeping jobs
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// ErrJobNotFound is returned when a job cannot be found by name
var ErrJobNotFound = errors.New("job not found")

// Job is a unit of periodic work
type Job interface {
	// Name returns the unique name of the job
	Name() string
	// Run executes the job once
	Run(ctx context.Context) error
}

type entry struct {
	job      Job
	schedule string
}

// Manager handles the scheduling and execution of jobs
type Manager struct {
	jobs   []entry
	cron   *cron.Cron
	logger *slog.Logger
}

// NewManager creates a new job manager. Schedules use five cron fields or
// descriptors such as @hourly and @every 30m.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))

	return &Manager{
		cron:   c,
		logger: logger,
	}
}

// Register adds a job with its cron schedule
func (m *Manager) Register(job Job, schedule string) {
	m.jobs = append(m.jobs, entry{job: job, schedule: schedule})
}

// RunJob executes a job by name immediately
func (m *Manager) RunJob(ctx context.Context, name string) error {
	for _, e := range m.jobs {
		if e.job.Name() == name {
			return e.job.Run(ctx)
		}
	}
	return ErrJobNotFound
}

// Start schedules all jobs and blocks until ctx is cancelled
func (m *Manager) Start(ctx context.Context) error {
	for _, e := range m.jobs {
		if e.schedule == "" {
			return fmt.Errorf("job %s has no schedule configured", e.job.Name())
		}

		job := e.job
		_, err := m.cron.AddFunc(e.schedule, func() {
			m.logger.Debug("running scheduled job", "job", job.Name())
			if err := job.Run(ctx); err != nil {
				m.logger.Error("scheduled job failed", "job", job.Name(), "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
		}

		m.logger.Info("scheduled job", "job", job.Name(), "schedule", e.schedule)
	}

	m.cron.Start()

	<-ctx.Done()
	m.logger.Info("stopping scheduler")
	<-m.cron.Stop().Done()

	return nil
}
