// Package scheduler runs the recurring background jobs: scanning the
// statement drop directory and refreshing live prices.
package scheduler

import (
	"github.com/robfig/cron/v3"

	"fundflow/internal/logger"
)

// Job is a named unit of background work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a scheduler using standard five-field cron expressions.
func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Get().Infow("scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Get().Infow("scheduler stopped")
}

// AddJob registers a job on a cron schedule. Job failures are logged and
// never stop the schedule.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(); err != nil {
			logger.Get().Errorw("scheduled job failed",
				"job", job.Name(),
				"error", err,
			)
			return
		}
		logger.Get().Debugw("scheduled job completed", "job", job.Name())
	})
	if err != nil {
		return err
	}

	logger.Get().Infow("scheduled job registered",
		"job", job.Name(),
		"schedule", schedule,
	)
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	logger.Get().Infow("running job immediately", "job", job.Name())
	return job.Run()
}
