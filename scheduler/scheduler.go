// Package scheduler wraps robfig/cron. The daemon hands it jobs explicitly
// instead of relying on system cron state.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Job interface {
	Run()
}

// DailyAt returns the cron spec for once a day at the given hour.
func DailyAt(hour int) string {
	return fmt.Sprintf("0 %d * * *", hour)
}

type SchedulerParams struct {
	Logger zerolog.Logger
}

func NewScheduler(params SchedulerParams) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: params.Logger,
		jobs:   make(map[cron.EntryID]Job),
	}
}

type Scheduler struct {
	cron   *cron.Cron
	jobs   map[cron.EntryID]Job
	logger zerolog.Logger
}

// Start the scheduler in its own routine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) AddJob(schedule string, job Job) error {
	entry, err := s.cron.AddJob(schedule, job)
	if err != nil {
		return fmt.Errorf("could not add job: %w", err)
	}

	s.jobs[entry] = job
	s.logger.Debug().Str("schedule", schedule).Msg("added job")

	return nil
}

func (s *Scheduler) RemoveJobs() {
	for entry := range s.jobs {
		s.cron.Remove(entry)
		delete(s.jobs, entry)
	}
}
