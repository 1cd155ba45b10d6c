package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"BlogCurator/internal/domain"
	"BlogCurator/internal/ports"
)

// Schedule holds the cron expressions for the two recurring jobs.
type Schedule struct {
	Ingest string
	Curate string
}

// Scheduler wires the cron driver with the pipeline use cases.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	schedule Schedule
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, schedule Schedule, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, schedule: schedule, logger: logger}
}

// Start registers daily ingestion and weekly curation and starts the driver.
// Curation targets the week containing the day before the trigger, so a Monday run
// curates the week that just ended.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	if s.schedule.Ingest != "" {
		err := s.driver.AddJob(s.schedule.Ingest, func(trigger time.Time) {
			if _, err := s.pipeline.ProcessDay(ctx, trigger); err != nil {
				s.logger.Error("scheduled ingestion failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule ingestion: %w", err)
		}
	}

	if s.schedule.Curate != "" {
		err := s.driver.AddJob(s.schedule.Curate, func(trigger time.Time) {
			period := domain.WeekPeriod(trigger.AddDate(0, 0, -1))
			if _, err := s.pipeline.CurateWeek(ctx, period, trigger); err != nil {
				s.logger.Error("scheduled curation failed", "period", period, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule curation: %w", err)
		}
	}

	return s.driver.Start(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
