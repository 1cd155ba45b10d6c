package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"BlogCurator/internal/ports"
)

// CronScheduler runs jobs on standard five-field cron expressions in a fixed timezone.
// Overlapping runs of the same job are skipped.
type CronScheduler struct {
	cron     *cron.Cron
	location *time.Location
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for loc (UTC when nil).
func NewCronScheduler(loc *time.Location, logger *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	cl := cronLogger{logger: logger}
	return &CronScheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		location: loc,
		logger:   logger,
	}
}

// AddJob registers job under spec. The job receives the trigger time in the
// scheduler's timezone.
func (c *CronScheduler) AddJob(spec string, job func(time.Time)) error {
	if job == nil {
		return fmt.Errorf("job for %q is nil", spec)
	}
	id, err := c.cron.AddFunc(spec, func() { job(time.Now().In(c.location)) })
	if err != nil {
		return fmt.Errorf("add cron entry %q: %w", spec, err)
	}
	c.logger.Info("job scheduled", "spec", spec, "entry", id, "timezone", c.location.String())
	return nil
}

// Start begins dispatching jobs until Stop is called or ctx is done.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.running = true
	c.cron.Start()

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()
	return nil
}

// Stop prevents new runs and waits for running jobs or ctx, whichever comes first.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	done := c.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
