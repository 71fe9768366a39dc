package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"DigiiBuz/internal/ports"
)

// CronScheduler runs a job on a cron expression and skips ticks while the
// previous run is still busy.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running atomic.Bool
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
// Descriptors such as "@every 1m" are accepted.
func NewCronScheduler(spec string, location *time.Location, logger *slog.Logger) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	return &CronScheduler{spec: spec, location: location, logger: logger}
}

// Start registers the job and starts the cron loop.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	cr := cron.New(cron.WithLocation(c.location))
	_, err := cr.AddFunc(c.spec, func() {
		if ctx.Err() != nil {
			return
		}
		if !c.running.CompareAndSwap(false, true) {
			c.info("cron tick skipped: previous run still busy")
			return
		}
		defer c.running.Store(false)
		job(time.Now().In(c.location))
	})
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", c.spec, err)
	}

	cr.Start()
	c.cron = cr
	c.info("cron started", "spec", c.spec, "location", c.location.String())
	return nil
}

// Stop halts the cron loop and waits for a running job to finish or ctx to end.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()

	if cr == nil {
		return nil
	}

	done := cr.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronScheduler) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
