// Package janitor deletes expired session tokens on a cron schedule.
// Expired tokens are already refused by validation; this keeps the
// tokens table from growing without bound.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/shortly/internal/metrics"
	"github.com/robfig/cron/v3"
)

type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Sweeper struct {
	tokens   purger
	schedule cron.Schedule
	spec     string
	logger   *slog.Logger
}

// NewSweeper accepts standard five-field cron expressions and descriptors
// such as "@hourly" or "@every 30m".
func NewSweeper(tokens purger, spec string, logger *slog.Logger) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse purge schedule %q: %w", spec, err)
	}
	return &Sweeper{
		tokens:   tokens,
		schedule: schedule,
		spec:     spec,
		logger:   logger.With("component", "janitor"),
	}, nil
}

// Start blocks until ctx is cancelled, then waits for a running sweep.
func (s *Sweeper) Start(ctx context.Context) {
	c := cron.New()
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.ErrorContext(ctx, "purge expired tokens", "error", err)
		}
	}))
	c.Start()

	s.logger.Info("janitor started", "schedule", s.spec, "next_run", s.schedule.Next(time.Now()))

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("janitor shut down")
}

// Sweep runs one purge and returns the number of tokens removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.tokens.PurgeExpired(ctx)
	metrics.JanitorRunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, err
	}

	metrics.TokensPurgedTotal.Add(float64(n))
	if n > 0 {
		s.logger.InfoContext(ctx, "purged expired tokens", "count", n)
	}
	return n, nil
}
