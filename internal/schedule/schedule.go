// Package schedule drives periodic work outside of an external trigger such as an EventBridge rule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Scheduler calls fn periodically until ctx is done.
type Scheduler interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Interval fires once immediately and then on every period.
// A failed call is logged and the next tick acts as its retry.
type Interval struct {
	period time.Duration
	logger *slog.Logger
}

// NewInterval creates a new Interval scheduler.
func NewInterval(period time.Duration, logger *slog.Logger) (*Interval, error) {
	if period <= 0 {
		return nil, fmt.Errorf("invalid period: %s", period)
	}

	return &Interval{
		period: period,
		logger: logger,
	}, nil
}

// Run blocks until ctx is cancelled. Calls never overlap.
func (i *Interval) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	ticker := time.NewTicker(i.period)
	defer ticker.Stop()

	i.fire(ctx, fn)

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			i.fire(ctx, fn)
		}
	}
}

func (i *Interval) fire(ctx context.Context, fn func(ctx context.Context) error) {
	callCtx, cancel := context.WithTimeout(ctx, i.period)
	defer cancel()

	if err := fn(callCtx); err != nil {
		i.logger.ErrorContext(ctx, "scheduled call failed", slog.String("error", err.Error()))
	}
}
