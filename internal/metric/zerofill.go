package metric

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/waf-anomaly-findings/internal/metric")

// Store accepts single data point writes. Each write either fully succeeds or fully fails.
type Store interface {
	PutDataPoint(ctx context.Context, point DataPoint) error
}

// ZeroFiller publishes one zero-valued data point per scheduling interval so that
// intervals without organic activity are not missing from the series.
// It holds no state between ticks and performs no retries of its own.
type ZeroFiller struct {
	store    Store
	series   SeriesKey
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a ZeroFiller.
type Option func(*ZeroFiller)

// WithClock replaces the wall clock used to locate the current interval.
func WithClock(now func() time.Time) Option {
	return func(z *ZeroFiller) {
		z.now = now
	}
}

// NewZeroFiller creates a new ZeroFiller for the series and interval.
func NewZeroFiller(
	store Store,
	series SeriesKey,
	interval time.Duration,
	logger *slog.Logger,
	opts ...Option,
) (*ZeroFiller, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("invalid series: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	z := &ZeroFiller{
		store:    store,
		series:   series,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(z)
	}

	return z, nil
}

// Series returns the configured series key.
func (z *ZeroFiller) Series() SeriesKey {
	return z.series
}

// Tick publishes the zero data point for the current interval of the configured series.
func (z *ZeroFiller) Tick(ctx context.Context) error {
	return z.TickSeries(ctx, z.series)
}

// TickSeries publishes the zero data point for the current interval of series.
// The write is always performed: an organic point in the same interval is summed with
// the zero rather than replaced, and repeating the write adds nothing.
func (z *ZeroFiller) TickSeries(ctx context.Context, series SeriesKey) error {
	ctx, span := tracer.Start(ctx, "zerofill.tick")
	defer span.End()

	if err := series.Validate(); err != nil {
		return fmt.Errorf("invalid series: %w", err)
	}

	point := DataPoint{
		Series:    series,
		Value:     0,
		Timestamp: alignToPeriodBoundary(z.now(), z.interval),
	}
	span.SetAttributes(
		attribute.String("metric.name", series.MetricName),
		attribute.String("interval.start", point.Timestamp.Format(time.RFC3339)),
	)

	if err := z.store.PutDataPoint(ctx, point); err != nil {
		span.RecordError(err)
		return &TransientPublishError{Series: series, Err: err}
	}

	z.logger.InfoContext(ctx, "zero data point published",
		slog.String("namespace", series.Namespace),
		slog.String("metricName", series.MetricName),
		slog.Time("intervalStart", point.Timestamp))

	return nil
}
