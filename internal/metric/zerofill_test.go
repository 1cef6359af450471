package metric

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// summingStore keeps every raw point and answers SUM queries per series and interval start.
type summingStore struct {
	mu     sync.Mutex
	points []DataPoint
	err    error
}

func (s *summingStore) PutDataPoint(_ context.Context, point DataPoint) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, point)
	return nil
}

func (s *summingStore) sum(series SeriesKey, start time.Time, period time.Duration) (float64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	var count int
	for _, p := range s.points {
		if p.Series.Namespace != series.Namespace || p.Series.MetricName != series.MetricName {
			continue
		}
		if p.Timestamp.Before(start) || !p.Timestamp.Before(start.Add(period)) {
			continue
		}
		total += p.Value
		count++
	}
	return total, count
}

func testSeries() SeriesKey {
	return SeriesKey{
		Namespace:  "AWS/WAFV2",
		MetricName: "BlockedRequests",
		Dimensions: []Dimension{
			{Name: "Region", Value: "us-east-1"},
			{Name: "Rule", Value: "AWS-AWSManagedRulesCommonRuleSet"},
			{Name: "WebACL", Value: "WebACLForWAFDemo"},
		},
	}
}

func setupZeroFiller(t *testing.T, store Store, now time.Time) *ZeroFiller {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	z, err := NewZeroFiller(store, testSeries(), 5*time.Minute, logger, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return z
}

func TestTick_PublishesZeroAtIntervalStart(t *testing.T) {
	store := &summingStore{}
	z := setupZeroFiller(t, store, time.Date(2025, 10, 2, 12, 7, 31, 0, time.UTC))

	require.NoError(t, z.Tick(context.Background()))

	require.Len(t, store.points, 1)
	p := store.points[0]
	assert.Equal(t, 0.0, p.Value)
	assert.Equal(t, time.Date(2025, 10, 2, 12, 5, 0, 0, time.UTC), p.Timestamp)
	assert.Equal(t, testSeries(), p.Series)
}

func TestTick_RepeatedTicksDoNotChangeSum(t *testing.T) {
	store := &summingStore{}
	now := time.Date(2025, 10, 2, 12, 7, 0, 0, time.UTC)
	z := setupZeroFiller(t, store, now)
	start := alignToPeriodBoundary(now, 5*time.Minute)

	require.NoError(t, z.Tick(context.Background()))
	once, _ := store.sum(testSeries(), start, 5*time.Minute)

	require.NoError(t, z.Tick(context.Background()))
	twice, count := store.sum(testSeries(), start, 5*time.Minute)

	assert.Equal(t, 0.0, once)
	assert.Equal(t, once, twice)
	assert.Equal(t, 2, count)
}

func TestTick_ConcurrentTicksKeepOrganicValue(t *testing.T) {
	store := &summingStore{}
	now := time.Date(2025, 10, 2, 12, 7, 0, 0, time.UTC)
	z := setupZeroFiller(t, store, now)
	start := alignToPeriodBoundary(now, 5*time.Minute)

	require.NoError(t, store.PutDataPoint(context.Background(), DataPoint{
		Series:    testSeries(),
		Value:     42,
		Timestamp: now.Add(-time.Minute),
	}))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- z.Tick(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	total, count := store.sum(testSeries(), start, 5*time.Minute)
	assert.Equal(t, 42.0, total)
	assert.Equal(t, 9, count)
}

func TestTick_StoreUnreachable(t *testing.T) {
	store := &summingStore{err: errors.New("dial tcp: connection refused")}
	z := setupZeroFiller(t, store, time.Now())

	err := z.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransientPublish)

	var publishErr *TransientPublishError
	require.ErrorAs(t, err, &publishErr)
	assert.Equal(t, "BlockedRequests", publishErr.Series.MetricName)
	assert.Empty(t, store.points)
}

func TestTickSeries_OverridesDimension(t *testing.T) {
	store := &summingStore{}
	z := setupZeroFiller(t, store, time.Now())

	series := z.Series().With("WebACL", "OtherACL")
	require.NoError(t, z.TickSeries(context.Background(), series))

	require.Len(t, store.points, 1)
	assert.Contains(t, store.points[0].Series.Dimensions, Dimension{Name: "WebACL", Value: "OtherACL"})
	assert.Len(t, store.points[0].Series.Dimensions, 3)
}

func TestTickSeries_InvalidSeries(t *testing.T) {
	store := &summingStore{}
	z := setupZeroFiller(t, store, time.Now())

	series := z.Series()
	series.MetricName = ""

	err := z.TickSeries(context.Background(), series)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTransientPublish)
	assert.Empty(t, store.points)
}

func TestNewZeroFiller_Validation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewZeroFiller(&summingStore{}, testSeries(), 0, logger)
	require.Error(t, err)

	dup := testSeries()
	dup.Dimensions = append(dup.Dimensions, Dimension{Name: "Region", Value: "eu-west-1"})
	_, err = NewZeroFiller(&summingStore{}, dup, time.Minute, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate dimension")
}

func TestSeriesKey_With(t *testing.T) {
	base := testSeries()

	unchanged := base.With("WebACL", "")
	assert.Equal(t, base, unchanged)

	appended := base.With("Stage", "prod")
	assert.Len(t, appended.Dimensions, 4)
	assert.Len(t, base.Dimensions, 3)

	replaced := base.With("Rule", "Custom")
	assert.Equal(t, "Custom", replaced.Dimensions[1].Value)
	assert.Equal(t, "AWS-AWSManagedRulesCommonRuleSet", base.Dimensions[1].Value)
}

func TestAlignToPeriodBoundary(t *testing.T) {
	tests := []struct {
		name   string
		in     time.Time
		period time.Duration
		want   time.Time
	}{
		{
			name:   "five minutes",
			in:     time.Date(2025, 10, 2, 7, 31, 12, 0, time.UTC),
			period: 5 * time.Minute,
			want:   time.Date(2025, 10, 2, 7, 30, 0, 0, time.UTC),
		},
		{
			name:   "on boundary",
			in:     time.Date(2025, 10, 2, 7, 35, 0, 0, time.UTC),
			period: 5 * time.Minute,
			want:   time.Date(2025, 10, 2, 7, 35, 0, 0, time.UTC),
		},
		{
			name:   "daily",
			in:     time.Date(2025, 10, 2, 7, 31, 0, 0, time.UTC),
			period: 24 * time.Hour,
			want:   time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alignToPeriodBoundary(tt.in, tt.period))
		})
	}
}
