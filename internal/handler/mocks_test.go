package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/finding"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/metric"
)

// TickerMock is a mock implementation of the Ticker interface.
type TickerMock struct {
	mock.Mock
}

func (m *TickerMock) Series() metric.SeriesKey {
	args := m.Called()
	return args.Get(0).(metric.SeriesKey)
}

func (m *TickerMock) TickSeries(ctx context.Context, series metric.SeriesKey) error {
	args := m.Called(ctx, series)
	return args.Error(0)
}

// FindingBuilderMock is a mock implementation of the FindingBuilder interface.
type FindingBuilderMock struct {
	mock.Mock
}

func (m *FindingBuilderMock) Handle(ctx context.Context, n *finding.Notification) (string, error) {
	args := m.Called(ctx, n)
	return args.String(0), args.Error(1)
}
