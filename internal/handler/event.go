// Package handler adapts Lambda invocations to the zero-fill publisher and the finding builder.
package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/finding"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/metric"
)

const (
	StatusSubmitted = "submitted"
	StatusDropped   = "dropped"
)

// Ticker publishes the zero data point for the current interval of a series.
type Ticker interface {
	Series() metric.SeriesKey
	TickSeries(ctx context.Context, series metric.SeriesKey) error
}

// FindingBuilder turns one notification into one submitted finding.
type FindingBuilder interface {
	Handle(ctx context.Context, n *finding.Notification) (string, error)
}

// ZeroFillEvent is the scheduled trigger payload. Both fields are optional and override
// the configured WebACL and Rule dimension values.
type ZeroFillEvent struct {
	WebACLID string `json:"WebACLId"`
	RuleID   string `json:"RuleId"`
}

// FindingResponse is returned to the invoker of the finding function.
type FindingResponse struct {
	FindingID string `json:"findingId,omitempty"`
	Status    string `json:"status"`
}

type ZeroFillHandler struct {
	ticker Ticker
	logger *slog.Logger
}

func NewZeroFillHandler(ticker Ticker, logger *slog.Logger) *ZeroFillHandler {
	return &ZeroFillHandler{
		ticker: ticker,
		logger: logger,
	}
}

func (h *ZeroFillHandler) HandleRequest(ctx context.Context, event ZeroFillEvent) error {
	series := h.ticker.Series().
		With("WebACL", event.WebACLID).
		With("Rule", event.RuleID)

	if err := h.ticker.TickSeries(ctx, series); err != nil {
		h.logger.ErrorContext(
			ctx,
			"cannot publish zero data point",
			slog.String("requestId", requestID(ctx)),
			slog.String("metricName", series.MetricName),
			slog.Bool("transient", errors.Is(err, metric.ErrTransientPublish)),
			slog.String("error", err.Error()),
		)
		return err
	}

	return nil
}

type AnomalyHandler struct {
	builder FindingBuilder
	logger  *slog.Logger
}

func NewAnomalyHandler(builder FindingBuilder, logger *slog.Logger) *AnomalyHandler {
	return &AnomalyHandler{
		builder: builder,
		logger:  logger,
	}
}

// HandleRequest acknowledges malformed notifications after logging them, since
// redelivering unchanged input cannot succeed. Submission failures are returned.
func (h *AnomalyHandler) HandleRequest(ctx context.Context, n finding.Notification) (FindingResponse, error) {
	id, err := h.builder.Handle(ctx, &n)

	switch {
	case err == nil:
		return FindingResponse{FindingID: id, Status: StatusSubmitted}, nil

	case errors.Is(err, finding.ErrMalformedNotification):
		h.logger.ErrorContext(
			ctx,
			"dropping malformed notification",
			slog.String("requestId", requestID(ctx)),
			slog.String("alertEventId", n.AlertEventID),
			slog.String("error", err.Error()),
		)
		return FindingResponse{Status: StatusDropped}, nil

	default:
		h.logger.ErrorContext(
			ctx,
			"cannot submit finding",
			slog.String("requestId", requestID(ctx)),
			slog.String("alertEventId", n.AlertEventID),
			slog.Bool("retryable", finding.IsRetryable(err)),
			slog.String("error", err.Error()),
		)
		return FindingResponse{}, err
	}
}

func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}
