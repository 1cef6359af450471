package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/finding"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/metric"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseSeries() metric.SeriesKey {
	return metric.SeriesKey{
		Namespace:  "AWS/WAFV2",
		MetricName: "BlockedRequests",
		Dimensions: []metric.Dimension{
			{Name: "Region", Value: "us-east-1"},
			{Name: "Rule", Value: "DefaultRule"},
			{Name: "WebACL", Value: "DefaultACL"},
		},
	}
}

func TestZeroFill_Defaults(t *testing.T) {
	ticker := new(TickerMock)
	h := NewZeroFillHandler(ticker, discardLogger())

	ticker.On("Series").Return(baseSeries())
	ticker.On("TickSeries", mock.Anything, baseSeries()).Return(nil).Once()

	require.NoError(t, h.HandleRequest(context.Background(), ZeroFillEvent{}))
	ticker.AssertExpectations(t)
}

func TestZeroFill_PayloadOverrides(t *testing.T) {
	ticker := new(TickerMock)
	h := NewZeroFillHandler(ticker, discardLogger())

	want := baseSeries()
	want.Dimensions[1].Value = "AWS-AWSManagedRulesCommonRuleSet"
	want.Dimensions[2].Value = "WebACLForWAFDemo"

	ticker.On("Series").Return(baseSeries())
	ticker.On("TickSeries", mock.Anything, want).Return(nil).Once()

	err := h.HandleRequest(context.Background(), ZeroFillEvent{
		WebACLID: "WebACLForWAFDemo",
		RuleID:   "AWS-AWSManagedRulesCommonRuleSet",
	})
	require.NoError(t, err)
	ticker.AssertExpectations(t)
}

func TestZeroFill_TransientFailureReturned(t *testing.T) {
	ticker := new(TickerMock)
	h := NewZeroFillHandler(ticker, discardLogger())

	publishErr := &metric.TransientPublishError{Series: baseSeries(), Err: errors.New("unreachable")}
	ticker.On("Series").Return(baseSeries())
	ticker.On("TickSeries", mock.Anything, mock.Anything).Return(publishErr).Once()

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})
	err := h.HandleRequest(ctx, ZeroFillEvent{})
	require.Error(t, err)
	assert.ErrorIs(t, err, metric.ErrTransientPublish)
}

func TestAnomaly_Submitted(t *testing.T) {
	builder := new(FindingBuilderMock)
	h := NewAnomalyHandler(builder, discardLogger())

	builder.On("Handle", mock.Anything, mock.MatchedBy(func(n *finding.Notification) bool {
		return n.AlertEventID == "det/1/alerts/2/anomaly/42"
	})).Return("finding-1", nil).Once()

	resp, err := h.HandleRequest(context.Background(), finding.Notification{AlertEventID: "det/1/alerts/2/anomaly/42"})
	require.NoError(t, err)
	assert.Equal(t, FindingResponse{FindingID: "finding-1", Status: StatusSubmitted}, resp)
	builder.AssertExpectations(t)
}

func TestAnomaly_MalformedDropped(t *testing.T) {
	builder := new(FindingBuilderMock)
	h := NewAnomalyHandler(builder, discardLogger())

	builder.On("Handle", mock.Anything, mock.Anything).
		Return("", &finding.MalformedNotificationError{Field: "alertEventId", Reason: "has no path separator"}).Once()

	resp, err := h.HandleRequest(context.Background(), finding.Notification{AlertEventID: "noslash"})
	require.NoError(t, err)
	assert.Equal(t, StatusDropped, resp.Status)
	assert.Empty(t, resp.FindingID)
}

func TestAnomaly_SubmissionErrorReturned(t *testing.T) {
	builder := new(FindingBuilderMock)
	h := NewAnomalyHandler(builder, discardLogger())

	subErr := &finding.SubmissionError{Retryable: true, Err: errors.New("throttled")}
	builder.On("Handle", mock.Anything, mock.Anything).Return("", subErr).Once()

	_, err := h.HandleRequest(context.Background(), finding.Notification{})
	require.Error(t, err)
	assert.True(t, finding.IsRetryable(err))
}
