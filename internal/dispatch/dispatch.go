// Package dispatch submits findings to the configured findings destination.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/otel"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/config"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/finding"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/waf-anomaly-findings/internal/dispatch")

// NewRepository creates the finding.Repository for the configured destination.
// Supported destinations: securityhub, eventbridge, sns.
func NewRepository(awsCfg aws.Config, cfg *config.Config) (finding.Repository, error) {
	switch cfg.Destination {
	case config.DestinationSecurityHub:
		return NewSecurityHub(securityhub.NewFromConfig(awsCfg)), nil

	case config.DestinationEventBridge:
		return NewEventBridge(eventbridge.NewFromConfig(awsCfg), cfg.EventBusName), nil

	case config.DestinationSNS:
		return NewSNS(sns.NewFromConfig(awsCfg), cfg.SNSTopicARN), nil

	default:
		return nil, fmt.Errorf("unknown findings destination: %s", cfg.Destination)
	}
}

// classify wraps a client error into a *finding.SubmissionError.
// Timeouts, throttling and server faults are retryable; client faults are not.
func classify(err error) error {
	retryable := true

	var apiErr smithy.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
	case retry.IsErrorThrottles(retry.DefaultThrottles).IsErrorThrottle(err) == aws.TrueTernary:
	case retry.IsErrorRetryables(retry.DefaultRetryables).IsErrorRetryable(err) == aws.TrueTernary:
	case errors.As(err, &apiErr):
		retryable = apiErr.ErrorFault() != smithy.FaultClient
	}

	return &finding.SubmissionError{Retryable: retryable, Err: err}
}

// rejected reports a per-record rejection returned in a successful response.
func rejected(code, message string) error {
	return &finding.SubmissionError{
		Retryable: isRetryableCode(code),
		Err:       fmt.Errorf("finding rejected: %s - %s", code, message),
	}
}

func isRetryableCode(code string) bool {
	switch code {
	case "InternalFailure", "InternalException", "ThrottlingException", "LimitExceededException":
		return true
	default:
		return false
	}
}
