package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/finding"
)

const (
	eventSource     = "waf.anomaly.findings"
	eventDetailType = "WAF Anomaly Finding"
)

// EventBridgeAPI defines required EventBridge operations.
type EventBridgeAPI interface {
	PutEvents(
		ctx context.Context,
		params *eventbridge.PutEventsInput,
		optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridge publishes findings as events on an event bus.
type EventBridge struct {
	client       EventBridgeAPI
	eventBusName string
}

// NewEventBridge creates a new EventBridge repository.
func NewEventBridge(client EventBridgeAPI, eventBusName string) *EventBridge {
	return &EventBridge{
		client:       client,
		eventBusName: eventBusName,
	}
}

// Submit sends f as the detail of a single event.
func (e *EventBridge) Submit(ctx context.Context, f *finding.Finding) error {
	ctx, span := tracer.Start(ctx, "dispatch.eventbridge")
	defer span.End()
	span.SetAttributes(
		attribute.String("eventbus.name", e.eventBusName),
		attribute.String("finding.id", f.ID),
	)

	detail, err := json.Marshal(f)
	if err != nil {
		return &finding.SubmissionError{Err: fmt.Errorf("cannot marshal finding: %w", err)}
	}

	out, err := e.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			Detail:       aws.String(string(detail)),
			DetailType:   aws.String(eventDetailType),
			EventBusName: aws.String(e.eventBusName),
			Source:       aws.String(eventSource),
			Resources:    []string{f.ProductArn},
			Time:         aws.Time(f.CreatedAt),
		}},
	})
	if err != nil {
		return classify(err)
	}

	if out.FailedEntryCount > 0 {
		if len(out.Entries) == 0 {
			return rejected("", "failed entry without detail")
		}
		entry := out.Entries[0]
		return rejected(aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
	}

	return nil
}
