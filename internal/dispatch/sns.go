package dispatch

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/finding"
)

// maxSubjectLength is the SNS limit for email subjects.
const maxSubjectLength = 100

// SNSAPI defines required SNS operations.
type SNSAPI interface {
	Publish(
		ctx context.Context,
		input *sns.PublishInput,
		optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes a text summary of each finding to a topic.
type SNS struct {
	client   SNSAPI
	topicARN string
}

// NewSNS creates a new SNS repository.
func NewSNS(client SNSAPI, topicARN string) *SNS {
	return &SNS{
		client:   client,
		topicARN: topicARN,
	}
}

// Submit publishes the text summary of f.
func (s *SNS) Submit(ctx context.Context, f *finding.Finding) error {
	ctx, span := tracer.Start(ctx, "dispatch.sns")
	defer span.End()
	span.SetAttributes(
		attribute.String("sns.topic_arn", s.topicARN),
		attribute.String("finding.id", f.ID),
	)

	subject := "Security Finding - " + f.Title
	if r := []rune(subject); len(r) > maxSubjectLength {
		subject = string(r[:maxSubjectLength])
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(FormatText(f)),
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		return classify(err)
	}

	return nil
}
