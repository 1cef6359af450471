package metric

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.opentelemetry.io/otel/attribute"
)

// CloudWatchAPI defines the CloudWatch operations required to publish data points.
type CloudWatchAPI interface {
	PutMetricData(
		ctx context.Context,
		input *cloudwatch.PutMetricDataInput,
		optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchStore writes data points to CloudWatch.
type CloudWatchStore struct {
	cw CloudWatchAPI
}

// NewCloudWatchStore creates a new CloudWatchStore instance.
func NewCloudWatchStore(cw CloudWatchAPI) *CloudWatchStore {
	return &CloudWatchStore{cw: cw}
}

// PutDataPoint writes a single data point with a Count unit at standard resolution.
// CloudWatch aggregates raw points per period, so repeated zero writes do not change a SUM.
func (s *CloudWatchStore) PutDataPoint(ctx context.Context, point DataPoint) error {
	ctx, span := tracer.Start(ctx, "metric.cloudwatch.put")
	defer span.End()
	span.SetAttributes(
		attribute.String("metric.namespace", point.Series.Namespace),
		attribute.String("metric.name", point.Series.MetricName),
	)

	dimensions := make([]types.Dimension, 0, len(point.Series.Dimensions))
	for _, d := range point.Series.Dimensions {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(d.Name),
			Value: aws.String(d.Value),
		})
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(point.Series.Namespace),
		MetricData: []types.MetricDatum{{
			MetricName:        aws.String(point.Series.MetricName),
			Dimensions:        dimensions,
			Value:             aws.Float64(point.Value),
			Timestamp:         aws.Time(point.Timestamp),
			Unit:              types.StandardUnitCount,
			StorageResolution: aws.Int32(60),
		}},
	}

	if _, err := s.cw.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("cannot put metric data: %w", err)
	}

	return nil
}
