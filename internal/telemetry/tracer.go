// Package telemetry configures OpenTelemetry tracing exported to X-Ray.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	lambdadetector "go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// NewTracerProvider installs a global tracer provider that sends spans to the X-Ray daemon.
// serviceName falls back to the Lambda function name when empty.
func NewTracerProvider(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, error) {
	res, err := buildResource(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	exp, err := xrayudp.NewSpanExporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot create xray udp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exp)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(xray.Propagator{})

	return tp, nil
}

func buildResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	lambdaResource := resource.Empty()

	// The interval scheduler runs outside Lambda, where detection fails.
	functionName, onLambda := os.LookupEnv("AWS_LAMBDA_FUNCTION_NAME")
	if onLambda {
		detected, err := lambdadetector.NewResourceDetector().Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("cannot detect lambda resource: %w", err)
		}
		lambdaResource = detected
	}

	if serviceName == "" {
		serviceName = functionName
	}

	customResource := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		attribute.String("service.namespace", "waf-anomaly-findings"),
	)

	mergedResource, err := resource.Merge(lambdaResource, customResource)
	if err != nil {
		return nil, fmt.Errorf("cannot merge otel resources: %w", err)
	}

	return mergedResource, nil
}
