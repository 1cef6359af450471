package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/config"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/handler"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/metric"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/schedule"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/telemetry"
)

func main() {
	startTime := time.Now()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	logger.Info("starting zero-fill publisher")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("cannot load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Error("cannot load aws config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	filler, err := metric.NewZeroFiller(
		metric.NewCloudWatchStore(cloudwatch.NewFromConfig(awsCfg)),
		seriesKey(cfg),
		cfg.ZeroFillInterval,
		logger,
	)
	if err != nil {
		logger.Error("cannot create zero filler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tp, err := telemetry.NewTracerProvider(ctx, "zerofill")
	if err != nil {
		logger.Error("cannot initialize tracer provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("cannot shutdown tracer provider", slog.String("error", err.Error()))
		}
	}()

	logger.Info(
		"started zero-fill publisher",
		slog.String("scheduler", string(cfg.Scheduler)),
		slog.String("namespace", cfg.MetricNamespace),
		slog.String("metricName", cfg.MetricName),
		slog.Duration("interval", cfg.ZeroFillInterval),
		slog.Float64("initDurationSec", time.Since(startTime).Seconds()),
	)

	if cfg.Scheduler == config.SchedulerInterval {
		runInterval(filler, cfg.ZeroFillInterval, logger)
		return
	}

	h := handler.NewZeroFillHandler(filler, logger)
	lambda.Start(
		otellambda.InstrumentHandler(
			h.HandleRequest,
			otellambda.WithTracerProvider(tp),
			otellambda.WithFlusher(tp)),
	)
}

func runInterval(filler *metric.ZeroFiller, interval time.Duration, logger *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler, err := schedule.NewInterval(interval, logger)
	if err != nil {
		logger.Error("cannot create scheduler", slog.String("error", err.Error()))
		return
	}

	if err := scheduler.Run(ctx, filler.Tick); err != nil {
		logger.Error("scheduler stopped", slog.String("error", err.Error()))
		return
	}

	logger.Info("zero-fill publisher stopped")
}

func seriesKey(cfg *config.Config) metric.SeriesKey {
	dims := cfg.Dimensions()
	key := metric.SeriesKey{
		Namespace:  cfg.MetricNamespace,
		MetricName: cfg.MetricName,
		Dimensions: make([]metric.Dimension, 0, len(dims)),
	}
	for _, d := range dims {
		key.Dimensions = append(key.Dimensions, metric.Dimension{Name: d.Name, Value: d.Value})
	}
	return key
}
