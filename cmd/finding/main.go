package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/config"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/dispatch"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/finding"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/handler"
	"github.com/ab0utbla-k/waf-anomaly-findings/internal/telemetry"
)

func main() {
	startTime := time.Now()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	logger.Info("starting anomaly finding builder")

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

	if err := cfg.ResolveAccountID(ctx, sts.NewFromConfig(awsCfg)); err != nil {
		logger.Error("cannot resolve account id", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo, err := dispatch.NewRepository(awsCfg, cfg)
	if err != nil {
		logger.Error("cannot create findings repository", slog.String("error", err.Error()))
		os.Exit(1)
	}

	builder := finding.NewBuilder(
		repo,
		finding.Identity{
			AccountID:      cfg.AWSAccountID,
			Partition:      cfg.AWSPartition,
			Region:         cfg.AWSRegion,
			ConsoleBaseURL: cfg.ConsoleBaseURL,
		},
		logger,
		finding.WithSeverity(severityPolicy(cfg)),
	)

	tp, err := telemetry.NewTracerProvider(ctx, "finding")
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
		"started anomaly finding builder",
		slog.String("destination", string(cfg.Destination)),
		slog.String("severityPolicy", string(cfg.SeverityPolicy)),
		slog.String("region", cfg.AWSRegion),
		slog.Float64("initDurationSec", time.Since(startTime).Seconds()),
	)

	h := handler.NewAnomalyHandler(builder, logger)
	lambda.Start(
		otellambda.InstrumentHandler(
			h.HandleRequest,
			otellambda.WithTracerProvider(tp),
			otellambda.WithFlusher(tp)),
	)
}

func severityPolicy(cfg *config.Config) finding.SeverityFunc {
	if cfg.SeverityPolicy == config.SeverityProportional {
		return finding.ProportionalSeverity(cfg.AnomalyScoreMax)
	}
	return finding.FixedSeverity(cfg.SeverityProduct, cfg.SeverityNormalized)
}
