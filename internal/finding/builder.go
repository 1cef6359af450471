package finding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/waf-anomaly-findings/internal/finding")

// Repository accepts one finding per call. Implementations report failures as *SubmissionError.
type Repository interface {
	Submit(ctx context.Context, f *Finding) error
}

// Identity describes the account the findings are reported for.
type Identity struct {
	AccountID      string
	Partition      string
	Region         string
	ConsoleBaseURL string
}

// ProductArn returns the default Security Hub product ARN of the account.
func (i Identity) ProductArn() string {
	return fmt.Sprintf("arn:%s:securityhub:%s:%s:product/%s/default", i.Partition, i.Region, i.AccountID, i.AccountID)
}

// Builder converts notifications into findings and submits them.
// It keeps no state between calls and is safe for concurrent use.
type Builder struct {
	repo     Repository
	identity Identity
	severity SeverityFunc
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithSeverity replaces the default fixed severity policy.
func WithSeverity(fn SeverityFunc) Option {
	return func(b *Builder) {
		b.severity = fn
	}
}

// WithClock replaces the wall clock used for finding timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a new Builder. Severity defaults to product 1, normalized 10.
func NewBuilder(repo Repository, identity Identity, logger *slog.Logger, opts ...Option) *Builder {
	b := &Builder{
		repo:     repo,
		identity: identity,
		severity: FixedSeverity(1, 10),
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle builds a finding from n and submits it, returning the finding id.
// Malformed notifications are never submitted.
func (b *Builder) Handle(ctx context.Context, n *Notification) (string, error) {
	ctx, span := tracer.Start(ctx, "finding.handle")
	defer span.End()

	f, err := b.Build(n)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	span.SetAttributes(
		attribute.String("finding.id", f.ID),
		attribute.String("alert.event_id", n.AlertEventID),
	)

	if err := b.repo.Submit(ctx, f); err != nil {
		span.RecordError(err)

		var subErr *SubmissionError
		if !errors.As(err, &subErr) {
			err = &SubmissionError{Retryable: true, Err: err}
		}
		return "", err
	}

	b.logger.InfoContext(ctx, "finding submitted",
		slog.String("findingId", f.ID),
		slog.String("alertEventId", n.AlertEventID),
		slog.Int("normalizedSeverity", int(f.Severity.Normalized)))

	return f.ID, nil
}

// Build validates n and assembles the finding without submitting it.
func (b *Builder) Build(n *Notification) (*Finding, error) {
	if n == nil {
		return nil, &MalformedNotificationError{Field: "notification", Reason: "missing"}
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}

	remediationURL, err := b.remediationURL(n)
	if err != nil {
		return nil, err
	}

	score := *n.AnomalyScore
	formattedScore := strconv.FormatFloat(score, 'f', -1, 64)
	now := b.now().UTC()

	productFields := map[string]string{
		"Product Name":                          ProductName,
		"aws/lookoutmetrics/anomalyScore":       formattedScore,
		"aws/lookoutmetrics/alertEventId":       n.AlertEventID,
		"aws/lookoutmetrics/anomalyDetectorArn": n.AnomalyDetectorArn,
	}
	if n.AlertArn != "" && isIdentifier(n.AlertArn) {
		productFields["aws/lookoutmetrics/alertArn"] = n.AlertArn
	}

	title := sanitizeText(n.AlertName, maxTitleLength)
	if title == "" {
		return nil, &MalformedNotificationError{Field: "alertName", Reason: "empty after sanitization"}
	}

	description, err := describe(n.AlertDescription, formattedScore)
	if err != nil {
		return nil, err
	}

	return &Finding{
		ID:            DeterministicID(n.AlertEventID),
		SchemaVersion: SchemaVersion,
		ProductArn:    b.identity.ProductArn(),
		AccountID:     b.identity.AccountID,
		GeneratorID:   GeneratorID,
		Types:         []string{FindingType},
		CreatedAt:     now,
		UpdatedAt:     now,
		Severity:      b.severity(score),
		Title:         title,
		Description:   description,
		ProductFields: productFields,
		Resources: []Resource{{
			Type:      "Account",
			ID:        b.identity.AccountID,
			Partition: b.identity.Partition,
			Region:    b.identity.Region,
		}},
		Remediation: Remediation{
			Text: remediationText,
			URL:  remediationURL,
		},
		RecordState: RecordStateActive,
	}, nil
}

// describe fills the description template, shortening the alert text so the score always fits.
func describe(alertDescription, formattedScore string) (string, error) {
	const prefix = "Anomaly detected ["
	suffix := "] with a score of " + formattedScore

	limit := maxDescriptionLength - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(suffix)
	text := sanitizeText(alertDescription, limit)
	if text == "" {
		return "", &MalformedNotificationError{Field: "alertDescription", Reason: "empty after sanitization"}
	}

	return prefix + text + suffix, nil
}

func (b *Builder) remediationURL(n *Notification) (string, error) {
	anomalyID, err := n.anomalyID()
	if err != nil {
		return "", err
	}

	// The id ends the link verbatim, so it must not need escaping.
	if url.PathEscape(anomalyID) != anomalyID {
		return "", &MalformedNotificationError{Field: "alertEventId", Reason: "has an anomaly id that is not URL safe"}
	}

	return b.identity.ConsoleBaseURL + "/lookoutmetrics/home#" + n.AnomalyDetectorArn +
		"/anomalies/anomaly/" + anomalyID, nil
}
