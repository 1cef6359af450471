// Package config loads process-wide settings from the environment once at startup.
package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/env"
)

// Destination selects where findings are submitted.
type Destination string

const (
	DestinationSecurityHub Destination = "securityhub"
	DestinationEventBridge Destination = "eventbridge"
	DestinationSNS         Destination = "sns"
)

// SeverityPolicy selects how an anomaly score maps to finding severity.
type SeverityPolicy string

const (
	SeverityFixed        SeverityPolicy = "fixed"
	SeverityProportional SeverityPolicy = "proportional"
)

// SchedulerMode selects what drives the zero-fill publisher.
type SchedulerMode string

const (
	SchedulerLambda   SchedulerMode = "lambda"
	SchedulerInterval SchedulerMode = "interval"
)

// Dimension is a single name/value pair of a metric series key.
type Dimension struct {
	Name  string
	Value string
}

type Config struct {
	AWSRegion      string
	AWSAccountID   string
	AWSPartition   string
	ConsoleBaseURL string

	MetricNamespace  string
	MetricName       string
	WebACLName       string
	RuleName         string
	ExtraDimensions  []Dimension
	ZeroFillInterval time.Duration
	Scheduler        SchedulerMode

	Destination        Destination
	EventBusName       string
	SNSTopicARN        string
	SeverityPolicy     SeverityPolicy
	SeverityProduct    float64
	SeverityNormalized float64
	AnomalyScoreMax    float64
}

// Load reads the configuration from the environment.
// Unset variables take their defaults; set but invalid values fail the load.
// The account id may be left empty; callers resolve it with ResolveAccountID.
func Load() (*Config, error) {
	region, err := env.GetRequired("AWS_REGION", env.ParseNonEmptyString)
	if err != nil {
		return nil, err
	}

	var errs []error
	cfg := &Config{
		AWSRegion:      region,
		AWSAccountID:   get(&errs, "AWS_ACCOUNT_ID", "", env.ParseString),
		AWSPartition:   get(&errs, "AWS_PARTITION", PartitionForRegion(region), env.ParseNonEmptyString),
		ConsoleBaseURL: strings.TrimSuffix(get(&errs, "CONSOLE_BASE_URL", "https://"+region+".console.aws.amazon.com", env.ParseNonEmptyString), "/"),

		MetricNamespace:  get(&errs, "METRIC_NAMESPACE", "AWS/WAFV2", env.ParseNonEmptyString),
		MetricName:       get(&errs, "METRIC_NAME", "BlockedRequests", env.ParseNonEmptyString),
		WebACLName:       get(&errs, "WEB_ACL_NAME", "WebACLForWAFDemo", env.ParseNonEmptyString),
		RuleName:         get(&errs, "RULE_NAME", "AWS-AWSManagedRulesCommonRuleSet", env.ParseNonEmptyString),
		ZeroFillInterval: get(&errs, "ZERO_FILL_INTERVAL", 5*time.Minute, env.ParsePositiveDuration),
		Scheduler:        SchedulerMode(get(&errs, "ZERO_FILL_SCHEDULER", string(SchedulerLambda), env.ParseNonEmptyString)),

		Destination:        Destination(get(&errs, "FINDINGS_DESTINATION", string(DestinationSecurityHub), env.ParseNonEmptyString)),
		EventBusName:       get(&errs, "EVENT_BUS_NAME", "default", env.ParseNonEmptyString),
		SeverityPolicy:     SeverityPolicy(get(&errs, "SEVERITY_POLICY", string(SeverityFixed), env.ParseNonEmptyString)),
		SeverityProduct:    get(&errs, "SEVERITY_PRODUCT", 1.0, env.ParseFloat),
		SeverityNormalized: get(&errs, "SEVERITY_NORMALIZED", 10.0, env.ParseFloat),
		AnomalyScoreMax:    get(&errs, "ANOMALY_SCORE_MAX", 100.0, env.ParseFloat),
	}

	pairs, err := env.GetRequired("METRIC_DIMENSIONS", env.ParseKeyValues)
	if err != nil && !errors.Is(err, env.ErrMissing) {
		errs = append(errs, err)
	}
	for _, p := range pairs {
		cfg.ExtraDimensions = append(cfg.ExtraDimensions, Dimension{Name: p[0], Value: p[1]})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	switch cfg.Scheduler {
	case SchedulerLambda, SchedulerInterval:
	default:
		return nil, fmt.Errorf("invalid zero-fill scheduler: %s", cfg.Scheduler)
	}

	switch cfg.Destination {
	case DestinationSecurityHub:
	case DestinationEventBridge:
	case DestinationSNS:
		topicARN, err := env.GetRequired("SNS_TOPIC_ARN", env.ParseNonEmptyString)
		if err != nil {
			return nil, err
		}
		cfg.SNSTopicARN = topicARN
	default:
		return nil, fmt.Errorf("invalid findings destination: %s", cfg.Destination)
	}

	switch cfg.SeverityPolicy {
	case SeverityFixed, SeverityProportional:
	default:
		return nil, fmt.Errorf("invalid severity policy: %s", cfg.SeverityPolicy)
	}

	if cfg.SeverityNormalized < 0 || cfg.SeverityNormalized > 100 {
		return nil, fmt.Errorf("SEVERITY_NORMALIZED must be within [0,100], got %g", cfg.SeverityNormalized)
	}
	if !(cfg.AnomalyScoreMax > 0) || math.IsInf(cfg.AnomalyScoreMax, 0) {
		return nil, fmt.Errorf("ANOMALY_SCORE_MAX must be a positive finite number, got %g", cfg.AnomalyScoreMax)
	}

	return cfg, nil
}

// get reads an optional variable, collecting parse failures into errs.
func get[T any](errs *[]error, key string, defaultValue T, parser func(string) (T, error)) T {
	v, err := env.Get(key, defaultValue, parser)
	if err != nil {
		*errs = append(*errs, err)
	}
	return v
}

// Dimensions returns the series key dimensions in a stable order: Region, Rule, WebACL,
// followed by any extra dimensions in configuration order.
func (c *Config) Dimensions() []Dimension {
	dims := []Dimension{
		{Name: "Region", Value: c.AWSRegion},
		{Name: "Rule", Value: c.RuleName},
		{Name: "WebACL", Value: c.WebACLName},
	}
	return append(dims, c.ExtraDimensions...)
}

// PartitionForRegion derives the AWS partition from a region name.
func PartitionForRegion(region string) string {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn"
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov"
	case strings.HasPrefix(region, "us-iso-"):
		return "aws-iso"
	case strings.HasPrefix(region, "us-isob-"):
		return "aws-iso-b"
	default:
		return "aws"
	}
}

// ResolveAccountID fills AWSAccountID from the caller identity when it was not configured.
func (c *Config) ResolveAccountID(ctx context.Context, identity CallerIdentityAPI) error {
	if c.AWSAccountID != "" {
		return nil
	}

	account, err := callerAccount(ctx, identity)
	if err != nil {
		return err
	}

	c.AWSAccountID = account
	return nil
}
