// Package finding turns anomaly notifications into security findings and submits them.
package finding

import (
	"time"

	"github.com/google/uuid"
)

const (
	SchemaVersion = "2018-10-08"
	GeneratorID   = "LookoutForMetrics"
	FindingType   = "AWS WAF Anomaly"
	ProductName   = "AWS WAF/Lookout For Metrics"

	remediationText = "Navigate in Lookout for Metrics to see more information on this anomaly"
)

// RecordState is the lifecycle state of a finding in the repository.
type RecordState string

const (
	RecordStateActive   RecordState = "ACTIVE"
	RecordStateArchived RecordState = "ARCHIVED"
)

// Resource references the protected resource a finding is about.
type Resource struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Partition string `json:"partition"`
	Region    string `json:"region"`
}

// Remediation points the reader at the detector console page for the anomaly.
type Remediation struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Finding is a normalized security finding ready for submission.
// It is created once per notification and not modified after submission.
type Finding struct {
	ID            string            `json:"id"`
	SchemaVersion string            `json:"schemaVersion"`
	ProductArn    string            `json:"productArn"`
	AccountID     string            `json:"awsAccountId"`
	GeneratorID   string            `json:"generatorId"`
	Types         []string          `json:"types"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Severity      Severity          `json:"severity"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	ProductFields map[string]string `json:"productFields"`
	Resources     []Resource        `json:"resources"`
	Remediation   Remediation       `json:"remediation"`
	RecordState   RecordState       `json:"recordState"`
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ab0utbla-k/waf-anomaly-findings/finding"))

// DeterministicID derives the finding id from the alert event id, so a redelivered
// notification maps onto the finding that was already submitted.
func DeterministicID(alertEventID string) string {
	return uuid.NewSHA1(idNamespace, []byte(alertEventID)).String()
}
