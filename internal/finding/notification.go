package finding

import (
	"math"
	"strings"
	"unicode"
)

// Notification is the alert payload emitted by the anomaly detector.
// Every field is untrusted and is validated before use.
type Notification struct {
	AlertName          string   `json:"alertName"`
	AlertDescription   string   `json:"alertDescription"`
	AnomalyScore       *float64 `json:"anomalyScore"`
	AnomalyDetectorArn string   `json:"anomalyDetectorArn"`
	AlertEventID       string   `json:"alertEventId"`
	AlertArn           string   `json:"alertArn,omitempty"`
}

// Validate reports the first missing or unusable field as a MalformedNotificationError.
func (n *Notification) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"alertName", n.AlertName},
		{"alertDescription", n.AlertDescription},
		{"anomalyDetectorArn", n.AnomalyDetectorArn},
		{"alertEventId", n.AlertEventID},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &MalformedNotificationError{Field: r.field, Reason: "missing or empty"}
		}
	}

	if n.AnomalyScore == nil {
		return &MalformedNotificationError{Field: "anomalyScore", Reason: "missing"}
	}
	if math.IsNaN(*n.AnomalyScore) || math.IsInf(*n.AnomalyScore, 0) || *n.AnomalyScore < 0 {
		return &MalformedNotificationError{Field: "anomalyScore", Reason: "not a finite non-negative number"}
	}

	if !isIdentifier(n.AnomalyDetectorArn) {
		return &MalformedNotificationError{Field: "anomalyDetectorArn", Reason: "contains whitespace or control characters"}
	}
	// The detector ARN is embedded in a URL fragment.
	if strings.ContainsAny(n.AnomalyDetectorArn, "#?") {
		return &MalformedNotificationError{Field: "anomalyDetectorArn", Reason: "contains URL delimiters"}
	}
	if !isIdentifier(n.AlertEventID) {
		return &MalformedNotificationError{Field: "alertEventId", Reason: "contains whitespace or control characters"}
	}

	return nil
}

// anomalyID returns the segment of the alert event id after its last '/'.
func (n *Notification) anomalyID() (string, error) {
	i := strings.LastIndexByte(n.AlertEventID, '/')
	if i < 0 {
		return "", &MalformedNotificationError{Field: "alertEventId", Reason: "has no path separator"}
	}

	tail := n.AlertEventID[i+1:]
	if tail == "" {
		return "", &MalformedNotificationError{Field: "alertEventId", Reason: "ends with a path separator"}
	}

	return tail, nil
}

func isIdentifier(s string) bool {
	return !strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
}
