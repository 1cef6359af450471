package dispatch

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/finding"
)

// FormatText converts a finding to a human-readable text message.
func FormatText(f *finding.Finding) string {
	var msg strings.Builder

	msg.WriteString("Security Finding: ")
	msg.WriteString(f.Title)
	msg.WriteString("\nState: ")
	msg.WriteString(string(f.RecordState))
	msg.WriteString("\nAccountID: ")
	msg.WriteString(f.AccountID)
	fmt.Fprintf(&msg, "\nSeverity: %s (normalized %d)", severityLabel(f.Severity.Normalized), f.Severity.Normalized)
	msg.WriteString("\n\n")
	msg.WriteString(f.Description)
	msg.WriteString("\n")

	if len(f.ProductFields) > 0 {
		msg.WriteString("\nDetails:\n")

		keys := make([]string, 0, len(f.ProductFields))
		for k := range f.ProductFields {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			fmt.Fprintf(&msg, "- %s: %s\n", k, f.ProductFields[k])
		}
	}

	fmt.Fprintf(&msg, "\nRemediation: %s\n%s", f.Remediation.Text, f.Remediation.URL)
	fmt.Fprintf(&msg, "\n\nFindingID: %s", f.ID)
	fmt.Fprintf(&msg, "\nTimestamp: %s", f.CreatedAt.Format(time.RFC3339))

	return msg.String()
}
