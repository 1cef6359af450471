package dispatch

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/aws-sdk-go-v2/service/securityhub/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/waf-anomaly-findings/internal/finding"
)

// timestampLayout is ISO-8601 with an explicit numeric offset.
const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

// SecurityHubAPI defines required Security Hub operations.
type SecurityHubAPI interface {
	BatchImportFindings(
		ctx context.Context,
		params *securityhub.BatchImportFindingsInput,
		optFns ...func(*securityhub.Options)) (*securityhub.BatchImportFindingsOutput, error)
}

// SecurityHub imports findings into AWS Security Hub, one finding per call.
type SecurityHub struct {
	client SecurityHubAPI
}

// NewSecurityHub creates a new Security Hub repository.
func NewSecurityHub(client SecurityHubAPI) *SecurityHub {
	return &SecurityHub{client: client}
}

// Submit imports f. Importing an existing id updates that finding in place.
func (s *SecurityHub) Submit(ctx context.Context, f *finding.Finding) error {
	ctx, span := tracer.Start(ctx, "dispatch.securityhub")
	defer span.End()
	span.SetAttributes(attribute.String("finding.id", f.ID))

	out, err := s.client.BatchImportFindings(ctx, &securityhub.BatchImportFindingsInput{
		Findings: []types.AwsSecurityFinding{toSecurityHubFinding(f)},
	})
	if err != nil {
		return classify(err)
	}

	if len(out.FailedFindings) > 0 {
		failed := out.FailedFindings[0]
		return rejected(aws.ToString(failed.ErrorCode), aws.ToString(failed.ErrorMessage))
	}

	return nil
}

func toSecurityHubFinding(f *finding.Finding) types.AwsSecurityFinding {
	resources := make([]types.Resource, 0, len(f.Resources))
	for _, r := range f.Resources {
		resources = append(resources, types.Resource{
			Type:      aws.String(r.Type),
			Id:        aws.String(r.ID),
			Partition: types.Partition(r.Partition),
			Region:    aws.String(r.Region),
		})
	}

	return types.AwsSecurityFinding{
		SchemaVersion: aws.String(f.SchemaVersion),
		Id:            aws.String(f.ID),
		ProductArn:    aws.String(f.ProductArn),
		AwsAccountId:  aws.String(f.AccountID),
		GeneratorId:   aws.String(f.GeneratorID),
		Types:         f.Types,
		CreatedAt:     aws.String(f.CreatedAt.Format(timestampLayout)),
		UpdatedAt:     aws.String(f.UpdatedAt.Format(timestampLayout)),
		Severity: &types.Severity{
			Product:    aws.Float64(f.Severity.Product),
			Normalized: aws.Int32(f.Severity.Normalized),
			Label:      severityLabel(f.Severity.Normalized),
		},
		Title:         aws.String(f.Title),
		Description:   aws.String(f.Description),
		ProductFields: f.ProductFields,
		Resources:     resources,
		Remediation: &types.Remediation{
			Recommendation: &types.Recommendation{
				Text: aws.String(f.Remediation.Text),
				Url:  aws.String(f.Remediation.URL),
			},
		},
		RecordState: types.RecordState(f.RecordState),
	}
}

// severityLabel follows the Security Hub mapping from normalized score to label.
func severityLabel(normalized int32) types.SeverityLabel {
	switch {
	case normalized >= 90:
		return types.SeverityLabelCritical
	case normalized >= 70:
		return types.SeverityLabelHigh
	case normalized >= 40:
		return types.SeverityLabelMedium
	case normalized >= 1:
		return types.SeverityLabelLow
	default:
		return types.SeverityLabelInformational
	}
}
