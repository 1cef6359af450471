package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// CallerIdentityAPI defines the STS operation used to discover the account id.
type CallerIdentityAPI interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func callerAccount(ctx context.Context, identity CallerIdentityAPI) (string, error) {
	out, err := identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("cannot get caller identity: %w", err)
	}

	account := aws.ToString(out.Account)
	if account == "" {
		return "", errors.New("caller identity has no account")
	}

	return account, nil
}
