package network

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	awsplatform "github.com/cloudprov/provisioner/internal/platform/aws"
	"github.com/cloudprov/provisioner/internal/provisioning"
	"github.com/cloudprov/provisioner/internal/provisioning/account"
	"github.com/cloudprov/provisioner/internal/util/retry"
)

// SettingRetryDelay is the initial wait before retrying a delete that hit a
// dependency violation.
const SettingRetryDelay = "retryDelay"

const defaultRetryDelay = 2 * time.Second

// access holds what an EC2 step needs to reach the target account.
type access struct {
	factory     awsplatform.ClientFactory
	creds       awsplatform.Credentials
	rolePattern string
	verify      bool
	retryDelay  time.Duration

	// client is set by connect and reused by the rollback.
	client awsplatform.EC2API
}

// setup reads the AWS settings. Every EC2 call goes through a role assumed in
// the run's target account.
func (a *access) setup(settings provisioning.Settings) error {
	if a.factory == nil {
		return fmt.Errorf("no AWS client factory configured")
	}

	var err error
	if a.creds.AccessKeyID, err = settings.Required(SettingAccessKeyID); err != nil {
		return err
	}
	if a.creds.SecretKey, err = settings.Required(SettingSecretKey); err != nil {
		return err
	}
	if a.creds.Region, err = settings.Required(SettingRegion); err != nil {
		return err
	}
	if a.rolePattern, err = settings.Required(SettingRoleARNPattern); err != nil {
		return err
	}
	if !strings.Contains(a.rolePattern, awsplatform.AccountNumberPlaceholder) {
		return fmt.Errorf("setting %s must contain %s", SettingRoleARNPattern, awsplatform.AccountNumberPlaceholder)
	}
	if a.verify, err = settings.Bool(SettingVerifyCredentials, false); err != nil {
		return err
	}
	if a.retryDelay, err = settings.Duration(SettingRetryDelay, defaultRetryDelay); err != nil {
		return err
	}
	return nil
}

// connect returns an EC2 client acting in the run's target account.
func (a *access) connect(ctx context.Context, b *provisioning.Base) (awsplatform.EC2API, error) {
	if a.verify {
		identity, err := a.factory.CallerIdentity(ctx, a.creds)
		if err != nil {
			return nil, err
		}
		b.Logf("authenticated as %s", identity)
	}

	target, err := account.TargetAccount(b.RunContext())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target account: %w", err)
	}
	roleARN, err := awsplatform.RoleARN(a.rolePattern, target)
	if err != nil {
		return nil, err
	}

	client, err := a.factory.EC2(ctx, a.creds, roleARN)
	if err != nil {
		return nil, fmt.Errorf("failed to create EC2 client: %w", err)
	}
	a.client = client
	return client, nil
}

// deleteWithRetry runs del until it succeeds. Dependency violations are
// retried while AWS catches up with earlier deletes; not-found counts as done.
func (a *access) deleteWithRetry(ctx context.Context, b *provisioning.Base, what string, del func(context.Context) error) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		err := del(ctx)
		switch {
		case err == nil, awsplatform.IsNotFound(err):
			return nil
		case awsplatform.IsDependencyViolation(err):
			return err
		default:
			return retry.Fatal(err)
		}
	},
		retry.WithInitialDelay(a.retryDelay),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			b.Logf("deleting %s failed (attempt %d), retrying in %v: %v", what, attempt, delay, err)
		}),
	)
}

// tags builds the tag specification applied to every resource a run creates.
func tags(b *provisioning.Base, resource ec2types.ResourceType, name string) []ec2types.TagSpecification {
	rc := b.RunContext()
	return []ec2types.TagSpecification{{
		ResourceType: resource,
		Tags: []ec2types.Tag{
			{Key: aws.String("Name"), Value: aws.String(name)},
			{Key: aws.String("provisioner:run-id"), Value: aws.String(rc.RunID())},
			{Key: aws.String("provisioner:owner"), Value: aws.String(rc.Requisition().Owner)},
		},
	}}
}

// upstreamVpc returns the id of the VPC created by CREATE_VPC, or "" when the
// run creates no VPC.
func upstreamVpc(b *provisioning.Base) (string, error) {
	v, err := b.Lookup(TypeCreateVpc, PropVpcID)
	if err != nil {
		return "", err
	}
	if v.NotApplicable() {
		return "", nil
	}
	return v.Require()
}
