package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// AccountNumberPlaceholder is replaced by the target account id in role ARN patterns.
const AccountNumberPlaceholder = "ACCOUNT_NUMBER"

// roleSessionName identifies provisioner sessions in CloudTrail.
const roleSessionName = "provisioner"

// Credentials are the static operator keys a step is configured with.
type Credentials struct {
	AccessKeyID string
	SecretKey   string
	Region      string
}

// Validate checks that all fields are set.
func (c Credentials) Validate() error {
	var missing []string
	if c.AccessKeyID == "" {
		missing = append(missing, "access key id")
	}
	if c.SecretKey == "" {
		missing = append(missing, "secret key")
	}
	if c.Region == "" {
		missing = append(missing, "region")
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete AWS credentials: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// EC2API is the subset of the EC2 SDK client used by network steps.
type EC2API interface {
	CreateVpc(ctx context.Context, in *ec2.CreateVpcInput, optFns ...func(*ec2.Options)) (*ec2.CreateVpcOutput, error)
	DeleteVpc(ctx context.Context, in *ec2.DeleteVpcInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error)
	CreateSubnet(ctx context.Context, in *ec2.CreateSubnetInput, optFns ...func(*ec2.Options)) (*ec2.CreateSubnetOutput, error)
	DeleteSubnet(ctx context.Context, in *ec2.DeleteSubnetInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error)
	CreateRouteTable(ctx context.Context, in *ec2.CreateRouteTableInput, optFns ...func(*ec2.Options)) (*ec2.CreateRouteTableOutput, error)
	DeleteRouteTable(ctx context.Context, in *ec2.DeleteRouteTableInput, optFns ...func(*ec2.Options)) (*ec2.DeleteRouteTableOutput, error)
	AssociateRouteTable(ctx context.Context, in *ec2.AssociateRouteTableInput, optFns ...func(*ec2.Options)) (*ec2.AssociateRouteTableOutput, error)
	DisassociateRouteTable(ctx context.Context, in *ec2.DisassociateRouteTableInput, optFns ...func(*ec2.Options)) (*ec2.DisassociateRouteTableOutput, error)
}

// STSAPI is the subset of the STS SDK client used for credential checks.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// ClientFactory creates AWS clients for steps.
type ClientFactory interface {
	// EC2 returns a client acting through roleARN, or directly with creds when roleARN is empty.
	EC2(ctx context.Context, creds Credentials, roleARN string) (EC2API, error)
	// CallerIdentity returns the ARN the credentials authenticate as.
	CallerIdentity(ctx context.Context, creds Credentials) (string, error)
}

// SDKFactory implements ClientFactory with the AWS SDK.
type SDKFactory struct {
	// newSTS is swapped in tests.
	newSTS func(cfg aws.Config) STSAPI
}

// NewSDKFactory creates a factory backed by the AWS SDK.
func NewSDKFactory() *SDKFactory {
	return &SDKFactory{
		newSTS: func(cfg aws.Config) STSAPI { return sts.NewFromConfig(cfg) },
	}
}

// baseConfig loads an SDK config using the static keys in creds.
func (f *SDKFactory) baseConfig(ctx context.Context, creds Credentials) (aws.Config, error) {
	if err := creds.Validate(); err != nil {
		return aws.Config{}, err
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(creds.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretKey, "")),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// EC2 implements ClientFactory.
func (f *SDKFactory) EC2(ctx context.Context, creds Credentials, roleARN string) (EC2API, error) {
	cfg, err := f.baseConfig(ctx, creds)
	if err != nil {
		return nil, err
	}
	if roleARN != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), roleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = roleSessionName
		})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}
	return ec2.NewFromConfig(cfg), nil
}

// CallerIdentity implements ClientFactory.
func (f *SDKFactory) CallerIdentity(ctx context.Context, creds Credentials) (string, error) {
	cfg, err := f.baseConfig(ctx, creds)
	if err != nil {
		return "", err
	}
	out, err := f.newSTS(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to verify AWS credentials: %w", err)
	}
	return aws.ToString(out.Arn), nil
}

// RoleARN expands pattern for accountID. The pattern must contain
// ACCOUNT_NUMBER exactly where the account id belongs.
func RoleARN(pattern, accountID string) (string, error) {
	if !strings.Contains(pattern, AccountNumberPlaceholder) {
		return "", fmt.Errorf("role ARN pattern %q does not contain %s", pattern, AccountNumberPlaceholder)
	}
	if accountID == "" {
		return "", errors.New("account id is required to build the role ARN")
	}
	return strings.ReplaceAll(pattern, AccountNumberPlaceholder, accountID), nil
}
