package aws

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSTS struct {
	arn string
	err error
}

func (s stubSTS) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &sts.GetCallerIdentityOutput{Arn: aws.String(s.arn)}, nil
}

var testCreds = Credentials{AccessKeyID: "AKIA", SecretKey: "secret", Region: "us-east-1"}

func TestCredentials_Validate(t *testing.T) {
	t.Parallel()
	require.NoError(t, testCreds.Validate())

	err := Credentials{Region: "us-east-1"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access key id, secret key")
}

func TestRoleARN(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		pattern string
		account string
		want    string
		wantErr bool
	}{
		{name: "expands", pattern: "arn:aws:iam::ACCOUNT_NUMBER:role/Provisioner", account: "123456789012", want: "arn:aws:iam::123456789012:role/Provisioner"},
		{name: "no placeholder", pattern: "arn:aws:iam::1:role/X", account: "123", wantErr: true},
		{name: "no account", pattern: "arn:aws:iam::ACCOUNT_NUMBER:role/X", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := RoleARN(tt.pattern, tt.account)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSDKFactory_CallerIdentity(t *testing.T) {
	t.Parallel()
	f := NewSDKFactory()
	f.newSTS = func(aws.Config) STSAPI { return stubSTS{arn: "arn:aws:iam::1:user/ops"} }

	arn, err := f.CallerIdentity(context.Background(), testCreds)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::1:user/ops", arn)

	f.newSTS = func(aws.Config) STSAPI { return stubSTS{err: errors.New("InvalidClientTokenId")} }
	_, err = f.CallerIdentity(context.Background(), testCreds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to verify AWS credentials")

	_, err = f.CallerIdentity(context.Background(), Credentials{})
	assert.Error(t, err)
}

func TestSDKFactory_EC2(t *testing.T) {
	t.Parallel()
	f := NewSDKFactory()

	client, err := f.EC2(context.Background(), testCreds, "arn:aws:iam::123456789012:role/Provisioner")
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = f.EC2(context.Background(), Credentials{}, "")
	assert.Error(t, err)
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", want: false},
		{name: "vpc", err: &smithy.GenericAPIError{Code: "InvalidVpcID.NotFound"}, want: true},
		{name: "subnet wrapped", err: fmt.Errorf("delete: %w", &smithy.GenericAPIError{Code: "InvalidSubnetID.NotFound"}), want: true},
		{name: "association", err: &smithy.GenericAPIError{Code: "InvalidAssociationID.NotFound"}, want: true},
		{name: "route table", err: &smithy.GenericAPIError{Code: "InvalidRouteTableID.NotFound"}, want: true},
		{name: "dependency", err: &smithy.GenericAPIError{Code: "DependencyViolation"}, want: false},
		{name: "plain", err: errors.New("InvalidVpcID.NotFound"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}

	assert.True(t, IsDependencyViolation(&smithy.GenericAPIError{Code: "DependencyViolation"}))
	assert.False(t, IsDependencyViolation(nil))
}
