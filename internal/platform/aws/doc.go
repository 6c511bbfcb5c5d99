// Package aws builds the AWS clients network steps use to create VPC resources
// inside a target account.
//
// Steps hold static operator keys from their settings. [SDKFactory] turns them
// into an EC2 client that acts through a role assumed in the target account,
// and can verify the keys up front with STS GetCallerIdentity.
package aws
