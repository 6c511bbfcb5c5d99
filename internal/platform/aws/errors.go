package aws

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// IsNotFound reports whether err is an EC2 "resource does not exist" error.
// Rollbacks treat these as already compensated.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.HasSuffix(apiErr.ErrorCode(), ".NotFound")
}

// IsDependencyViolation reports whether err means a resource is still in use.
func IsDependencyViolation(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "DependencyViolation"
}
