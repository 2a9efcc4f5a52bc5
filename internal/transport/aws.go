package transport

import (
	"errors"

	"github.com/aws/smithy-go"
)

// isAWSAuthError reports whether an AWS SDK error indicates bad or missing
// credentials rather than a problem with the request itself. These surface
// as generic API errors, not modeled exception types, so the error code
// string is the only discriminator the SDK gives us.
func isAWSAuthError(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "UnrecognizedClientException",
		"InvalidClientTokenId",
		"SignatureDoesNotMatch",
		"AccessDeniedException",
		"AccessDenied",
		"AuthorizationError",
		"ExpiredToken",
		"ExpiredTokenException":
		return true
	}
	return false
}
