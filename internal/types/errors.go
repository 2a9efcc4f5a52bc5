package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// Handlers and transports MUST use these constants instead of hardcoded strings.
const (
	// Validation (400) — request-level failures that never reach a transport.
	ErrCodeValidationInvalidRecipient ErrorCode = "validation_invalid_recipient"
	ErrCodeValidationMissingAttribute ErrorCode = "validation_missing_required_attribute"
	ErrCodeValidationMissingField     ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidField     ErrorCode = "validation_invalid_field"
	ErrCodeValidationUnknownChannel   ErrorCode = "validation_unknown_channel"
	ErrCodeValidationInvalidJSON      ErrorCode = "validation_invalid_json"

	// Transport failures — raised by a channel transport for a single send.
	// Authentication maps to 401; rejected sends and outages map to 502 so
	// callers can distinguish gateway misconfiguration from upstream trouble.
	ErrCodeTransportAuth        ErrorCode = "transport_authentication_failed"
	ErrCodeTransportSend        ErrorCode = "transport_send_rejected"
	ErrCodeTransportUnavailable ErrorCode = "transport_unavailable"
	ErrCodeTransportUnknown     ErrorCode = "transport_unknown_failure"

	// Internal (500)
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Used by the API layer to translate AppErrors into HTTP responses.
// Returns 500 for unrecognized error codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest // 400
	case s == string(ErrCodeTransportAuth):
		return http.StatusUnauthorized // 401
	case s == string(ErrCodeTransportUnknown):
		return http.StatusInternalServerError // 500
	case strings.HasPrefix(s, "transport_"):
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// AppError is the standard application error type used throughout the gateway.
// All domain and transport errors should be expressed as AppError to enable
// consistent error formatting, HTTP status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error. This is the standard constructor for domain errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
