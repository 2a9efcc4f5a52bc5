package core

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"notifygate/internal/types"
)

// ValidationError describes a single failed field constraint.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult aggregates errors and non-fatal warnings from a
// struct validation pass.
type ValidationResult struct {
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings,omitempty"`
}

// IsValid reports whether the result carries no errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator wraps go-playground/validator with JSON-aware field names
// and the custom tags used by request payloads.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator builds a Validator with custom tags registered. Field
// names in validation errors use the struct's json tag when present.
func NewValidator(logger *slog.Logger) (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("sms_type", validateSmsType); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation("channel_kind", validateChannelKind); err != nil {
		return nil, err
	}

	return &Validator{validate: v, logger: logger}, nil
}

// validateSmsType accepts the SMS delivery classes, case-insensitively.
// Empty values pass so "required" stays the sole missing-value check.
func validateSmsType(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	switch strings.ToLower(val) {
	case "promotional", "transactional":
		return true
	}
	return false
}

// validateChannelKind accepts a known channel identifier.
func validateChannelKind(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return types.Channel(strings.ToLower(val)).Kind() != ""
}

// ValidateStruct validates s and returns an AppError carrying the field
// errors in its details, or nil when s is valid.
func (v *Validator) ValidateStruct(s any) error {
	result := v.check(s)
	if result.IsValid() {
		return nil
	}

	code := types.ErrCodeValidationInvalidField
	for _, fe := range result.Errors {
		if fe.Code == "required" {
			code = types.ErrCodeValidationMissingField
			break
		}
	}

	return &types.AppError{
		Code:    code,
		Message: "Request validation failed.",
		Details: map[string]any{
			"validation_errors": result.Errors,
		},
	}
}

// ValidateStructWithWarnings behaves like ValidateStruct but returns
// the full result so callers can surface warnings alongside errors.
func (v *Validator) ValidateStructWithWarnings(s any) *ValidationResult {
	return v.check(s)
}

func (v *Validator) check(s any) *ValidationResult {
	result := &ValidationResult{}

	err := v.validate.Struct(s)
	if err == nil {
		return result
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		v.logger.Error("validator failed on input", "error", err)
		result.Errors = append(result.Errors, ValidationError{
			Field:   "",
			Code:    "invalid_input",
			Message: "input is not a validatable struct",
		})
		return result
	}

	for _, fe := range verrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: messageForTag(fe),
		})
	}
	return result
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid e-mail address"
	case "sms_type":
		return fe.Field() + " must be Promotional or Transactional"
	case "channel_kind":
		return fe.Field() + " must be a supported channel"
	case "min":
		return fe.Field() + " must have at least " + fe.Param() + " items"
	case "max":
		return fe.Field() + " must have at most " + fe.Param() + " items"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " failed " + fe.Tag() + " validation"
	}
}
