// Package config defines the global configuration structure for the
// notification gateway. Configuration is loaded once at process
// initialization and is immutable thereafter, following 12-Factor principles:
// code and configuration stay strictly separated, and any missing required
// value or invalid format aborts startup (fail fast).
//
// Values resolve from the OS environment, with a .env file as a development
// convenience (never overriding real environment variables).
package config

import (
	"time"

	"notifygate/internal/types"
)

// SecretString aliases types.SecretString, the redacted secret type used for
// every credential field so configuration dumps never leak provider secrets.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the gateway. It is
// populated once during process initialization and never modified.
// Components receive only the specific subsets they require.
type Config struct {
	// System metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"notifygate"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain configurations
	Server        ServerConfig
	AWS           AWSConfig
	Email         EmailConfig
	SMS           SMSConfig
	Push          PushConfig
	Dispatch      DispatchConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
}

// AWSConfig holds the regional and credential configuration shared by the
// SES, SNS, and CloudWatch clients. When AccessKey/SecretKey are empty the
// SDK default credential chain (IAM role, shared config) is used instead.
type AWSConfig struct {
	Region    string       `envconfig:"AWS_REGION" default:"eu-central-1"`
	AccessKey string       `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretKey SecretString `envconfig:"AWS_SECRET_ACCESS_KEY"`

	// EndpointURL points the SDK at LocalStack in development. Empty in prod.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// EmailConfig selects and configures the email transports. Channels lists
// the transports to construct at startup ("ses", "smtp", or both); a request
// naming a channel outside this list is rejected.
type EmailConfig struct {
	Channels       []string `envconfig:"EMAIL_CHANNELS" default:"ses"`
	DefaultChannel string   `envconfig:"EMAIL_DEFAULT_CHANNEL" default:"ses" validate:"oneof=ses smtp"`

	// SES
	SESSender    string `envconfig:"SES_SENDER"`
	SESConfigSet string `envconfig:"SES_CONFIG_SET"`

	// SMTP. Username doubles as the sender identity, matching the relay
	// account the message is submitted through.
	SMTPHost       string       `envconfig:"SMTP_HOST"`
	SMTPPort       int          `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername   string       `envconfig:"SMTP_USERNAME"`
	SMTPPassword   SecretString `envconfig:"SMTP_PASSWORD"`
	SMTPEncryption string       `envconfig:"SMTP_ENCRYPTION" default:"starttls" validate:"oneof=starttls ssl_tls none"`
}

// SMSConfig selects and configures the SMS transport and the phone number
// normalization defaults.
type SMSConfig struct {
	Channel string `envconfig:"SMS_CHANNEL" default:"sns" validate:"oneof=sns twilio"`

	// DefaultRegion is the ISO 3166-1 alpha-2 region used to parse numbers
	// without an international prefix; DefaultCallingCode is prepended to
	// local-format numbers before parsing.
	DefaultRegion      string `envconfig:"SMS_DEFAULT_REGION" default:"TR" validate:"len=2"`
	DefaultCallingCode string `envconfig:"SMS_DEFAULT_CALLING_CODE" default:"90" validate:"required,numeric"`

	// Twilio
	TwilioAccountSID string       `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  SecretString `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string       `envconfig:"TWILIO_FROM_NUMBER"`
}

// PushConfig configures the APNS and FCM gateways. Both are plain HTTPS
// endpoints; tokens authenticate the gateway to the provider.
type PushConfig struct {
	Enabled bool          `envconfig:"PUSH_ENABLED" default:"false"`
	Timeout time.Duration `envconfig:"PUSH_TIMEOUT" default:"10s"`

	APNSURL   string       `envconfig:"APNS_URL"`
	APNSToken SecretString `envconfig:"APNS_TOKEN"`
	APNSTopic string       `envconfig:"APNS_TOPIC"`

	FCMURL   string       `envconfig:"FCM_URL"`
	FCMToken SecretString `envconfig:"FCM_TOKEN"`
}

// DispatchConfig tunes the per-recipient fan-out. MaxParallel of 1 means
// strictly sequential processing; higher values bound the worker pool.
// Outcome order is keyed to input order either way.
type DispatchConfig struct {
	MaxParallel int `envconfig:"DISPATCH_MAX_PARALLEL" default:"4" validate:"min=1,max=64"`
}

// ObservabilityConfig holds telemetry settings. Metrics are emitted to
// CloudWatch when enabled; local mode uses a no-op collector.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"NotifyGate"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrParsing indicates a failure parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrWiring indicates a channel was selected without the credentials or
	// endpoints its transport needs.
	ErrWiring ConfigErrorType = "CHANNEL_WIRING_FAILED"
)
