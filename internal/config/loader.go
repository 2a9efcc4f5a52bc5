// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent drift bugs.
//  2. Load a .env file via godotenv (non-fatal if absent, never overrides
//     real environment variables).
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Validate the struct using go-playground/validator.
//  5. Check channel wiring: every selected channel must have the credentials
//     its transport needs, unless running in local mode where stub transports
//     take over.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// localEnv is the APP_ENV value under which stub transports are used and
// credential wiring checks are skipped.
const localEnv = "local"

// ConfigError is a diagnostic error type returned by Load to aid debugging.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load loads and validates the gateway configuration from the environment.
// It is called exactly once, from cmd/api, before any component is built.
func Load() (*Config, error) {
	// Run everything in UTC. Phone parsing and logging must not depend on
	// the host timezone.
	time.Local = time.UTC

	// .env is a development convenience only; missing files are fine and
	// existing environment variables always win.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to parse environment variables",
			Err:     err,
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration failed validation",
			Err:     err,
		}
	}

	if err := checkChannelWiring(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsLocal reports whether the gateway runs in local mode, where stub
// transports replace real providers and no credentials are required.
func (c *Config) IsLocal() bool {
	return c.Environment == localEnv
}

// EmailChannelEnabled reports whether the named email transport was selected
// for construction at startup.
func (c *Config) EmailChannelEnabled(name string) bool {
	for _, ch := range c.Email.Channels {
		if strings.EqualFold(strings.TrimSpace(ch), name) {
			return true
		}
	}
	return false
}

// checkChannelWiring fails fast when a selected channel lacks the settings
// its transport needs. Local mode skips these checks because stub transports
// are wired instead of real providers.
func checkChannelWiring(cfg *Config) error {
	if cfg.IsLocal() {
		return nil
	}

	wiringErr := func(msg string) error {
		return &ConfigError{Type: ErrWiring, Message: msg}
	}

	if cfg.EmailChannelEnabled("ses") && cfg.Email.SESSender == "" {
		return wiringErr("email channel 'ses' selected but SES_SENDER is not set")
	}
	if cfg.EmailChannelEnabled("smtp") {
		if cfg.Email.SMTPHost == "" || cfg.Email.SMTPUsername == "" {
			return wiringErr("email channel 'smtp' selected but SMTP_HOST/SMTP_USERNAME are not set")
		}
	}
	if !cfg.EmailChannelEnabled(cfg.Email.DefaultChannel) {
		return wiringErr(fmt.Sprintf("EMAIL_DEFAULT_CHANNEL %q is not in EMAIL_CHANNELS", cfg.Email.DefaultChannel))
	}

	if cfg.SMS.Channel == "twilio" {
		if cfg.SMS.TwilioAccountSID == "" || !cfg.SMS.TwilioAuthToken.IsSet() || cfg.SMS.TwilioFromNumber == "" {
			return wiringErr("sms channel 'twilio' selected but Twilio credentials are incomplete")
		}
	}

	if cfg.Push.Enabled {
		if cfg.Push.APNSURL == "" && cfg.Push.FCMURL == "" {
			return wiringErr("push enabled but neither APNS_URL nor FCM_URL is set")
		}
	}

	return nil
}
