package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"notifygate/internal/config"
	"notifygate/internal/types"
)

// Registry holds the channel transports constructed at startup from
// configuration. It is the single point of access for the dispatch layer:
// a request names a channel, the registry resolves the transport or rejects
// the channel as unknown. In local mode the registry is populated with stub
// implementations that log actions without requiring real credentials.
type Registry struct {
	transports   map[types.Channel]Transport
	defaultEmail types.Channel
	logger       *slog.Logger
}

// NewRegistry constructs the transports the configuration enables.
// If cfg.IsLocal(), the registry is populated with stub implementations.
// Otherwise, real transports are initialized with strict timeouts.
func NewRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg := &Registry{
		transports:   make(map[types.Channel]Transport),
		defaultEmail: types.Channel(cfg.Email.DefaultChannel),
		logger:       logger,
	}

	if cfg.IsLocal() {
		logger.Info("initializing channel transports in STUB mode",
			"environment", cfg.Environment,
		)
		reg.registerStubs(cfg)
		return reg, nil
	}

	logger.Info("initializing channel transports in PRODUCTION mode",
		"environment", cfg.Environment,
	)
	if err := reg.registerProduction(ctx, cfg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Lookup resolves a channel name to its transport. An unconfigured or
// unknown channel is a caller error, reported with a 400-mapped code.
func (r *Registry) Lookup(ch types.Channel) (Transport, error) {
	t, ok := r.transports[ch]
	if !ok {
		return nil, types.NewAppError(
			types.ErrCodeValidationUnknownChannel,
			fmt.Sprintf("channel %q is not enabled", ch),
			nil,
		)
	}
	return t, nil
}

// DefaultEmail returns the channel used when an email request names none.
func (r *Registry) DefaultEmail() types.Channel {
	return r.defaultEmail
}

// Channels returns the set of enabled channels, for logging at startup.
func (r *Registry) Channels() []types.Channel {
	out := make([]types.Channel, 0, len(r.transports))
	for ch := range r.transports {
		out = append(out, ch)
	}
	return out
}

// registerStubs populates the registry with logging stubs for every channel
// the configuration enables, so local mode exposes the same channel surface
// as production.
func (r *Registry) registerStubs(cfg *config.Config) {
	stubLogger := r.logger.With("mode", "stub")

	for _, name := range cfg.Email.Channels {
		ch := types.Channel(name)
		r.transports[ch] = NewStubTransport(ch, stubLogger)
	}

	smsCh := types.Channel(cfg.SMS.Channel)
	r.transports[smsCh] = NewStubTransport(smsCh, stubLogger)

	if cfg.Push.Enabled {
		r.transports[types.ChannelAPNS] = NewStubTransport(types.ChannelAPNS, stubLogger)
		r.transports[types.ChannelFCM] = NewStubTransport(types.ChannelFCM, stubLogger)
	}
}

// registerProduction builds real provider transports. The AWS config is
// loaded once and shared by the SES and SNS clients.
func (r *Registry) registerProduction(ctx context.Context, cfg *config.Config) error {
	var awsCfg aws.Config
	needsAWS := cfg.SMS.Channel == "sns" || cfg.EmailChannelEnabled("ses")
	if needsAWS {
		loaded, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}
		awsCfg = loaded
	}

	// --- Email ---
	for _, name := range cfg.Email.Channels {
		switch types.Channel(name) {
		case types.ChannelSES:
			r.transports[types.ChannelSES] = NewSESTransport(awsCfg, SESTransportConfig{
				Sender:        cfg.Email.SESSender,
				ConfigSetName: cfg.Email.SESConfigSet,
				Logger:        r.logger.With("transport", "ses"),
			})
		case types.ChannelSMTP:
			smtp, err := NewSMTPTransport(SMTPTransportConfig{
				Host:       cfg.Email.SMTPHost,
				Port:       cfg.Email.SMTPPort,
				Username:   cfg.Email.SMTPUsername,
				Password:   cfg.Email.SMTPPassword.Unmask(),
				Encryption: cfg.Email.SMTPEncryption,
				Sender:     cfg.Email.SMTPUsername,
				Logger:     r.logger.With("transport", "smtp"),
			})
			if err != nil {
				return err
			}
			r.transports[types.ChannelSMTP] = smtp
		default:
			return fmt.Errorf("unknown email channel %q in EMAIL_CHANNELS", name)
		}
	}

	// --- SMS ---
	switch types.Channel(cfg.SMS.Channel) {
	case types.ChannelSNS:
		r.transports[types.ChannelSNS] = NewSNSTransport(awsCfg, SNSTransportConfig{
			Logger: r.logger.With("transport", "sns"),
		})
	case types.ChannelTwilio:
		r.transports[types.ChannelTwilio] = NewTwilioTransport(TwilioTransportConfig{
			AccountSID: cfg.SMS.TwilioAccountSID,
			AuthToken:  cfg.SMS.TwilioAuthToken.Unmask(),
			FromNumber: cfg.SMS.TwilioFromNumber,
			Logger:     r.logger.With("transport", "twilio"),
		})
	}

	// --- Push ---
	// APNS and FCM share one resilient HTTP client; retries stay disabled
	// so a dispatch attempt maps to exactly one provider call.
	if cfg.Push.Enabled {
		pushHTTPClient := &http.Client{Timeout: cfg.Push.Timeout}
		pushBase := NewBaseClient(pushHTTPClient, "push", NoRetryPolicy(), "notifygate/1.0")

		r.transports[types.ChannelAPNS] = NewAPNSTransport(PushTransportConfig{
			URL:    cfg.Push.APNSURL,
			Token:  cfg.Push.APNSToken.Unmask(),
			Topic:  cfg.Push.APNSTopic,
			Client: pushBase,
			Logger: r.logger.With("transport", "apns"),
		})
		r.transports[types.ChannelFCM] = NewFCMTransport(PushTransportConfig{
			URL:    cfg.Push.FCMURL,
			Token:  cfg.Push.FCMToken.Unmask(),
			Client: pushBase,
			Logger: r.logger.With("transport", "fcm"),
		})
	}

	return nil
}

// LoadAWSConfig resolves the AWS SDK configuration. Static credentials from
// the environment take precedence; otherwise the default chain applies
// (environment, shared config, IAM role). An endpoint override points the
// clients at LocalStack in development. The entry point reuses it for the
// CloudWatch metrics client.
func LoadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}

	if cfg.AWS.AccessKey != "" && cfg.AWS.SecretKey.IsSet() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKey, cfg.AWS.SecretKey.Unmask(), ""),
		))
	}

	if cfg.AWS.EndpointURL != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.AWS.EndpointURL))
	}

	return awsconfig.LoadDefaultConfig(ctx, opts...)
}
