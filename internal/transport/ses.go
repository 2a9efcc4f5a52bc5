package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"notifygate/internal/types"
)

// SESAPI defines the subset of the SES v2 client used by SESTransport.
// Extracted for testability; tests provide a mock implementation.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESTransportConfig holds the configuration for creating an SESTransport.
type SESTransportConfig struct {
	// Sender is the verified From address used for every send.
	Sender string
	// ConfigSetName is the SES configuration set name for tracking.
	// Optional; if empty, no configuration set is used.
	ConfigSetName string
	// Logger for SES operations.
	Logger *slog.Logger
}

// SESTransport delivers email through AWS SES v2. Authentication is handled
// by the SDK credential chain. The SDK's built-in retry is disabled at
// construction so that one SendOne call is one SendEmail attempt.
type SESTransport struct {
	api           SESAPI
	sender        string
	configSetName string
	logger        *slog.Logger
}

// NewSESTransport creates an SESTransport from an AWS config.
func NewSESTransport(awsCfg aws.Config, cfg SESTransportConfig) *SESTransport {
	api := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		o.Retryer = aws.NopRetryer{}
	})
	return NewSESTransportWithAPI(api, cfg)
}

// NewSESTransportWithAPI creates an SESTransport with a pre-configured SESAPI.
// Useful for testing with a mock SES interface.
func NewSESTransportWithAPI(api SESAPI, cfg SESTransportConfig) *SESTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SESTransport{
		api:           api,
		sender:        cfg.Sender,
		configSetName: cfg.ConfigSetName,
		logger:        logger,
	}
}

// Channel implements Transport.
func (s *SESTransport) Channel() types.Channel { return types.ChannelSES }

// SendOne transmits the message to a single recipient using SES v2 SendEmail
// with simple content (Subject, Body.Html, Body.Text). The message carries
// pre-rendered content; no server-side templates.
//
// Error mapping:
//   - credential failures → ErrCodeTransportAuth
//   - MessageRejected, BadRequestException → ErrCodeTransportSend
//   - TooManyRequestsException, SendingPausedException → ErrCodeTransportUnavailable
//   - Other → ErrCodeTransportUnknown
func (s *SESTransport) SendOne(ctx context.Context, recipient string, msg *types.Message) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination: &sestypes.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &sestypes.Body{},
			},
		},
	}

	// Set HTML body if provided.
	if msg.BodyHTML != "" {
		input.Content.Simple.Body.Html = &sestypes.Content{
			Data:    aws.String(msg.BodyHTML),
			Charset: aws.String("UTF-8"),
		}
	}

	// Set plaintext body if provided.
	if msg.BodyText != "" {
		input.Content.Simple.Body.Text = &sestypes.Content{
			Data:    aws.String(msg.BodyText),
			Charset: aws.String("UTF-8"),
		}
	}

	// Set configuration set for tracking if configured.
	if s.configSetName != "" {
		input.ConfigurationSetName = aws.String(s.configSetName)
	}

	// Tag the message with ReferenceID for correlation.
	if msg.ReferenceID != "" {
		input.EmailTags = []sestypes.MessageTag{
			{
				Name:  aws.String("ReferenceID"),
				Value: aws.String(msg.ReferenceID),
			},
		}
	}

	result, err := s.api.SendEmail(ctx, input)
	if err != nil {
		return mapSESError(err)
	}

	s.logger.DebugContext(ctx, "ses email accepted",
		"message_id", aws.ToString(result.MessageId),
		"reference_id", msg.ReferenceID,
	)
	return nil
}

// mapSESError translates AWS SES errors into domain AppErrors.
func mapSESError(err error) error {
	if isAWSAuthError(err) {
		return types.NewAppError(
			types.ErrCodeTransportAuth,
			"Authentication of server configurations failed.",
			err,
		)
	}

	var msgRejected *sestypes.MessageRejected
	if errors.As(err, &msgRejected) {
		return types.NewAppError(
			types.ErrCodeTransportSend,
			fmt.Sprintf("SES rejected message: %v", err),
			err,
		)
	}

	var badRequest *sestypes.BadRequestException
	if errors.As(err, &badRequest) {
		return types.NewAppError(
			types.ErrCodeTransportSend,
			fmt.Sprintf("SES refused request: %v", err),
			err,
		)
	}

	var tooManyReqs *sestypes.TooManyRequestsException
	if errors.As(err, &tooManyReqs) {
		return types.NewAppError(
			types.ErrCodeTransportUnavailable,
			fmt.Sprintf("SES rate limit exceeded: %v", err),
			err,
		)
	}

	var sendingPaused *sestypes.SendingPausedException
	if errors.As(err, &sendingPaused) {
		return types.NewAppError(
			types.ErrCodeTransportUnavailable,
			fmt.Sprintf("SES account sending paused: %v", err),
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeTransportUnknown,
		fmt.Sprintf("SES error: %v", err),
		err,
	)
}

// Compile-time assertion that SESTransport satisfies Transport.
var _ Transport = (*SESTransport)(nil)
