package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"notifygate/internal/types"
)

// smsTypeAttribute is the SNS message attribute that selects the carrier
// routing class (Promotional or Transactional) for an SMS publish.
const smsTypeAttribute = "AWS.SNS.SMS.SMSType"

// SNSAPI defines the subset of the SNS client used by SNSTransport.
// Extracted for testability; tests provide a mock implementation.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSTransportConfig holds the configuration for creating an SNSTransport.
type SNSTransportConfig struct {
	// Logger for SNS operations.
	Logger *slog.Logger
}

// SNSTransport delivers SMS through AWS SNS direct phone publishing.
// SNS requires a message type on every publish, so the transport declares a
// batch precondition rejecting requests that carry none.
type SNSTransport struct {
	api    SNSAPI
	logger *slog.Logger
}

// NewSNSTransport creates an SNSTransport from an AWS config.
func NewSNSTransport(awsCfg aws.Config, cfg SNSTransportConfig) *SNSTransport {
	api := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		o.Retryer = aws.NopRetryer{}
	})
	return NewSNSTransportWithAPI(api, cfg)
}

// NewSNSTransportWithAPI creates an SNSTransport with a pre-configured SNSAPI.
// Useful for testing with a mock SNS interface.
func NewSNSTransportWithAPI(api SNSAPI, cfg SNSTransportConfig) *SNSTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SNSTransport{api: api, logger: logger}
}

// Channel implements Transport.
func (s *SNSTransport) Channel() types.Channel { return types.ChannelSNS }

// BatchPrecondition implements BatchPreconditioner. SNS cannot publish an SMS
// without a routing class, and the class applies to the batch as a whole, so
// a missing type fails the entire request before any recipient is attempted.
func (s *SNSTransport) BatchPrecondition(msg *types.Message) error {
	if msg.SmsType == "" {
		return types.NewAppError(
			types.ErrCodeValidationMissingAttribute,
			"SMS 'type' attribute is required.",
			nil,
		)
	}
	return nil
}

// SendOne publishes the message body directly to one E.164 phone number.
func (s *SNSTransport) SendOne(ctx context.Context, recipient string, msg *types.Message) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(recipient),
		Message:     aws.String(msg.BodyText),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			smsTypeAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(msg.SmsType)),
			},
		},
	}

	result, err := s.api.Publish(ctx, input)
	if err != nil {
		return mapSNSError(err)
	}

	s.logger.DebugContext(ctx, "sns sms published",
		"message_id", aws.ToString(result.MessageId),
		"reference_id", msg.ReferenceID,
	)
	return nil
}

// mapSNSError translates AWS SNS errors into domain AppErrors.
func mapSNSError(err error) error {
	if isAWSAuthError(err) {
		return types.NewAppError(
			types.ErrCodeTransportAuth,
			"Authentication of server configurations failed.",
			err,
		)
	}

	var authzErr *snstypes.AuthorizationErrorException
	if errors.As(err, &authzErr) {
		return types.NewAppError(
			types.ErrCodeTransportAuth,
			"Authentication of server configurations failed.",
			err,
		)
	}

	var paramErr *snstypes.InvalidParameterException
	if errors.As(err, &paramErr) {
		return types.NewAppError(
			types.ErrCodeTransportSend,
			fmt.Sprintf("SNS rejected publish: %v", err),
			err,
		)
	}

	var throttled *snstypes.ThrottledException
	if errors.As(err, &throttled) {
		return types.NewAppError(
			types.ErrCodeTransportUnavailable,
			fmt.Sprintf("SNS rate limit exceeded: %v", err),
			err,
		)
	}

	var internalErr *snstypes.InternalErrorException
	if errors.As(err, &internalErr) {
		return types.NewAppError(
			types.ErrCodeTransportUnavailable,
			fmt.Sprintf("SNS internal error: %v", err),
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeTransportUnknown,
		fmt.Sprintf("SNS error: %v", err),
		err,
	)
}

// Compile-time assertions.
var (
	_ Transport           = (*SNSTransport)(nil)
	_ BatchPreconditioner = (*SNSTransport)(nil)
)
