package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"notifygate/internal/types"
)

// TwilioMessageAPI defines the subset of the Twilio REST client used by
// TwilioTransport. Extracted for testability; tests provide a mock
// implementation. The Twilio SDK does not take a context on message
// creation, so cancellation is checked before the call instead.
type TwilioMessageAPI interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// TwilioTransportConfig holds the configuration for creating a TwilioTransport.
type TwilioTransportConfig struct {
	AccountSID string
	AuthToken  string
	// FromNumber is the Twilio-owned sender number in E.164 form.
	FromNumber string
	// Logger for Twilio operations.
	Logger *slog.Logger
}

// TwilioTransport delivers SMS through the Twilio Programmable Messaging API.
type TwilioTransport struct {
	api    TwilioMessageAPI
	from   string
	logger *slog.Logger
}

// NewTwilioTransport creates a TwilioTransport with a real Twilio REST client.
func NewTwilioTransport(cfg TwilioTransportConfig) *TwilioTransport {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return NewTwilioTransportWithAPI(client.Api, cfg)
}

// NewTwilioTransportWithAPI creates a TwilioTransport with a pre-configured
// message API. Useful for testing with a mock.
func NewTwilioTransportWithAPI(api TwilioMessageAPI, cfg TwilioTransportConfig) *TwilioTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TwilioTransport{
		api:    api,
		from:   cfg.FromNumber,
		logger: logger,
	}
}

// Channel implements Transport.
func (t *TwilioTransport) Channel() types.Channel { return types.ChannelTwilio }

// SendOne creates one outbound message to the given E.164 number.
func (t *TwilioTransport) SendOne(ctx context.Context, recipient string, msg *types.Message) error {
	if err := ctx.Err(); err != nil {
		return types.NewAppError(
			types.ErrCodeTransportUnavailable,
			"request cancelled before Twilio send",
			err,
		)
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(t.from)
	params.SetBody(msg.BodyText)

	result, err := t.api.CreateMessage(params)
	if err != nil {
		return mapTwilioError(err)
	}

	sid := ""
	if result.Sid != nil {
		sid = *result.Sid
	}
	t.logger.DebugContext(ctx, "twilio sms accepted",
		"message_sid", sid,
		"reference_id", msg.ReferenceID,
	)
	return nil
}

// mapTwilioError translates Twilio REST failures into domain AppErrors using
// the HTTP status Twilio attached to the error.
func mapTwilioError(err error) error {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		switch {
		case restErr.Status == http.StatusUnauthorized || restErr.Status == http.StatusForbidden:
			return types.NewAppError(
				types.ErrCodeTransportAuth,
				"Authentication of server configurations failed.",
				err,
			)
		case restErr.Status == http.StatusTooManyRequests || restErr.Status >= 500:
			return types.NewAppError(
				types.ErrCodeTransportUnavailable,
				fmt.Sprintf("Twilio unavailable: %v", err),
				err,
			)
		case restErr.Status >= 400:
			return types.NewAppError(
				types.ErrCodeTransportSend,
				fmt.Sprintf("Twilio rejected message: %v", err),
				err,
			)
		}
	}

	return types.NewAppError(
		types.ErrCodeTransportUnknown,
		fmt.Sprintf("Twilio error: %v", err),
		err,
	)
}

// Compile-time assertion that TwilioTransport satisfies Transport.
var _ Transport = (*TwilioTransport)(nil)
