package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/textproto"

	"github.com/wneessen/go-mail"

	"notifygate/internal/types"
)

// mailSender is the subset of the go-mail client used by SMTPTransport.
// Extracted for testability; tests provide a capturing implementation.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPTransportConfig holds the configuration for creating an SMTPTransport.
type SMTPTransportConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string // starttls, ssl_tls, or none
	// Sender is the From address used for every send.
	Sender string
	// Logger for SMTP operations.
	Logger *slog.Logger
}

// SMTPTransport delivers email through a plain SMTP relay using go-mail.
// A fresh connection is dialed per send; relays used for notification
// volumes tolerate this fine and it keeps the transport stateless.
type SMTPTransport struct {
	sender mailSender
	from   string
	logger *slog.Logger
}

// NewSMTPTransport creates an SMTPTransport from relay configuration.
func NewSMTPTransport(cfg SMTPTransportConfig) (*SMTPTransport, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(cfg.Encryption)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}
	return NewSMTPTransportWithSender(client, cfg), nil
}

// NewSMTPTransportWithSender creates an SMTPTransport with a pre-configured
// sender. Useful for testing with a capturing mailSender.
func NewSMTPTransportWithSender(sender mailSender, cfg SMTPTransportConfig) *SMTPTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPTransport{
		sender: sender,
		from:   cfg.Sender,
		logger: logger,
	}
}

// Channel implements Transport.
func (s *SMTPTransport) Channel() types.Channel { return types.ChannelSMTP }

// SendOne builds a MIME message for a single recipient and relays it.
// The plaintext body is always set; an HTML body is attached as an
// alternative part when present.
func (s *SMTPTransport) SendOne(ctx context.Context, recipient string, msg *types.Message) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return types.NewAppError(
			types.ErrCodeTransportSend,
			fmt.Sprintf("invalid sender address %q", s.from),
			err,
		)
	}
	if err := m.To(recipient); err != nil {
		return types.NewAppError(
			types.ErrCodeValidationInvalidRecipient,
			fmt.Sprintf("Invalid e-mail address: %s.", recipient),
			err,
		)
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.BodyText)
	if msg.BodyHTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.BodyHTML)
	}
	if msg.ReferenceID != "" {
		m.SetGenHeader("X-Reference-ID", msg.ReferenceID)
	}

	if err := s.sender.DialAndSendWithContext(ctx, m); err != nil {
		return mapSMTPError(err)
	}

	s.logger.DebugContext(ctx, "smtp email relayed", "reference_id", msg.ReferenceID)
	return nil
}

// mapSMTPError translates go-mail failures into domain AppErrors. Permanent
// SMTP replies in the 530-539 range are authentication refusals; other
// send-phase errors mean the relay rejected the message; anything else is a
// connectivity problem.
func mapSMTPError(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code >= 530 && protoErr.Code <= 539 {
		return types.NewAppError(
			types.ErrCodeTransportAuth,
			"Authentication of server configurations failed.",
			err,
		)
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		return types.NewAppError(
			types.ErrCodeTransportSend,
			fmt.Sprintf("SMTP relay rejected message: %v", err),
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeTransportUnavailable,
		fmt.Sprintf("SMTP relay unreachable: %v", err),
		err,
	)
}

// tlsPolicyFromEncryption converts the encryption setting to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}

// Compile-time assertion that SMTPTransport satisfies Transport.
var _ Transport = (*SMTPTransport)(nil)
