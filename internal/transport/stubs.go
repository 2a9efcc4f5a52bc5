package transport

import (
	"context"
	"log/slog"

	"notifygate/internal/types"
)

// StubTransport implements Transport by logging the send and reporting
// success. It lets the gateway boot in local mode without any provider
// credentials while exercising the full dispatch path.
//
// The stub keeps the batch-level rules of the channel kind it stands in
// for, so local behavior matches production for invalid requests.
type StubTransport struct {
	channel types.Channel
	logger  *slog.Logger
}

// NewStubTransport creates a StubTransport for the given channel.
func NewStubTransport(channel types.Channel, logger *slog.Logger) *StubTransport {
	return &StubTransport{channel: channel, logger: logger}
}

// Channel implements Transport.
func (s *StubTransport) Channel() types.Channel { return s.channel }

// BatchPrecondition mirrors the SMS routing-class requirement so local mode
// rejects the same requests production would.
func (s *StubTransport) BatchPrecondition(msg *types.Message) error {
	if s.channel.Kind() == types.KindSMS && msg.SmsType == "" {
		return types.NewAppError(
			types.ErrCodeValidationMissingAttribute,
			"SMS 'type' attribute is required.",
			nil,
		)
	}
	return nil
}

// SendOne logs the would-be delivery and succeeds.
func (s *StubTransport) SendOne(ctx context.Context, recipient string, msg *types.Message) error {
	s.logger.InfoContext(ctx, "stub: send called",
		"channel", string(s.channel),
		"recipient", recipient,
		"subject", msg.Subject,
		"reference_id", msg.ReferenceID,
	)
	return nil
}

// Compile-time assertions.
var (
	_ Transport           = (*StubTransport)(nil)
	_ BatchPreconditioner = (*StubTransport)(nil)
)
