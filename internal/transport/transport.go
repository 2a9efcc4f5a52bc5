// Package transport contains the channel transport implementations behind the
// dispatch engine: SES and SMTP for email, SNS and Twilio for SMS, APNS and
// FCM for push. Every provider call is routed through a small shared surface
// so the engine never sees vendor SDK types, only normalized recipients and
// AppError failures.
package transport

import (
	"context"

	"notifygate/internal/types"
)

// Transport delivers one message to one already-normalized recipient.
// Implementations map every provider failure to a *types.AppError with a
// transport_* code; they never retry on their own, so a returned error means
// exactly one attempt was made.
type Transport interface {
	// Channel identifies the concrete delivery mechanism.
	Channel() types.Channel

	// SendOne performs a single delivery attempt. recipient is the
	// normalized identifier (E.164 number, email address, device token).
	SendOne(ctx context.Context, recipient string, msg *types.Message) error
}

// BatchPreconditioner is implemented by transports that require the whole
// batch to be rejected before any per-recipient work starts. The dispatch
// engine checks for it with a type assertion and returns the error to the
// caller as a request-level failure, producing no per-recipient outcomes.
type BatchPreconditioner interface {
	BatchPrecondition(msg *types.Message) error
}
