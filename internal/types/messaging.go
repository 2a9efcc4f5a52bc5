// Package types defines the shared domain model for the notification gateway:
// channels, message requests, dispatch outcomes, and the application error
// taxonomy. It has no dependencies on other internal packages so that every
// layer (transports, dispatch engine, HTTP handlers) can share these types
// without import cycles.
package types

// ChannelKind groups channels by the class of recipient identifier they
// deliver to. It decides which normalization a recipient goes through.
type ChannelKind string

const (
	KindEmail ChannelKind = "email"
	KindSMS   ChannelKind = "sms"
	KindPush  ChannelKind = "push"
)

// Channel identifies one concrete delivery mechanism. Exactly one transport
// implementation exists per channel, selected at startup from configuration.
type Channel string

const (
	ChannelSES    Channel = "ses"
	ChannelSMTP   Channel = "smtp"
	ChannelSNS    Channel = "sns"
	ChannelTwilio Channel = "twilio"
	ChannelAPNS   Channel = "apns"
	ChannelFCM    Channel = "fcm"
)

// Kind returns the recipient class the channel delivers to.
// Unknown channels report an empty kind; callers treat that as a
// validation failure.
func (c Channel) Kind() ChannelKind {
	switch c {
	case ChannelSES, ChannelSMTP:
		return KindEmail
	case ChannelSNS, ChannelTwilio:
		return KindSMS
	case ChannelAPNS, ChannelFCM:
		return KindPush
	}
	return ""
}

// SmsType is the carrier-facing message category classifier. SNS requires it
// on every publish (AWS.SNS.SMS.SMSType); other SMS transports ignore it.
type SmsType string

const (
	SmsTypePromotional   SmsType = "Promotional"
	SmsTypeTransactional SmsType = "Transactional"
)

// RecipientRole records where an email recipient appeared in the request.
// It only affects error reporting; delivery itself is role-agnostic because
// every recipient gets its own independent send.
type RecipientRole string

const (
	RoleTo  RecipientRole = "To"
	RoleCc  RecipientRole = "Cc"
	RoleBcc RecipientRole = "Bcc"
)

// Recipient is one recipient identifier exactly as supplied by the caller:
// a phone number in arbitrary local format, an email address, or a push
// device token. Role is set for email recipients only.
type Recipient struct {
	Raw  string
	Role RecipientRole
}

// Message is a validated, immutable dispatch request for one channel.
// The recipient order is preserved through to the outcome list — callers
// correlate requests to results positionally.
//
// Field usage varies by kind: Subject carries the email subject or the push
// title; BodyHTML and SmsType apply to email and SMS respectively and are
// empty elsewhere.
type Message struct {
	Channel    Channel
	Recipients []Recipient
	Subject    string
	BodyText   string
	BodyHTML   string
	SmsType    SmsType

	// ReferenceID correlates provider-side records (SES message tags) with
	// gateway logs. Assigned per request by the handler layer.
	ReferenceID string
}

// OutcomeStatus is the per-recipient dispatch verdict.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "SUCCESS"
	StatusFailed  OutcomeStatus = "FAILED"
)

// DispatchOutcome is the per-recipient result of one dispatch call. Created
// once per recipient, never mutated afterwards, and never persisted — it only
// lives for the duration of a single request/response cycle.
//
// Receiver holds the normalized identifier when normalization succeeded, or
// the raw input when it did not.
type DispatchOutcome struct {
	Receiver string        `json:"receiver"`
	Status   OutcomeStatus `json:"status"`
	Message  string        `json:"message"`

	// ErrCode categorizes a failure for callers that need to map a
	// single-recipient result back to an HTTP status. Empty on success
	// and absent from the wire format.
	ErrCode ErrorCode `json:"-"`
}

// Line renders the outcome in the gateway's plain-text response format:
//
//	+905325556677: Sent successfully.
//	+905325556677: Failed to sent - Invalid phone number.
func (o DispatchOutcome) Line() string {
	return o.Receiver + ": " + o.Message
}
