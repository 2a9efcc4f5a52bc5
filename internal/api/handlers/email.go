// Package handlers contains the HTTP handler implementations for the
// notification gateway: one handler per message kind (email, SMS, push),
// each translating its request shape into a dispatch and rendering the
// per-recipient outcomes.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"notifygate/internal/core"
	"notifygate/internal/dispatch"
	"notifygate/internal/types"
)

// Dispatcher fans one message out to its recipients and returns one outcome
// per recipient in input order. Satisfied by *dispatch.Engine; extracted so
// handler tests can inject fakes.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *types.Message) ([]types.DispatchOutcome, error)
}

// EmailBody carries the message content. The plain text part is mandatory;
// the HTML part, when present, is attached as a multipart alternative.
type EmailBody struct {
	PlainMessage string `json:"plainMessage" validate:"required"`
	HTMLMessage  string `json:"htmlMessage,omitempty"`
}

// EmailRequest is the request body for POST /email. Two shapes share it:
// the list shape (receiversTo/Cc/Bcc) and the legacy single-receiver shape
// (receiver + channel). Exactly one of the two must be populated.
type EmailRequest struct {
	ReceiversTo  []string `json:"receiversTo,omitempty"`
	ReceiversCc  []string `json:"receiversCc,omitempty"`
	ReceiversBcc []string `json:"receiversBcc,omitempty"`

	// Legacy shape. Channel picks the transport explicitly; the list shape
	// always uses the configured default email channel.
	Receiver string `json:"receiver,omitempty"`
	Channel  string `json:"channel,omitempty" validate:"omitempty,oneof=AWS SMTP"`

	Subject string    `json:"subject" validate:"required"`
	Body    EmailBody `json:"body" validate:"required"`
}

// EmailHandler serves the email dispatch endpoints.
type EmailHandler struct {
	dispatcher     Dispatcher
	defaultChannel types.Channel
	validator      *core.Validator
	logger         *slog.Logger
}

// NewEmailHandler creates an EmailHandler. defaultChannel is the email
// transport used when the request does not name one.
func NewEmailHandler(d Dispatcher, defaultChannel types.Channel, v *core.Validator, l *slog.Logger) *EmailHandler {
	if l == nil {
		l = slog.Default()
	}
	return &EmailHandler{
		dispatcher:     d,
		defaultChannel: defaultChannel,
		validator:      v,
		logger:         l,
	}
}

// RegisterRoutes mounts the email routes on the provided chi.Router.
func (h *EmailHandler) RegisterRoutes(r chi.Router) {
	r.Post("/email", h.Send)
}

// Send handles POST /email.
//
// The list shape returns 200 with one outcome line per recipient; failures
// are data in the body. The legacy single-receiver shape collapses the one
// outcome into a single message and maps its failure class onto the HTTP
// status instead.
func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	legacy := req.Receiver != ""
	if !legacy && len(req.ReceiversTo) == 0 {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"either 'receiver' or a non-empty 'receiversTo' is required",
			nil,
		))
		return
	}
	if legacy && len(req.ReceiversTo) > 0 {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidField,
			"'receiver' and 'receiversTo' are mutually exclusive",
			nil,
		))
		return
	}

	msg := &types.Message{
		Channel:     h.channelFor(req),
		Recipients:  emailRecipients(req),
		Subject:     req.Subject,
		BodyText:    req.Body.PlainMessage,
		BodyHTML:    req.Body.HTMLMessage,
		ReferenceID: uuid.NewString(),
	}

	outcomes, err := h.dispatcher.Dispatch(r.Context(), msg)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if legacy {
		h.writeLegacyResult(w, r, req, outcomes)
		return
	}
	core.PlainText(w, http.StatusOK, dispatch.JoinLines(outcomes))
}

// channelFor resolves the transport for the request. The legacy channel
// names predate the registry and map onto it: "AWS" means SES, "SMTP" means
// direct relay.
func (h *EmailHandler) channelFor(req EmailRequest) types.Channel {
	switch strings.ToUpper(req.Channel) {
	case "AWS":
		return types.ChannelSES
	case "SMTP":
		return types.ChannelSMTP
	}
	return h.defaultChannel
}

// emailRecipients flattens the request's recipient lists into role-tagged
// recipients, To first, then Cc, then Bcc, preserving order within each.
func emailRecipients(req EmailRequest) []types.Recipient {
	if req.Receiver != "" {
		return []types.Recipient{{Raw: req.Receiver, Role: types.RoleTo}}
	}

	out := make([]types.Recipient, 0, len(req.ReceiversTo)+len(req.ReceiversCc)+len(req.ReceiversBcc))
	for _, raw := range req.ReceiversTo {
		out = append(out, types.Recipient{Raw: raw, Role: types.RoleTo})
	}
	for _, raw := range req.ReceiversCc {
		out = append(out, types.Recipient{Raw: raw, Role: types.RoleCc})
	}
	for _, raw := range req.ReceiversBcc {
		out = append(out, types.Recipient{Raw: raw, Role: types.RoleBcc})
	}
	return out
}

// writeLegacyResult collapses the single outcome of a legacy-shape request.
// Success is a plain confirmation; failures surface through the HTTP status,
// keeping the contract callers of the pre-list shape depend on.
func (h *EmailHandler) writeLegacyResult(w http.ResponseWriter, r *http.Request, req EmailRequest, outcomes []types.DispatchOutcome) {
	o := outcomes[0]

	if o.Status == types.StatusSuccess {
		core.PlainText(w, http.StatusOK,
			"Mail sent successfully to "+req.Receiver+" with subject "+req.Subject+".")
		return
	}

	switch {
	case o.ErrCode == types.ErrCodeTransportAuth:
		core.Error(w, r, types.NewAppError(
			types.ErrCodeTransportAuth,
			"Authentication of server configurations failed.",
			nil,
		))
	case o.ErrCode.HTTPStatus() == http.StatusBadRequest:
		core.Error(w, r, types.NewAppError(o.ErrCode, dispatch.FailureReason(o), nil))
	default:
		core.Error(w, r, types.NewAppError(
			types.ErrCodeTransportSend,
			"Mail failed to sent to "+req.Receiver+" with subject "+req.Subject+".",
			nil,
		))
	}
}
