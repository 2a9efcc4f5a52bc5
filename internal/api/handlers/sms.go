package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"notifygate/internal/core"
	"notifygate/internal/dispatch"
	"notifygate/internal/types"
)

// SmsRequest is the request body for POST /v1/sms. The receiver list is the
// sole contract; phone numbers may be in any local format and are normalized
// against the configured default region before sending.
//
// Type is the carrier-facing message class. It is case-insensitive and
// optional here; transports that mandate it reject the batch themselves.
type SmsRequest struct {
	Receivers []string `json:"receivers" validate:"required,min=1"`
	Body      string   `json:"body" validate:"required"`
	Type      string   `json:"type,omitempty" validate:"sms_type"`
}

// SmsHandler serves the SMS dispatch endpoints.
type SmsHandler struct {
	dispatcher Dispatcher
	channel    types.Channel
	validator  *core.Validator
	logger     *slog.Logger
}

// NewSmsHandler creates an SmsHandler bound to the configured SMS channel.
func NewSmsHandler(d Dispatcher, channel types.Channel, v *core.Validator, l *slog.Logger) *SmsHandler {
	if l == nil {
		l = slog.Default()
	}
	return &SmsHandler{
		dispatcher: d,
		channel:    channel,
		validator:  v,
		logger:     l,
	}
}

// RegisterRoutes mounts the SMS routes on the provided chi.Router.
func (h *SmsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sms", h.Send)
}

// Send handles POST /v1/sms.
//
// The response is 200 with one outcome line per receiver in input order;
// per-recipient failures are data in the body. Only a batch precondition
// failure (a transport that mandates the type classifier and did not get
// one) aborts the request with a 400 before any send is attempted.
func (h *SmsHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SmsRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	recipients := make([]types.Recipient, len(req.Receivers))
	for i, raw := range req.Receivers {
		recipients[i] = types.Recipient{Raw: raw}
	}

	msg := &types.Message{
		Channel:     h.channel,
		Recipients:  recipients,
		BodyText:    req.Body,
		SmsType:     canonicalSmsType(req.Type),
		ReferenceID: uuid.NewString(),
	}

	outcomes, err := h.dispatcher.Dispatch(r.Context(), msg)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.PlainText(w, http.StatusOK, dispatch.JoinLines(outcomes))
}

// canonicalSmsType maps the case-insensitive request value onto the carrier
// vocabulary. Unset stays unset; the transport precondition decides whether
// that is acceptable.
func canonicalSmsType(raw string) types.SmsType {
	switch strings.ToLower(raw) {
	case "promotional":
		return types.SmsTypePromotional
	case "transactional":
		return types.SmsTypeTransactional
	}
	return ""
}
