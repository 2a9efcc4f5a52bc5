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

// PushRequest is the request body for POST /v1/push. Channel names the push
// provider ("APNS" or "FCM", case-insensitive); Token is the device token
// the provider issued.
type PushRequest struct {
	Title   string `json:"title" validate:"required"`
	Body    string `json:"body" validate:"required"`
	Token   string `json:"token" validate:"required"`
	Channel string `json:"channel" validate:"required,channel_kind"`
}

// PushHandler serves the push dispatch endpoint.
type PushHandler struct {
	dispatcher Dispatcher
	validator  *core.Validator
	logger     *slog.Logger
}

// NewPushHandler creates a PushHandler.
func NewPushHandler(d Dispatcher, v *core.Validator, l *slog.Logger) *PushHandler {
	if l == nil {
		l = slog.Default()
	}
	return &PushHandler{
		dispatcher: d,
		validator:  v,
		logger:     l,
	}
}

// RegisterRoutes mounts the push routes on the provided chi.Router.
func (h *PushHandler) RegisterRoutes(r chi.Router) {
	r.Post("/push", h.Send)
}

// Send handles POST /v1/push. The single device token collapses to one
// confirmation string on success; a failed delivery surfaces through the
// HTTP status like the other single-recipient shapes.
func (h *PushHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req PushRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	channel := types.Channel(strings.ToLower(req.Channel))
	if channel.Kind() != types.KindPush {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationUnknownChannel,
			"channel must be APNS or FCM",
			nil,
		))
		return
	}

	msg := &types.Message{
		Channel:     channel,
		Recipients:  []types.Recipient{{Raw: req.Token}},
		Subject:     req.Title,
		BodyText:    req.Body,
		ReferenceID: uuid.NewString(),
	}

	outcomes, err := h.dispatcher.Dispatch(r.Context(), msg)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	o := outcomes[0]
	if o.Status == types.StatusSuccess {
		core.PlainText(w, http.StatusOK, "Push sent!")
		return
	}
	core.Error(w, r, types.NewAppError(o.ErrCode, dispatch.FailureReason(o), nil))
}
