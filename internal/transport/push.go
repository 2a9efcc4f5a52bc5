package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"notifygate/internal/types"
)

// apnsPayload is the native APNS notification shape:
//
//	{"aps":{"alert":{"title":"...","body":"..."}}}
type apnsPayload struct {
	Aps apnsAps `json:"aps"`
}

type apnsAps struct {
	Alert apnsAlert `json:"alert"`
}

type apnsAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// fcmPayload is the FCM HTTP v1 send shape:
//
//	{"message":{"token":"...","notification":{"title":"...","body":"..."}}}
type fcmPayload struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string          `json:"token"`
	Notification fcmNotification `json:"notification"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PushTransportConfig holds the configuration for creating a push transport.
type PushTransportConfig struct {
	// URL is the provider endpoint base: the APNS host for APNS, the full
	// messages:send endpoint for FCM.
	URL string
	// Token is the bearer credential presented on every request.
	Token string
	// Topic is the APNS topic (the app bundle ID); unused by FCM.
	Topic string
	// Client is the shared resilient HTTP client. Required.
	Client *BaseClient
	// Logger for push operations.
	Logger *slog.Logger
}

// APNSTransport delivers push notifications through the Apple Push
// Notification service HTTP/2 API.
type APNSTransport struct {
	base   *BaseClient
	url    string
	token  string
	topic  string
	logger *slog.Logger
}

// NewAPNSTransport creates an APNSTransport.
func NewAPNSTransport(cfg PushTransportConfig) *APNSTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &APNSTransport{
		base:   cfg.Client,
		url:    strings.TrimRight(cfg.URL, "/"),
		token:  cfg.Token,
		topic:  cfg.Topic,
		logger: logger,
	}
}

// Channel implements Transport.
func (a *APNSTransport) Channel() types.Channel { return types.ChannelAPNS }

// SendOne posts one alert notification to the device token.
func (a *APNSTransport) SendOne(ctx context.Context, recipient string, msg *types.Message) error {
	payload := apnsPayload{
		Aps: apnsAps{
			Alert: apnsAlert{
				Title: msg.Subject,
				Body:  msg.BodyText,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "encoding APNS payload", err)
	}

	url := a.url + "/3/device/" + recipient
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "building APNS request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "bearer "+a.token)
	req.Header.Set("apns-topic", a.topic)
	req.Header.Set("apns-push-type", "alert")

	resp, err := a.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := classifyPushStatus("APNS", resp); err != nil {
		return err
	}

	a.logger.DebugContext(ctx, "apns push accepted",
		"apns_id", resp.Header.Get("apns-id"),
		"reference_id", msg.ReferenceID,
	)
	return nil
}

// FCMTransport delivers push notifications through the Firebase Cloud
// Messaging HTTP v1 API.
type FCMTransport struct {
	base   *BaseClient
	url    string
	token  string
	logger *slog.Logger
}

// NewFCMTransport creates an FCMTransport.
func NewFCMTransport(cfg PushTransportConfig) *FCMTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FCMTransport{
		base:   cfg.Client,
		url:    cfg.URL,
		token:  cfg.Token,
		logger: logger,
	}
}

// Channel implements Transport.
func (f *FCMTransport) Channel() types.Channel { return types.ChannelFCM }

// SendOne posts one notification message to the device token.
func (f *FCMTransport) SendOne(ctx context.Context, recipient string, msg *types.Message) error {
	payload := fcmPayload{
		Message: fcmMessage{
			Token: recipient,
			Notification: fcmNotification{
				Title: msg.Subject,
				Body:  msg.BodyText,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "encoding FCM payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "building FCM request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := classifyPushStatus("FCM", resp); err != nil {
		return err
	}

	f.logger.DebugContext(ctx, "fcm push accepted", "reference_id", msg.ReferenceID)
	return nil
}

// classifyPushStatus maps a non-2xx provider response to a domain AppError.
// The BaseClient already converted 429 and 5xx into errors, so only 4xx
// statuses reach this point.
func classifyPushStatus(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Bounded read; provider error bodies are short JSON documents.
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewAppError(
			types.ErrCodeTransportAuth,
			"Authentication of server configurations failed.",
			fmt.Errorf("%s returned %d: %s", provider, resp.StatusCode, detail),
		)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusGone:
		// 404/410 mean the device token is no longer registered.
		return types.NewAppError(
			types.ErrCodeTransportSend,
			fmt.Sprintf("%s rejected push: status %d", provider, resp.StatusCode),
			fmt.Errorf("%s", detail),
		)
	default:
		return types.NewAppError(
			types.ErrCodeTransportUnknown,
			fmt.Sprintf("%s returned unexpected status %d", provider, resp.StatusCode),
			fmt.Errorf("%s", detail),
		)
	}
}

// Compile-time assertions.
var (
	_ Transport = (*APNSTransport)(nil)
	_ Transport = (*FCMTransport)(nil)
)
