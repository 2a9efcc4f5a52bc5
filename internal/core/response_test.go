package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notifygate/internal/types"
)

// --- JSON helper tests ---

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(w, r, http.StatusOK, map[string]string{"name": "test"})

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["name"] != "test" {
		t.Errorf("expected name=test, got %v", body["name"])
	}
}

func TestJSON_MarshalFailure(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := types.WithRequestID(r.Context(), "req-marshal-fail")
	r = r.WithContext(ctx)

	// Channels cannot be marshalled to JSON.
	unmarshalable := make(chan int)
	JSON(w, r, http.StatusOK, unmarshalable)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", resp.StatusCode)
	}

	var errResp APIErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode fallback error: %v", err)
	}
	if errResp.Error.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("expected code %s, got %s", types.ErrCodeInternalUnexpected, errResp.Error.Code)
	}
	if errResp.Error.RequestID != "req-marshal-fail" {
		t.Errorf("expected request_id req-marshal-fail, got %s", errResp.Error.RequestID)
	}
}

// --- PlainText tests ---

func TestPlainText(t *testing.T) {
	w := httptest.NewRecorder()

	PlainText(w, http.StatusOK, "+905325556677: Sent successfully.\n+12025550143: Sent successfully.")

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("unexpected Content-Type: %q", ct)
	}
	if got := w.Body.String(); !strings.HasPrefix(got, "+905325556677: ") {
		t.Errorf("unexpected body: %q", got)
	}
}

// --- Error helper tests ---

func TestError_AppError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/sms", nil)
	r = r.WithContext(types.WithRequestID(r.Context(), "req-001"))

	appErr := types.NewAppError(
		types.ErrCodeValidationMissingAttribute,
		"SMS 'type' attribute is required.",
		nil,
	)
	Error(w, r, appErr)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}

	var body APIErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error.Code != string(types.ErrCodeValidationMissingAttribute) {
		t.Errorf("unexpected code: %s", body.Error.Code)
	}
	if body.Error.Message != "SMS 'type' attribute is required." {
		t.Errorf("unexpected message: %q", body.Error.Message)
	}
	if body.Error.RequestID != "req-001" {
		t.Errorf("unexpected request_id: %q", body.Error.RequestID)
	}
}

func TestError_WrappedAppError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/email", nil)

	appErr := types.NewAppError(types.ErrCodeTransportAuth, "Authentication of server configurations failed.", errors.New("credentials rejected"))
	wrapped := errors.Join(errors.New("dispatch"), appErr)
	Error(w, r, wrapped)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	// The internal error chain must not leak into the client body.
	if strings.Contains(w.Body.String(), "credentials rejected") {
		t.Errorf("internal error leaked to client: %s", w.Body.String())
	}
}

func TestError_GenericError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(w, r, errors.New("pq: connection refused"))

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", resp.StatusCode)
	}

	var body APIErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("unexpected code: %s", body.Error.Code)
	}
	if body.Error.Message != "an unexpected error occurred" {
		t.Errorf("generic error message leaked: %q", body.Error.Message)
	}
}

// --- DecodeJSON tests ---

type decodeTarget struct {
	Receiver string `json:"receiver"`
	Body     string `json:"body"`
}

func decodeErrorCode(t *testing.T, err error) types.ErrorCode {
	t.Helper()
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	return appErr.Code
}

func TestDecodeJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"receiver":"user@example.com","body":"hi"}`))

	var dst decodeTarget
	if err := DecodeJSON(w, r, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Receiver != "user@example.com" {
		t.Errorf("unexpected receiver: %q", dst.Receiver)
	}
}

func TestDecodeJSON_EmptyBody(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

	var dst decodeTarget
	err := DecodeJSON(w, r, &dst)
	if err == nil {
		t.Fatal("expected error for empty body")
	}
	if code := decodeErrorCode(t, err); code != types.ErrCodeValidationInvalidJSON {
		t.Errorf("unexpected code: %s", code)
	}
}

func TestDecodeJSON_MalformedJSON(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"receiver":`))

	var dst decodeTarget
	err := DecodeJSON(w, r, &dst)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if code := decodeErrorCode(t, err); code != types.ErrCodeValidationInvalidJSON {
		t.Errorf("unexpected code: %s", code)
	}
}

func TestDecodeJSON_UnknownField(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"receiver":"x","bogus":true}`))

	var dst decodeTarget
	err := DecodeJSON(w, r, &dst)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if !strings.Contains(appErr.Message, "unknown field") {
		t.Errorf("unexpected message: %q", appErr.Message)
	}
}

func TestDecodeJSON_TypeMismatch(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"receiver":42}`))

	var dst decodeTarget
	err := DecodeJSON(w, r, &dst)
	if err == nil {
		t.Fatal("expected error for type mismatch")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Details["field"] != "receiver" {
		t.Errorf("expected field detail 'receiver', got %v", appErr.Details["field"])
	}
}

func TestDecodeJSON_MultipleValues(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"receiver":"a"}{"receiver":"b"}`))

	var dst decodeTarget
	err := DecodeJSON(w, r, &dst)
	if err == nil {
		t.Fatal("expected error for multiple JSON values")
	}
	if code := decodeErrorCode(t, err); code != types.ErrCodeValidationInvalidJSON {
		t.Errorf("unexpected code: %s", code)
	}
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	oversized := `{"receiver":"` + strings.Repeat("a", maxRequestBodySize) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(oversized))

	var dst decodeTarget
	err := DecodeJSON(w, r, &dst)
	if err == nil {
		t.Fatal("expected error for oversized body")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if !strings.Contains(appErr.Message, "1MB") {
		t.Errorf("unexpected message: %q", appErr.Message)
	}
}
