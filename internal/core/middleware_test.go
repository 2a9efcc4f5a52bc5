package core

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notifygate/internal/config"
	"notifygate/internal/types"
)

func newTestServerForMiddleware(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv, err := NewServer(&config.Config{Environment: "local", Service: "notifygate"}, logger)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv
}

// --- Recoverer tests ---

func TestRecoverer_NoPanic(t *testing.T) {
	srv := newTestServerForMiddleware(t)

	handler := srv.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"ok":true}` {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRecoverer_Panic_ReturnsJSON500(t *testing.T) {
	srv := newTestServerForMiddleware(t)

	handler := srv.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var resp APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if resp.Error.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("expected error code %q, got %q", types.ErrCodeInternalUnexpected, resp.Error.Code)
	}
	if resp.Error.Message != "an unexpected error occurred" {
		t.Errorf("unexpected error message: %q", resp.Error.Message)
	}
}

func TestRecoverer_Panic_PreservesRequestID(t *testing.T) {
	srv := newTestServerForMiddleware(t)

	handler := srv.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("crash!")
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(types.WithRequestID(req.Context(), "req_abc123"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var resp APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if resp.Error.RequestID != "req_abc123" {
		t.Errorf("expected request_id req_abc123, got %q", resp.Error.RequestID)
	}
}

// --- ContextTimeoutMiddleware tests ---

func TestContextTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool

	handler := ContextTimeoutMiddleware(5*time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !hasDeadline {
		t.Fatal("expected a context deadline to be set")
	}
	if remaining := time.Until(deadline); remaining > 5*time.Second {
		t.Errorf("deadline too far in the future: %v", remaining)
	}
}

func TestContextTimeoutMiddleware_ExpiredContextObservable(t *testing.T) {
	var ctxErr error

	handler := ContextTimeoutMiddleware(1*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		ctxErr = r.Context().Err()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ctxErr == nil {
		t.Fatal("expected context error after deadline")
	}
}

// --- RequestIDMiddleware tests ---

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var ctxID string

	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = types.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ctxID == "" {
		t.Fatal("expected a generated request ID in context")
	}
	if got := rec.Header().Get("X-Request-Id"); got != ctxID {
		t.Errorf("response header %q does not match context ID %q", got, ctxID)
	}
}

func TestRequestIDMiddleware_ReusesIncomingID(t *testing.T) {
	var ctxID string

	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = types.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-Id", "client-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ctxID != "client-supplied-id" {
		t.Errorf("expected client-supplied-id, got %q", ctxID)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "client-supplied-id" {
		t.Errorf("unexpected response header: %q", got)
	}
}

// --- SecurityHeadersMiddleware tests ---

func TestSecurityHeadersMiddleware(t *testing.T) {
	srv := newTestServerForMiddleware(t)

	handler := srv.SecurityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	expected := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
	}
	for name, want := range expected {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("header %s: expected %q, got %q", name, want, got)
		}
	}
}

// --- RequestLogger tests ---

func TestRequestLogger_LogsRequestMetadata(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/sms", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal([]byte(buf.String()), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["method"] != "POST" {
		t.Errorf("expected method POST, got %v", entry["method"])
	}
	if entry["path"] != "/v1/sms" {
		t.Errorf("expected path /v1/sms, got %v", entry["path"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("expected status 200, got %v", entry["status"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("expected level INFO, got %v", entry["level"])
	}
}

func TestRequestLogger_RedactsSensitiveHeaders(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(logger, []string{"Authorization"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer super-secret-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out := buf.String()
	if strings.Contains(out, "super-secret-token") {
		t.Errorf("credential leaked into log output: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("expected redaction marker in log output: %s", out)
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"success logs info", http.StatusOK, "INFO"},
		{"client error logs warn", http.StatusBadRequest, "WARN"},
		{"server error logs error", http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := RequestLogger(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			var entry map[string]any
			if err := json.Unmarshal([]byte(buf.String()), &entry); err != nil {
				t.Fatalf("log output is not JSON: %v", err)
			}
			if entry["level"] != tt.level {
				t.Errorf("expected level %s, got %v", tt.level, entry["level"])
			}
		})
	}
}

// --- responseCapture tests ---

func TestResponseCapture_DefaultsTo200OnWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	rc := &responseCapture{ResponseWriter: rec, statusCode: http.StatusOK}

	_, _ = rc.Write([]byte("hello"))

	if rc.statusCode != http.StatusOK {
		t.Errorf("expected captured status 200, got %d", rc.statusCode)
	}
}

func TestResponseCapture_FirstWriteHeaderWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rc := &responseCapture{ResponseWriter: rec, statusCode: http.StatusOK}

	rc.WriteHeader(http.StatusBadGateway)
	rc.WriteHeader(http.StatusOK)

	if rc.statusCode != http.StatusBadGateway {
		t.Errorf("expected captured status 502, got %d", rc.statusCode)
	}
}
