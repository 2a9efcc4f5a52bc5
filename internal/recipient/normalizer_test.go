package recipient

import (
	"errors"
	"strings"
	"testing"

	"notifygate/internal/types"
)

func newTRNormalizer() *Normalizer {
	return NewNormalizer("TR", "90")
}

// ---------------------------------------------------------------------------
// Phone normalization
// ---------------------------------------------------------------------------

func TestNormalizePhoneFormats(t *testing.T) {
	n := newTRNormalizer()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already E164", "+905325556677", "+905325556677"},
		{"international with spaces", "+90 532 555 66 77", "+905325556677"},
		{"US number with punctuation", "+1 202-555-0143", "+12025550143"},
		{"local format with leading zero", "0532 555 66 77", "+905325556677"},
		{"bare national number", "532 555 66 77", "+905325556677"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(types.Recipient{Raw: tt.raw}, types.KindSMS)
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizePhoneInvalid(t *testing.T) {
	n := newTRNormalizer()

	for _, raw := range []string{
		"",
		"   ",
		"not-a-number",
		"+90123",          // far too short for TR
		"+905325556677123", // too long
	} {
		_, err := n.Normalize(types.Recipient{Raw: raw}, types.KindSMS)
		if err == nil {
			t.Errorf("Normalize(%q) expected error, got nil", raw)
			continue
		}

		var appErr *types.AppError
		if !errors.As(err, &appErr) {
			t.Fatalf("expected *types.AppError, got %T", err)
		}
		if appErr.Code != types.ErrCodeValidationInvalidRecipient {
			t.Errorf("Normalize(%q) code = %s", raw, appErr.Code)
		}
		if appErr.Message != "Invalid phone number." {
			t.Errorf("Normalize(%q) message = %q", raw, appErr.Message)
		}
	}
}

// TestNormalizePhoneIdempotent verifies normalize(normalize(x)) == normalize(x).
func TestNormalizePhoneIdempotent(t *testing.T) {
	n := newTRNormalizer()

	for _, raw := range []string{"0532 555 66 77", "+12025550143", "532 555 66 77"} {
		once, err := n.Normalize(types.Recipient{Raw: raw}, types.KindSMS)
		if err != nil {
			t.Fatalf("first pass on %q: %v", raw, err)
		}
		twice, err := n.Normalize(types.Recipient{Raw: once}, types.KindSMS)
		if err != nil {
			t.Fatalf("second pass on %q: %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", raw, once, twice)
		}
	}
}

// ---------------------------------------------------------------------------
// Email normalization
// ---------------------------------------------------------------------------

func TestNormalizeEmailValid(t *testing.T) {
	n := newTRNormalizer()

	for _, addr := range []string{
		"test@example.com",
		"first.last@example.co.uk",
		"user+tag@example.com",
	} {
		got, err := n.Normalize(types.Recipient{Raw: addr, Role: types.RoleTo}, types.KindEmail)
		if err != nil {
			t.Errorf("Normalize(%q) error: %v", addr, err)
			continue
		}
		if got != addr {
			t.Errorf("Normalize(%q) = %q, want original string back", addr, got)
		}
	}
}

func TestNormalizeEmailInvalid(t *testing.T) {
	n := newTRNormalizer()

	for _, addr := range []string{
		"",
		"no-at-sign",
		"bad..email@x.com",
		"trailing.dot.@x.com",
		"Display Name <inner@example.com>",
	} {
		_, err := n.Normalize(types.Recipient{Raw: addr, Role: types.RoleBcc}, types.KindEmail)
		if err == nil {
			t.Errorf("Normalize(%q) expected error, got nil", addr)
		}
	}
}

// TestNormalizeEmailErrorNamesRoleAndAddress verifies the message identifies
// which recipient list failed and embeds the address verbatim.
func TestNormalizeEmailErrorNamesRoleAndAddress(t *testing.T) {
	n := newTRNormalizer()

	_, err := n.Normalize(types.Recipient{Raw: "bad..email@x.com", Role: types.RoleBcc}, types.KindEmail)
	if err == nil {
		t.Fatal("expected error")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if !strings.Contains(appErr.Message, "Bcc") {
		t.Errorf("message %q does not name the Bcc role", appErr.Message)
	}
	if !strings.Contains(appErr.Message, "bad..email@x.com") {
		t.Errorf("message %q does not embed the offending address", appErr.Message)
	}
}

func TestNormalizeEmailIdempotent(t *testing.T) {
	n := newTRNormalizer()

	once, err := n.Normalize(types.Recipient{Raw: "  test@example.com "}, types.KindEmail)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, err := n.Normalize(types.Recipient{Raw: once}, types.KindEmail)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if once != twice {
		t.Errorf("not idempotent: %q vs %q", once, twice)
	}
}

// ---------------------------------------------------------------------------
// Push tokens
// ---------------------------------------------------------------------------

func TestNormalizeToken(t *testing.T) {
	n := newTRNormalizer()

	got, err := n.Normalize(types.Recipient{Raw: " device-token-123 "}, types.KindPush)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "device-token-123" {
		t.Errorf("token = %q", got)
	}

	if _, err := n.Normalize(types.Recipient{Raw: "   "}, types.KindPush); err == nil {
		t.Error("expected error for blank token")
	}
}

// TestNormalizeUnknownKind verifies the guard for unmapped channel kinds.
func TestNormalizeUnknownKind(t *testing.T) {
	n := newTRNormalizer()

	_, err := n.Normalize(types.Recipient{Raw: "x"}, types.ChannelKind("fax"))
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
