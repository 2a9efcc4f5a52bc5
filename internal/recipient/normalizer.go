// Package recipient canonicalizes recipient identifiers before dispatch.
// Phone numbers are reformatted to E.164 using a configured default region,
// email addresses are checked for RFC 5322 syntax, and push tokens are
// required to be non-empty.
//
// Normalization is a pure function over the input plus the static defaults:
// the same raw value always yields the same normalized value, and applying
// normalization to an already-normalized value is a no-op.
package recipient

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"

	"notifygate/internal/types"
)

// invalidPhoneMessage is the caller-facing validation message for any phone
// number that cannot be parsed or is implausible for its region.
const invalidPhoneMessage = "Invalid phone number."

// Normalizer validates and canonicalizes recipient identifiers for all
// channel kinds. It is immutable after construction and safe for concurrent
// use across dispatch calls.
type Normalizer struct {
	defaultRegion      string
	defaultCallingCode string
}

// NewNormalizer creates a Normalizer with the given phone number defaults.
// defaultRegion is an ISO 3166-1 alpha-2 code (e.g. "TR"); defaultCallingCode
// is the bare country calling code without a plus (e.g. "90").
func NewNormalizer(defaultRegion, defaultCallingCode string) *Normalizer {
	return &Normalizer{
		defaultRegion:      strings.ToUpper(defaultRegion),
		defaultCallingCode: strings.TrimPrefix(defaultCallingCode, "+"),
	}
}

// Normalize canonicalizes one recipient for the given channel kind.
// On failure it returns a *types.AppError with code
// ErrCodeValidationInvalidRecipient whose Message is safe to surface
// verbatim in a per-recipient outcome.
func (n *Normalizer) Normalize(r types.Recipient, kind types.ChannelKind) (string, error) {
	switch kind {
	case types.KindSMS:
		return n.normalizePhone(r.Raw)
	case types.KindEmail:
		return normalizeEmail(r)
	case types.KindPush:
		return normalizeToken(r.Raw)
	default:
		return "", types.NewAppError(
			types.ErrCodeValidationUnknownChannel,
			fmt.Sprintf("no normalization for channel kind %q", kind),
			nil,
		)
	}
}

// normalizePhone reformats a phone number into E.164.
//
// Rules, in order, after stripping all whitespace:
//   - a leading "+" means the number is already in international form
//   - a leading "0" is replaced by the default country calling code
//   - anything else gets the default country calling code prefixed
//
// The result is then parsed against the default region and must be a valid
// number for the region the library infers.
func (n *Normalizer) normalizePhone(raw string) (string, error) {
	num := stripSpace(raw)
	if num == "" {
		return "", invalidPhone(nil)
	}

	switch {
	case strings.HasPrefix(num, "+"):
		// Already international.
	case strings.HasPrefix(num, "0"):
		num = "+" + n.defaultCallingCode + num[1:]
	default:
		num = "+" + n.defaultCallingCode + num
	}

	parsed, err := phonenumbers.Parse(num, n.defaultRegion)
	if err != nil {
		return "", invalidPhone(err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", invalidPhone(nil)
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// normalizeEmail validates RFC 5322 address syntax and returns the original
// string (trimmed). The error message names the To/Cc/Bcc role when one was
// modeled, and embeds the offending address verbatim.
func normalizeEmail(r types.Recipient) (string, error) {
	addr := strings.TrimSpace(r.Raw)
	if addr == "" {
		return "", invalidEmail(r.Role, r.Raw, nil)
	}

	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", invalidEmail(r.Role, addr, err)
	}
	// Reject display-name forms ("Name <a@b>"); recipients are bare addresses.
	if parsed.Address != addr {
		return "", invalidEmail(r.Role, addr, nil)
	}

	return addr, nil
}

// normalizeToken checks a push device token. Tokens are opaque provider
// identifiers; the only gateway-side rule is that they are non-empty.
func normalizeToken(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", types.NewAppError(
			types.ErrCodeValidationInvalidRecipient,
			"Push token must not be empty.",
			nil,
		)
	}
	return token, nil
}

func invalidPhone(err error) error {
	return types.NewAppError(types.ErrCodeValidationInvalidRecipient, invalidPhoneMessage, err)
}

func invalidEmail(role types.RecipientRole, addr string, err error) error {
	msg := fmt.Sprintf("Invalid e-mail address: %s.", addr)
	if role != "" {
		msg = fmt.Sprintf("Invalid %s e-mail address: %s.", role, addr)
	}
	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidRecipient,
		msg,
		err,
		map[string]any{"address": addr, "role": string(role)},
	)
}

// stripSpace removes every whitespace rune, not just leading and trailing,
// so "0532 555 66 77" and "+1 202-555-0143" both survive entry as dialed.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
