package dispatch

import (
	"strings"

	"notifygate/internal/types"
)

// JoinLines renders dispatch outcomes in the gateway's plain-text response
// format, one "receiver: message" line per recipient, preserving order:
//
//	+12025550143: Sent successfully.
//	+905325556677: Failed to sent - Invalid phone number.
func JoinLines(outcomes []types.DispatchOutcome) string {
	lines := make([]string, len(outcomes))
	for i, o := range outcomes {
		lines[i] = o.Line()
	}
	return strings.Join(lines, "\n")
}

// FailureReason strips the failure prefix from a failed outcome's message,
// returning the bare normalizer or transport reason. Success messages come
// back unchanged.
func FailureReason(o types.DispatchOutcome) string {
	return strings.TrimPrefix(o.Message, failedPrefix)
}

// Summary counts successes and failures across a batch.
func Summary(outcomes []types.DispatchOutcome) (succeeded, failed int) {
	for _, o := range outcomes {
		if o.Status == types.StatusSuccess {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// AllAuthFailures reports whether every outcome failed with an
// authentication error. Used by the legacy single-recipient endpoints to
// surface provider credential problems as a 401 instead of a batch body.
func AllAuthFailures(outcomes []types.DispatchOutcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if o.ErrCode != types.ErrCodeTransportAuth {
			return false
		}
	}
	return true
}
