package types

// redactedPlaceholder replaces secret values in logs and serialized output.
const redactedPlaceholder = "***REDACTED***"

// SecretString holds a sensitive value (SMTP password, AWS secret key, Twilio
// auth token) and masks it from fmt verbs and JSON encoding. Configuration
// structs use it for every credential field so that a dumped Config never
// leaks provider secrets.
//
// Call Unmask to obtain the plaintext where it is genuinely needed — when
// handing the credential to a provider SDK.
type SecretString string

// String implements fmt.Stringer and returns the redacted placeholder.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON encodes the redacted placeholder instead of the raw value.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redactedPlaceholder + `"`), nil
}

// Unmask returns the raw plaintext value.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsSet reports whether a non-empty secret was configured.
func (s SecretString) IsSet() bool {
	return s != ""
}
