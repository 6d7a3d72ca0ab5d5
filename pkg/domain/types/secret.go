package types

import "log/slog"

const redacted = "[REDACTED]"

// Secret holds an opaque credential. It never renders its value through fmt or slog;
// callers must use Reveal at the single point where the raw value is required.
type Secret string

// Reveal returns the raw credential value
func (s Secret) Reveal() string {
	return string(s)
}

// IsEmpty reports whether no credential was supplied
func (s Secret) IsEmpty() bool {
	return s == ""
}

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return redacted
}

// LogValue implements slog.LogValuer
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}
