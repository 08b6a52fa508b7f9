package models

import "strings"

const (
	// maskRun replaces the middle of a long token.
	maskRun = "**********"
	// maskPlaceholder stands in for tokens too short to mask partially.
	maskPlaceholder = "********"
)

// MaskToken returns the projection of a token that is safe to show in the
// UI: tokens of 12 characters or fewer collapse to a fixed placeholder,
// longer ones keep their first 8 and last 4 characters. Masking an already
// masked string is a no-op; the editing UI relies on that to recognise an
// unchanged token field.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if IsMaskedToken(token) {
		return token
	}
	if len(token) <= 12 {
		return maskPlaceholder
	}
	return token[:8] + maskRun + token[len(token)-4:]
}

// IsMaskedToken reports whether s is a masked projection rather than a real
// token value.
func IsMaskedToken(s string) bool {
	return s == maskPlaceholder || strings.Contains(s, maskRun)
}
