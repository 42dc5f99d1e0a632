// Package redact masks personal data in free text before it is logged or
// sent to a remote model.
package redact

import (
	"regexp"
	"strings"
)

const (
	emailMarker = "[REDACTED_EMAIL]"
	phoneMarker = "[REDACTED_PHONE]"
)

var (
	emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRegex = regexp.MustCompile(`\+?\d[\d\- ()]{7,}\d`)
)

// Text replaces email addresses and phone numbers with fixed markers.
func Text(s string) string {
	s = emailRegex.ReplaceAllString(s, emailMarker)
	s = phoneRegex.ReplaceAllString(s, phoneMarker)
	return strings.TrimSpace(s)
}

// Preview redacts s and shortens it to at most n runes for log fields.
func Preview(s string, n int) string {
	s = Text(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
