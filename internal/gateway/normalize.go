// internal/gateway/normalize.go
package gateway

import (
	"regexp"
	"strings"
)

const (
	groupSuffix   = "@g.us"
	contactSuffix = "@c.us"
)

var nonDigits = regexp.MustCompile(`\D`)

// NormalizeRecipient turns a raw stored number into the identifier the
// gateway expects. Identifiers that already carry a group or contact suffix
// pass through untouched; anything else is stripped to digits and given the
// contact suffix. An input with no digits normalizes to "" and must be
// rejected by the caller before sending.
func NormalizeRecipient(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasSuffix(trimmed, groupSuffix) || strings.HasSuffix(trimmed, contactSuffix) {
		return trimmed
	}
	digits := nonDigits.ReplaceAllString(trimmed, "")
	if digits == "" {
		return ""
	}
	return digits + contactSuffix
}
