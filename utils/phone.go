package utils

import (
	"strings"
)

// NormalizePhone joins a dial code and a national significant number into
// the single international-format string the backend expects, e.g.
// ("+66", "081 234 5678") => "+66812345678". Leading zeros on the
// national part are trunk prefixes and dropped.
func NormalizePhone(countryCode, national string) string {
	national = stripSeparators(national)
	if national == "" {
		return ""
	}
	national = strings.TrimLeft(national, "0")

	countryCode = stripSeparators(countryCode)
	countryCode = strings.TrimPrefix(countryCode, "+")
	if countryCode == "" {
		return national
	}

	return "+" + countryCode + national
}

func stripSeparators(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	// keep a single leading plus at most
	if i := strings.LastIndex(out, "+"); i > 0 {
		out = strings.ReplaceAll(out, "+", "")
	}
	return out
}
