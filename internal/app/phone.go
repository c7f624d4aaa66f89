package app

import "strings"

const maxPhoneLen = 13

// FormatPhone keeps the digits of raw and hyphenates them as a Korean mobile
// number: 010-1234-5678. Input longer than the hyphenated form is cut.
func FormatPhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) > 7:
		digits = digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	case len(digits) > 3:
		digits = digits[:3] + "-" + digits[3:]
	}
	if len(digits) > maxPhoneLen {
		digits = digits[:maxPhoneLen]
	}
	return digits
}
