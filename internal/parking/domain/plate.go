package domain

import (
	"strings"
	"unicode"
)

// NormalizePlate returns the display form of a licence plate.
func NormalizePlate(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// PlateKey returns the identity form of a plate: uppercase with whitespace and
// hyphens removed. "xyz 123", "XYZ-123" and "XYZ123" share one key.
func PlateKey(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// CountDigits counts decimal digits, ignoring separators such as "+", " " or "-".
func CountDigits(value string) int {
	n := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
