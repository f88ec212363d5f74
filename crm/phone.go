// ABOUTME: Phone number normalization
// ABOUTME: Reduces free-form phone text to its digits for loose matching
package crm

import "strings"

// NormalizePhone strips every non-digit character.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasPhone reports whether phone carries enough digits to be dialable.
func HasPhone(phone string) bool {
	return len(NormalizePhone(phone)) > 6
}
