// internal/engine/rules/normalize.go
package rules

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes raw input for keyword matching: lowercase,
// every rune that is not a letter, digit or underscore becomes a space,
// runs of whitespace collapse to single spaces. Total and deterministic,
// empty in means empty out.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
