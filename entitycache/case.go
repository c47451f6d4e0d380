package entitycache

import (
	"strings"
	"unicode"
)

// toSnake converts a Go type name to snake_case for use as a default cache
// namespace. Reflected names can carry package qualifiers or generic
// brackets; everything that is not a letter or digit becomes a separator so
// the namespace stays safe for prefix-based invalidation.
func toSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)

	prevLower := false
	pendingSep := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			if prevLower || pendingSep {
				if b.Len() > 0 {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
			pendingSep = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			prevLower = unicode.IsLower(r)
			pendingSep = false
		default:
			pendingSep = b.Len() > 0
			prevLower = false
		}
	}

	return b.String()
}
