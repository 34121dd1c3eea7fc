// Package normalize folds names and addresses into the canonical forms used
// for dedup keys, slugs, and display.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s, strips diacritics, drops apostrophes, and collapses any
// run of punctuation or whitespace into a single space.
func Fold(s string) string {
	// transform.Chain keeps internal state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	space := false
	for _, r := range stripped {
		switch {
		case r == '\'' || r == '’':
			continue
		case r == '&':
			if b.Len() > 0 && !space {
				b.WriteByte(' ')
			}
			b.WriteString("and ")
			space = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			space = false
		default:
			if b.Len() > 0 && !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// DedupKey identifies one real-world facility regardless of source.
func DedupKey(name, city, region string) string {
	return Fold(name) + "|" + Fold(city) + "|" + strings.ToLower(strings.TrimSpace(region))
}

// Name trims and collapses whitespace in a display name.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var countrySuffixes = []string{", USA", ", United States", ", US"}

// Address trims, collapses whitespace, and drops a trailing country.
func Address(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for _, suffix := range countrySuffixes {
		if strings.HasSuffix(s, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(s, suffix))
		}
	}
	return s
}
