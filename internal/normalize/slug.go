package normalize

import "strings"

// Slugify converts s to a lower-case, hyphen-joined ASCII slug.
func Slugify(s string) string {
	folded := Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	dash := false
	for i := 0; i < len(folded); i++ {
		c := folded[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// FacilitySlug is the base public slug for a listing: slugify(name)-slugify(city).
func FacilitySlug(name, city string) string {
	n, c := Slugify(name), Slugify(city)
	switch {
	case n == "" && c == "":
		return "listing"
	case n == "":
		return "listing-" + c
	case c == "":
		return n
	default:
		return n + "-" + c
	}
}
