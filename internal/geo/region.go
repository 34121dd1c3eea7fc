package geo

import (
	"strings"
)

// Resolution records where a region code came from.
type Resolution string

// Region resolution sources, in the order they are tried.
const (
	FromComponent Resolution = "component"
	FromAddress   Resolution = "address"
	FromStateName Resolution = "state_name"
	FromHint      Resolution = "hint"
)

// ResolveRegion determines the two-letter state for a listing. It tries the
// provider's structured component, then the "City, ST 12345" tail of the
// formatted address, then a full state name in any segment after the street,
// and finally the hint of the cell that found it. Returns "" when none resolve.
func ResolveRegion(component, address, hint string) (string, Resolution) {
	if code, ok := StateCode(component); ok {
		return code, FromComponent
	}
	if _, st, _ := ParseAddress(address); st != "" {
		if code, ok := StateCode(st); ok {
			return code, FromAddress
		}
	}
	if code := scanStateName(address); code != "" {
		return code, FromStateName
	}
	if code, ok := StateCode(hint); ok {
		return code, FromHint
	}
	return "", ""
}

// scanStateName looks for a full state name in the address. The leading
// street segment is skipped so "1200 Virginia Ave" does not resolve to VA.
func scanStateName(addr string) string {
	parts := splitAddress(addr)
	if len(parts) > 1 {
		parts = parts[1:]
	}
	lower := " " + strings.ToLower(strings.Join(parts, ", ")) + " "
	for _, name := range namesByLength {
		i := strings.Index(lower, name)
		if i < 0 {
			continue
		}
		before := lower[i-1]
		after := lower[i+len(name)]
		if isWordByte(before) || isWordByte(after) {
			continue
		}
		return codeByName[name]
	}
	return ""
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// ParseAddress extracts city, state, and zip from a US formatted address such
// as "123 Main St, Springfield, IL 62701, USA".
func ParseAddress(addr string) (city, state, zip string) {
	parts := splitAddress(addr)
	if len(parts) < 2 {
		return "", "", ""
	}

	// Typically: street, city, state+zip, country
	for i := len(parts) - 1; i >= 0; i-- {
		if s, z := parseStateZip(parts[i]); s != "" {
			state = s
			zip = z
			if i > 0 {
				city = parts[i-1]
			}
			return city, state, zip
		}
	}
	return "", "", ""
}

func splitAddress(addr string) []string {
	var parts []string
	for _, p := range strings.Split(addr, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// parseStateZip tries to parse "IL 62701" or "IL" from a string.
func parseStateZip(s string) (state, zip string) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return "", ""
	}
	candidate := fields[0]
	if len(candidate) != 2 {
		return "", ""
	}
	// Must be uppercase letters.
	if candidate[0] < 'A' || candidate[0] > 'Z' || candidate[1] < 'A' || candidate[1] > 'Z' {
		return "", ""
	}
	if _, ok := StateNames[candidate]; !ok {
		return "", ""
	}
	state = candidate
	if len(fields) == 2 {
		if !isZipCode(fields[1]) {
			return "", ""
		}
		zip = fields[1]
	}
	return state, zip
}

func isZipCode(s string) bool {
	if len(s) < 5 || len(s) > 10 {
		return false
	}
	for _, c := range s {
		if c != '-' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
