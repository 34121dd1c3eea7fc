package geo

import (
	"sort"
	"strings"
)

// StateNames maps state abbreviation to full name for all 50 states + DC.
var StateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"DC": "District of Columbia", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska",
	"NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico",
	"NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island",
	"SC": "South Carolina", "SD": "South Dakota", "TN": "Tennessee", "TX": "Texas",
	"UT": "Utah", "VT": "Vermont", "VA": "Virginia", "WA": "Washington",
	"WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

// codeByName is a reverse lookup from lower-cased full name to abbreviation.
var codeByName map[string]string

// namesByLength holds lower-cased names longest first so "west virginia"
// wins over "virginia" in a substring scan.
var namesByLength []string

func init() {
	codeByName = make(map[string]string, len(StateNames))
	namesByLength = make([]string, 0, len(StateNames))
	for code, name := range StateNames {
		lower := strings.ToLower(name)
		codeByName[lower] = code
		namesByLength = append(namesByLength, lower)
	}
	sort.Slice(namesByLength, func(i, j int) bool {
		if len(namesByLength[i]) != len(namesByLength[j]) {
			return len(namesByLength[i]) > len(namesByLength[j])
		}
		return namesByLength[i] < namesByLength[j]
	})
}

// StateName returns the full name for a two-letter state code.
func StateName(code string) (string, bool) {
	name, ok := StateNames[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// StateCode returns the two-letter code for a state given either its code or
// its full name, case-insensitively.
func StateCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 2 {
		up := strings.ToUpper(s)
		if _, ok := StateNames[up]; ok {
			return up, true
		}
	}
	code, ok := codeByName[strings.ToLower(s)]
	return code, ok
}
