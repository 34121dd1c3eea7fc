package build

import "slices"

// Partner is an affiliate partner link. The partner list is loaded once from
// config and never mutated.
type Partner struct {
	Slug         string
	Name         string
	URL          string
	Active       bool
	ServiceTypes []string
}

// ActivePartners returns the active partners in their configured order.
func ActivePartners(partners []Partner) []Partner {
	var out []Partner
	for _, p := range partners {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// MatchPartners returns the slugs of partners that apply to a facility with
// the given service types. A partner with no service types applies to all.
func MatchPartners(partners []Partner, serviceTypes []string) []string {
	var out []string
	for _, p := range partners {
		if len(p.ServiceTypes) == 0 || slices.ContainsFunc(p.ServiceTypes, func(t string) bool {
			return slices.Contains(serviceTypes, t)
		}) {
			out = append(out, p.Slug)
		}
	}
	return out
}
