package model

import (
	"slices"
	"time"
)

// EnrichmentStatus tracks where a facility stands in the content enrichment stage.
type EnrichmentStatus string

const (
	EnrichmentMissing  EnrichmentStatus = "missing"
	EnrichmentPending  EnrichmentStatus = "pending"
	EnrichmentAccepted EnrichmentStatus = "accepted"
	EnrichmentFailed   EnrichmentStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s EnrichmentStatus) Valid() bool {
	switch s {
	case EnrichmentMissing, EnrichmentPending, EnrichmentAccepted, EnrichmentFailed:
		return true
	default:
		return false
	}
}

// SourceMeta records how a facility was first discovered.
type SourceMeta struct {
	DiscoveredAt time.Time `json:"discovered_at"`
	Query        string    `json:"query"`
	ProviderID   string    `json:"provider_id,omitempty"`
}

// Facility is one business listing in the canonical store.
type Facility struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	DedupKey         string           `json:"dedup_key"`
	Address          string           `json:"address,omitempty"`
	Region           string           `json:"region"`
	SubRegion        string           `json:"sub_region,omitempty"`
	City             string           `json:"city"`
	Lat              *float64         `json:"lat,omitempty"`
	Lng              *float64         `json:"lng,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	Website          string           `json:"website,omitempty"`
	ServiceTypes     []string         `json:"service_types,omitempty"`
	Certifications   []string         `json:"certifications,omitempty"`
	PaymentMethods   []string         `json:"payment_methods,omitempty"`
	Description      *string          `json:"description,omitempty"`
	EnrichmentStatus EnrichmentStatus `json:"enrichment_status"`
	Source           SourceMeta       `json:"source"`
	Rating           *float64         `json:"rating,omitempty"`
	ReviewCount      int              `json:"review_count"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (f *Facility) HasCoordinates() bool {
	return f.Lat != nil && f.Lng != nil
}

// PrimaryServiceType returns the first service-type tag, or "" when untagged.
func (f *Facility) PrimaryServiceType() string {
	if len(f.ServiceTypes) == 0 {
		return ""
	}
	return f.ServiceTypes[0]
}

// MergeFrom fills empty fields of f from src without overwriting populated
// values. Tag sets are unioned. Description, enrichment status, and source
// metadata are owned by f and never replaced. Returns true if f changed.
func (f *Facility) MergeFrom(src *Facility) bool {
	changed := false
	fill := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			changed = true
		}
	}

	fill(&f.Address, src.Address)
	fill(&f.SubRegion, src.SubRegion)
	fill(&f.Phone, src.Phone)
	fill(&f.Website, src.Website)

	if !f.HasCoordinates() && src.HasCoordinates() {
		lat, lng := *src.Lat, *src.Lng
		f.Lat, f.Lng = &lat, &lng
		changed = true
	}
	if f.Source.ProviderID == "" && src.Source.ProviderID != "" {
		f.Source.ProviderID = src.Source.ProviderID
		changed = true
	}

	var grew bool
	if f.ServiceTypes, grew = unionTags(f.ServiceTypes, src.ServiceTypes); grew {
		changed = true
	}
	if f.Certifications, grew = unionTags(f.Certifications, src.Certifications); grew {
		changed = true
	}
	if f.PaymentMethods, grew = unionTags(f.PaymentMethods, src.PaymentMethods); grew {
		changed = true
	}
	return changed
}

// unionTags appends tags from add that are not already in base. The order of
// base is preserved so the primary service type never shifts.
func unionTags(base, add []string) ([]string, bool) {
	grew := false
	for _, t := range add {
		if t == "" || slices.Contains(base, t) {
			continue
		}
		base = append(base, t)
		grew = true
	}
	return base, grew
}
