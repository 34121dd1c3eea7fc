package model

import "time"

// PublicFacility is the web-facing shape of a facility in the index artifact.
type PublicFacility struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Address        string   `json:"address,omitempty"`
	City           string   `json:"city"`
	CitySlug       string   `json:"city_slug"`
	SubRegion      string   `json:"sub_region,omitempty"`
	SubRegionSlug  string   `json:"sub_region_slug"`
	Region         string   `json:"region"`
	RegionName     string   `json:"region_name"`
	RegionSlug     string   `json:"region_slug"`
	Lat            *float64 `json:"lat,omitempty"`
	Lng            *float64 `json:"lng,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Website        string   `json:"website,omitempty"`
	ServiceTypes   []string `json:"service_types"`
	Certifications []string `json:"certifications"`
	PaymentMethods []string `json:"payment_methods"`
	Description    string   `json:"description,omitempty"`
	Rating         *float64 `json:"rating"`
	ReviewCount    int      `json:"review_count"`
	Partners       []string `json:"partners,omitempty"`
	UpdatedAt      string   `json:"updated_at"`
}

// BBox is a lng/lat bounding box.
type BBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// CityNode is the leaf of the geographic hierarchy.
type CityNode struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
	BBox  *BBox  `json:"bbox,omitempty"`
}

// SubRegionNode groups cities within a county.
type SubRegionNode struct {
	Name   string     `json:"name"`
	Slug   string     `json:"slug"`
	Count  int        `json:"count"`
	Cities []CityNode `json:"cities"`
}

// RegionNode is the top level of the geographic hierarchy.
type RegionNode struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	Count      int             `json:"count"`
	SubRegions []SubRegionNode `json:"sub_regions"`
}

// Summary is the per-geography rollup artifact.
type Summary struct {
	GeneratedAt     time.Time      `json:"generated_at"`
	Total           int            `json:"total"`
	Enriched        int            `json:"enriched"`
	ByRegion        map[string]int `json:"by_region"`
	ByServiceType   map[string]int `json:"by_service_type"`
	Regions         []RegionNode   `json:"regions"`
	SitemapChunks   int            `json:"sitemap_chunks"`
	ExcludedFlagged int            `json:"excluded_flagged"`
}

// SitemapEntry is one URL in the sitemap.
type SitemapEntry struct {
	Loc        string    `json:"loc"`
	LastMod    time.Time `json:"lastmod"`
	ChangeFreq string    `json:"changefreq"`
	Priority   float64   `json:"priority"`
}
