// Package geo enumerates the geographic search cells that drive discovery and
// resolves the region of a listing from provider data.
package geo

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Catalog is the static list of regions, settlements, and service keywords.
type Catalog struct {
	Regions  []Region  `yaml:"regions"`
	Keywords []Keyword `yaml:"keywords"`
}

// Region is a state and the settlements searched within it.
type Region struct {
	Code        string       `yaml:"code"`
	Name        string       `yaml:"name"`
	Settlements []Settlement `yaml:"settlements"`
}

// Settlement is a city or town searched by discovery.
type Settlement struct {
	Name   string `yaml:"name"`
	County string `yaml:"county"`
}

// Keyword is a search phrase tagged with the service type it implies.
type Keyword struct {
	Keyword     string `yaml:"keyword"`
	ServiceType string `yaml:"service_type"`
}

// LoadCatalog reads and validates a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read catalog %s", path)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog. Region codes are upper-cased and
// missing region names are filled from the state table.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "geo: parse catalog")
	}
	if len(c.Keywords) == 0 {
		return nil, eris.New("geo: catalog has no keywords")
	}
	for i := range c.Regions {
		r := &c.Regions[i]
		code, ok := StateCode(r.Code)
		if !ok {
			return nil, eris.Errorf("geo: unknown region code %q", r.Code)
		}
		r.Code = code
		if r.Name == "" {
			r.Name, _ = StateName(code)
		}
	}
	for i := range c.Keywords {
		k := &c.Keywords[i]
		k.Keyword = strings.TrimSpace(k.Keyword)
		if k.Keyword == "" {
			return nil, eris.Errorf("geo: keyword %d is empty", i)
		}
	}
	return &c, nil
}

// LookupCounty returns the catalog county for a settlement, matched
// case-insensitively on region code and city name.
func LookupCounty(c *Catalog, region, city string) string {
	if c == nil {
		return ""
	}
	for _, r := range c.Regions {
		if !strings.EqualFold(r.Code, region) {
			continue
		}
		for _, s := range r.Settlements {
			if strings.EqualFold(s.Name, strings.TrimSpace(city)) {
				return s.County
			}
		}
	}
	return ""
}
