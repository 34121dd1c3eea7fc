package geo

import (
	"strings"

	"github.com/sells-group/directory-cli/internal/model"
)

// Enumerate returns the cross product regions × settlements × keywords in
// catalog order. Index is the position in that order and stays stable as
// long as the catalog does, which is what the ledger resumes against.
func Enumerate(c *Catalog) []model.GeoCell {
	if c == nil {
		return nil
	}
	var cells []model.GeoCell
	idx := 0
	for _, r := range c.Regions {
		for _, s := range r.Settlements {
			for _, k := range c.Keywords {
				cells = append(cells, model.GeoCell{
					Index:       idx,
					Region:      r.Code,
					RegionName:  r.Name,
					Settlement:  s.Name,
					County:      s.County,
					Keyword:     k.Keyword,
					ServiceType: k.ServiceType,
				})
				idx++
			}
		}
	}
	return cells
}

// Filter keeps the cells of a single region. Global indices are preserved.
// An empty region returns cells unchanged.
func Filter(cells []model.GeoCell, region string) []model.GeoCell {
	if region == "" {
		return cells
	}
	out := make([]model.GeoCell, 0, len(cells))
	for _, c := range cells {
		if strings.EqualFold(c.Region, region) {
			out = append(out, c)
		}
	}
	return out
}
