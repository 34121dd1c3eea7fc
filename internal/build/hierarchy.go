package build

import (
	"sort"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/directory-cli/internal/model"
)

// unknownSubRegion names the bucket for facilities with no county.
const unknownSubRegion = "Other"

// Hierarchy groups published facilities into region, sub-region, and city
// nodes with counts. Each city carries the bounding box of its facilities'
// coordinates when any are known. Nodes at every level are sorted by slug.
func Hierarchy(facilities []model.PublicFacility) []model.RegionNode {
	type cityAcc struct {
		node   model.CityNode
		bounds *geom.Bounds
	}
	type subAcc struct {
		node   model.SubRegionNode
		cities map[string]*cityAcc
	}
	type regionAcc struct {
		node model.RegionNode
		subs map[string]*subAcc
	}

	regions := make(map[string]*regionAcc)
	for i := range facilities {
		f := &facilities[i]

		r, ok := regions[f.Region]
		if !ok {
			r = &regionAcc{
				node: model.RegionNode{Code: f.Region, Name: f.RegionName, Slug: f.RegionSlug},
				subs: make(map[string]*subAcc),
			}
			regions[f.Region] = r
		}
		r.node.Count++

		s, ok := r.subs[f.SubRegionSlug]
		if !ok {
			name := f.SubRegion
			if name == "" {
				name = unknownSubRegion
			}
			s = &subAcc{
				node:   model.SubRegionNode{Name: name, Slug: f.SubRegionSlug},
				cities: make(map[string]*cityAcc),
			}
			r.subs[f.SubRegionSlug] = s
		}
		s.node.Count++

		c, ok := s.cities[f.CitySlug]
		if !ok {
			c = &cityAcc{node: model.CityNode{Name: f.City, Slug: f.CitySlug}}
			s.cities[f.CitySlug] = c
		}
		c.node.Count++
		if f.Lat != nil && f.Lng != nil {
			if c.bounds == nil {
				c.bounds = geom.NewBounds(geom.XY)
			}
			c.bounds.Extend(geom.NewPointFlat(geom.XY, []float64{*f.Lng, *f.Lat}))
		}
	}

	out := make([]model.RegionNode, 0, len(regions))
	for _, r := range regions {
		for _, s := range r.subs {
			for _, c := range s.cities {
				if c.bounds != nil {
					c.node.BBox = &model.BBox{
						MinLng: c.bounds.Min(0),
						MinLat: c.bounds.Min(1),
						MaxLng: c.bounds.Max(0),
						MaxLat: c.bounds.Max(1),
					}
				}
				s.node.Cities = append(s.node.Cities, c.node)
			}
			sort.Slice(s.node.Cities, func(i, j int) bool { return s.node.Cities[i].Slug < s.node.Cities[j].Slug })
			r.node.SubRegions = append(r.node.SubRegions, s.node)
		}
		sort.Slice(r.node.SubRegions, func(i, j int) bool { return r.node.SubRegions[i].Slug < r.node.SubRegions[j].Slug })
		out = append(out, r.node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Summarize builds the rollup artifact from the published facilities and
// their hierarchy.
func Summarize(facilities []model.PublicFacility, regions []model.RegionNode) model.Summary {
	s := model.Summary{
		Total:         len(facilities),
		ByRegion:      make(map[string]int),
		ByServiceType: make(map[string]int),
		Regions:       regions,
	}
	for i := range facilities {
		f := &facilities[i]
		s.ByRegion[f.Region]++
		for _, t := range f.ServiceTypes {
			s.ByServiceType[t]++
		}
		if f.Description != "" {
			s.Enriched++
		}
	}
	if s.Regions == nil {
		s.Regions = []model.RegionNode{}
	}
	return s
}
