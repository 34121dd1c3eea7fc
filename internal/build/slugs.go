package build

import (
	"fmt"
	"sort"

	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/normalize"
)

// AssignSlugs returns the slug for every facility's dedup key. Keys already
// in existing keep their slug. New keys are minted in (discovered_at, ID)
// order as slugify(name)-slugify(city), with -2, -3... appended when the
// base is taken. minted holds only the new assignments.
func AssignSlugs(facilities []model.Facility, existing map[string]string) (all, minted map[string]string) {
	all = make(map[string]string, len(facilities)+len(existing))
	used := make(map[string]bool, len(existing))
	for key, slug := range existing {
		all[key] = slug
		used[slug] = true
	}

	var pending []*model.Facility
	seen := make(map[string]bool)
	for i := range facilities {
		f := &facilities[i]
		if _, ok := all[f.DedupKey]; ok || seen[f.DedupKey] {
			continue
		}
		seen[f.DedupKey] = true
		pending = append(pending, f)
	}
	sort.Slice(pending, func(i, j int) bool {
		a, b := pending[i], pending[j]
		if !a.Source.DiscoveredAt.Equal(b.Source.DiscoveredAt) {
			return a.Source.DiscoveredAt.Before(b.Source.DiscoveredAt)
		}
		return a.ID < b.ID
	})

	minted = make(map[string]string, len(pending))
	for _, f := range pending {
		base := normalize.FacilitySlug(f.Name, f.City)
		slug := base
		for n := 2; used[slug]; n++ {
			slug = fmt.Sprintf("%s-%d", base, n)
		}
		used[slug] = true
		all[f.DedupKey] = slug
		minted[f.DedupKey] = slug
	}
	return all, minted
}
