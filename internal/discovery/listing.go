package discovery

import (
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-cli/internal/geo"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/normalize"
	"github.com/sells-group/directory-cli/internal/resilience"
)

// DefaultDirectoryBlocklist lists aggregator hosts that are not a business's
// own website.
var DefaultDirectoryBlocklist = []string{
	"yelp.com", "facebook.com", "instagram.com", "yellowpages.com",
	"mapquest.com", "nextdoor.com", "google.com", "business.site",
}

// Normalizer converts raw listings into candidate facilities.
type Normalizer struct {
	Catalog   *geo.Catalog
	Blocklist []string
	Now       func() time.Time
}

// Normalize builds a candidate Facility from a listing found by cell. It
// returns a resilience.DataError when the listing lacks a name or city,
// its region cannot be resolved, or it is permanently closed.
func (n *Normalizer) Normalize(l Listing, cell model.GeoCell) (*model.Facility, error) {
	name := normalize.Name(l.Name)
	if normalize.Fold(name) == "" {
		return nil, resilience.NewDataError(eris.Errorf("listing %q: no name", l.ProviderID))
	}
	if closedStatus(l.BusinessStatus) {
		return nil, resilience.NewDataError(eris.Errorf("listing %q: permanently closed", l.ProviderID))
	}

	city := normalize.Name(l.City)
	if city == "" {
		city, _, _ = geo.ParseAddress(l.FormattedAddress)
	}
	if normalize.Fold(city) == "" {
		return nil, resilience.NewDataError(eris.Errorf("listing %q (%s): no city", l.ProviderID, name))
	}

	region, _ := geo.ResolveRegion(l.RegionComponent, l.FormattedAddress, cell.Region)
	if region == "" {
		return nil, resilience.NewDataError(eris.Errorf("listing %q (%s): unresolvable region", l.ProviderID, name))
	}

	county := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(l.County), " County"))
	if county == "" {
		county = geo.LookupCounty(n.Catalog, region, city)
	}

	blocklist := n.Blocklist
	if blocklist == nil {
		blocklist = DefaultDirectoryBlocklist
	}
	website := strings.TrimSpace(l.Website)
	if website != "" && isDirectoryURL(website, blocklist) {
		website = ""
	}

	now := time.Now().UTC()
	if n.Now != nil {
		now = n.Now()
	}

	f := &model.Facility{
		Name:           name,
		DedupKey:       normalize.DedupKey(name, city, region),
		Address:        normalize.Address(l.FormattedAddress),
		Region:         region,
		SubRegion:      county,
		City:           city,
		Lat:            l.Lat,
		Lng:            l.Lng,
		Phone:          normalize.Phone(l.Phone),
		Website:        website,
		PaymentMethods: l.PaymentMethods,
		Source: model.SourceMeta{
			DiscoveredAt: now,
			Query:        cell.Query(),
			ProviderID:   l.ProviderID,
		},
	}
	if cell.ServiceType != "" {
		f.ServiceTypes = []string{cell.ServiceType}
	}
	return f, nil
}

// isDirectoryURL checks if a URL's hostname matches any entry in the blocklist.
func isDirectoryURL(website string, blocklist []string) bool {
	u, err := url.Parse(website)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	for _, blocked := range blocklist {
		blocked = strings.ToLower(blocked)
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}
