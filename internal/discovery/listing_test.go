package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-cli/internal/geo"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/resilience"
)

var austinCell = model.GeoCell{
	Index:       3,
	Region:      "TX",
	RegionName:  "Texas",
	Settlement:  "Austin",
	County:      "Travis",
	Keyword:     "laundromat",
	ServiceType: "self-service",
}

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	cat, err := geo.ParseCatalog([]byte(`
regions:
  - code: tx
    settlements:
      - name: Austin
        county: Travis
keywords:
  - keyword: laundromat
    service_type: self-service
`))
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Normalizer{Catalog: cat, Now: func() time.Time { return fixed }}
}

func TestNormalize_FullListing(t *testing.T) {
	n := testNormalizer(t)
	lat, lng := 30.27, -97.74

	f, err := n.Normalize(Listing{
		ProviderID:       "places/abc",
		Name:             "  Suds   City ",
		FormattedAddress: "1 Main St, Austin, TX 78701, USA",
		City:             "Austin",
		RegionComponent:  "TX",
		County:           "Travis County",
		Lat:              &lat,
		Lng:              &lng,
		Phone:            "+1 512-555-0100",
		Website:          "https://suds.example",
		PaymentMethods:   []string{"credit-card"},
	}, austinCell)
	require.NoError(t, err)

	assert.Equal(t, "Suds City", f.Name)
	assert.Equal(t, "suds city|austin|tx", f.DedupKey)
	assert.Equal(t, "1 Main St, Austin, TX 78701", f.Address)
	assert.Equal(t, "TX", f.Region)
	assert.Equal(t, "Travis", f.SubRegion)
	assert.Equal(t, "(512) 555-0100", f.Phone)
	assert.Equal(t, "https://suds.example", f.Website)
	assert.Equal(t, []string{"self-service"}, f.ServiceTypes)
	assert.Equal(t, "laundromat in Austin, TX", f.Source.Query)
	assert.Equal(t, "places/abc", f.Source.ProviderID)
	assert.Equal(t, 2026, f.Source.DiscoveredAt.Year())
}

func TestNormalize_Fallbacks(t *testing.T) {
	n := testNormalizer(t)

	f, err := n.Normalize(Listing{
		Name:             "Bubble Bath Laundry",
		FormattedAddress: "22 Oak Ave, Austin, TX 78702",
		Website:          "https://www.yelp.com/biz/bubble-bath",
	}, austinCell)
	require.NoError(t, err)

	assert.Equal(t, "Austin", f.City)
	assert.Equal(t, "TX", f.Region)
	assert.Equal(t, "Travis", f.SubRegion, "county comes from the catalog")
	assert.Empty(t, f.Website, "directory sites are not the business website")
}

func TestNormalize_Drops(t *testing.T) {
	n := testNormalizer(t)

	tests := []struct {
		name    string
		listing Listing
	}{
		{"no name", Listing{Name: "  ", City: "Austin", RegionComponent: "TX"}},
		{"punctuation name", Listing{Name: "--", City: "Austin", RegionComponent: "TX"}},
		{"closed", Listing{Name: "Old Wash", City: "Austin", RegionComponent: "TX", BusinessStatus: "CLOSED_PERMANENTLY"}},
		{"no city", Listing{Name: "Wash", FormattedAddress: "somewhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.listing, austinCell)
			require.Error(t, err)
			assert.Equal(t, resilience.ClassData, resilience.Classify(err))
		})
	}
}

func TestNormalize_UnresolvableRegion(t *testing.T) {
	n := testNormalizer(t)
	cell := austinCell
	cell.Region = ""

	_, err := n.Normalize(Listing{Name: "Wash", City: "Springfield", FormattedAddress: "Springfield"}, cell)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolvable region")
}

func TestIsDirectoryURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.yelp.com/biz/x", true},
		{"https://m.facebook.com/page", true},
		{"https://suds.example", false},
		{"https://notyelp.com", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, isDirectoryURL(tt.url, DefaultDirectoryBlocklist))
		})
	}
}
