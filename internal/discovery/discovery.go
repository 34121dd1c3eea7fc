// Package discovery turns geographic search cells into canonical facility
// records by querying a listing provider and upserting the results.
package discovery

import (
	"context"

	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/store"
)

// Listing is one raw search result, independent of the provider that
// returned it.
type Listing struct {
	ProviderID       string
	Name             string
	FormattedAddress string
	City             string
	RegionComponent  string
	County           string
	Lat              *float64
	Lng              *float64
	Phone            string
	Website          string
	PaymentMethods   []string
	BusinessStatus   string
}

// Page is one page of provider results. An empty NextToken ends pagination.
type Page struct {
	Listings  []Listing
	NextToken string
}

// SearchProvider runs a text search. regionHint is the two-letter state the
// query targets; pageToken is empty for the first page.
type SearchProvider interface {
	Search(ctx context.Context, query, regionHint, pageToken string) (*Page, error)
}

// Store is the subset of the canonical store discovery writes to.
type Store interface {
	UpsertFacility(ctx context.Context, f *model.Facility) (store.UpsertOutcome, error)
	LedgerKeys(ctx context.Context, stage string, status model.LedgerStatus) (map[string]bool, error)
	PutLedger(ctx context.Context, entry model.LedgerEntry) error
	ResetLedger(ctx context.Context, stage string, keys ...string) error
}
