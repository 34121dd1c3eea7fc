package discovery

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-cli/internal/resilience"
	"github.com/sells-group/directory-cli/pkg/google"
)

// placesPageSize is the Text Search maximum.
const placesPageSize = 20

// PlacesProvider adapts the Google Places Text Search API to SearchProvider.
type PlacesProvider struct {
	client google.Client
}

// NewPlacesProvider creates a SearchProvider backed by Google Places.
func NewPlacesProvider(client google.Client) *PlacesProvider {
	return &PlacesProvider{client: client}
}

// Search runs one Text Search page. Every provider failure, including a
// non-2xx status or an undecodable body, comes back as
// resilience.TransientError so the page spends its full retry budget.
func (p *PlacesProvider) Search(ctx context.Context, query, _ string, pageToken string) (*Page, error) {
	resp, err := p.client.SearchText(ctx, google.TextSearchRequest{
		TextQuery: query,
		PageSize:  placesPageSize,
		PageToken: pageToken,
	})
	if err != nil {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, err
		}
		status := 0
		var apiErr *google.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return nil, resilience.NewTransientError(eris.Wrap(err, "places: search"), status)
	}

	page := &Page{NextToken: resp.NextPageToken}
	for i := range resp.Places {
		page.Listings = append(page.Listings, placeToListing(&resp.Places[i]))
	}
	return page, nil
}

func placeToListing(p *google.Place) Listing {
	l := Listing{
		ProviderID:       p.ID,
		Name:             p.DisplayName.Text,
		FormattedAddress: p.FormattedAddress,
		Phone:            p.NationalPhoneNumber,
		Website:          p.WebsiteURI,
		BusinessStatus:   p.BusinessStatus,
		PaymentMethods:   paymentMethods(p.PaymentOptions),
	}
	if c, ok := p.Component("locality"); ok {
		l.City = c.LongText
	} else if c, ok := p.Component("postal_town"); ok {
		l.City = c.LongText
	}
	if c, ok := p.Component("administrative_area_level_1"); ok {
		l.RegionComponent = c.ShortText
	}
	if c, ok := p.Component("administrative_area_level_2"); ok {
		l.County = c.LongText
	}
	if p.Location != nil {
		lat, lng := p.Location.Latitude, p.Location.Longitude
		l.Lat, l.Lng = &lat, &lng
	}
	return l
}

// paymentMethods maps Places payment flags to directory tags. Cash-only
// listings get only the cash tag.
func paymentMethods(o *google.PaymentOptions) []string {
	if o == nil {
		return nil
	}
	if isTrue(o.AcceptsCashOnly) {
		return []string{"cash"}
	}
	var out []string
	if isTrue(o.AcceptsCreditCards) {
		out = append(out, "credit-card")
	}
	if isTrue(o.AcceptsDebitCards) {
		out = append(out, "debit-card")
	}
	if isTrue(o.AcceptsNfc) {
		out = append(out, "mobile-pay")
	}
	return out
}

func isTrue(b *bool) bool { return b != nil && *b }

// closedStatus reports whether a provider business status means the listing
// should not enter the directory.
func closedStatus(status string) bool {
	return strings.EqualFold(status, "CLOSED_PERMANENTLY")
}
