package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Café  Olé ", "cafe ole"},
		{"Joe's Laundry", "joes laundry"},
		{"SUDS & Bubbles", "suds and bubbles"},
		{"A.B.C. Wash-N-Go!!", "a b c wash n go"},
		{"São Paulo", "sao paulo"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestDedupKey_CaseAndDiacriticInsensitive(t *testing.T) {
	a := DedupKey("Café Clean", "San José", "ca")
	b := DedupKey("CAFE CLEAN", "san jose", "CA")
	assert.Equal(t, a, b)
	assert.Equal(t, "cafe clean|san jose|ca", a)
}

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"512-555-0100", "(512) 555-0100"},
		{"+1 (512) 555 0100", "(512) 555-0100"},
		{"15125550100", "(512) 555-0100"},
		{"512.555.0100 ext 22", "(512) 555-0100"},
		{"555-0100", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Phone(tt.in))
		})
	}
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "100 Main St, Austin, TX 78701", Address("  100  Main St,  Austin, TX 78701, USA "))
	assert.Equal(t, "1 Elm", Address("1 Elm"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "joes-laundry", Slugify("Joe's Laundry"))
	assert.Equal(t, "cafe-ole", Slugify("Café -- Olé"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestFacilitySlug(t *testing.T) {
	assert.Equal(t, "suds-and-bubbles-austin", FacilitySlug("Suds & Bubbles", "Austin"))
	assert.Equal(t, "listing-austin", FacilitySlug("???", "Austin"))
	assert.Equal(t, "suds", FacilitySlug("Suds", ""))
	assert.Equal(t, "listing", FacilitySlug("", ""))
}
