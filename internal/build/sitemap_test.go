package build

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-cli/internal/model"
)

func numberedEntries(n int) []model.SitemapEntry {
	out := make([]model.SitemapEntry, n)
	for i := range out {
		out[i] = model.SitemapEntry{Loc: fmt.Sprintf("https://example.com/laundromat/%d/", i)}
	}
	return out
}

func TestChunk_SequentialSlices(t *testing.T) {
	entries := numberedEntries(25000)

	chunks := Chunk(entries, 10000)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 10000)
	assert.Len(t, chunks[1], 10000)
	assert.Len(t, chunks[2], 5000)

	assert.Equal(t, entries[0].Loc, chunks[0][0].Loc)
	assert.Equal(t, entries[9999].Loc, chunks[0][9999].Loc)
	assert.Equal(t, entries[10000].Loc, chunks[1][0].Loc)
	assert.Equal(t, entries[20000].Loc, chunks[2][0].Loc)
	assert.Equal(t, entries[24999].Loc, chunks[2][4999].Loc)
}

func TestChunk_Edges(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		max   int
		count int
	}{
		{"empty", 0, 10, 0},
		{"exact multiple", 20, 10, 2},
		{"single partial", 3, 10, 1},
		{"one over", 11, 10, 2},
		{"non-positive max", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Chunk(numberedEntries(tt.n), tt.max), tt.count)
		})
	}
}

func TestSitemapEntries_Order(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	regions := []model.RegionNode{{
		Slug: "texas",
		SubRegions: []model.SubRegionNode{{
			Slug:   "travis-county",
			Cities: []model.CityNode{{Slug: "austin"}},
		}},
	}}
	facilities := []model.PublicFacility{
		{Slug: "a-austin", UpdatedAt: "2026-02-01T10:00:00Z"},
		{Slug: "b-austin", UpdatedAt: "garbage"},
	}

	entries := SitemapEntries("https://example.com/", regions, facilities, now)
	require.Len(t, entries, 6)

	locs := make([]string, len(entries))
	for i, e := range entries {
		locs[i] = e.Loc
	}
	assert.Equal(t, []string{
		"https://example.com/",
		"https://example.com/texas/",
		"https://example.com/texas/travis-county/",
		"https://example.com/texas/travis-county/austin/",
		"https://example.com/laundromat/a-austin/",
		"https://example.com/laundromat/b-austin/",
	}, locs)

	assert.InDelta(t, 1.0, entries[0].Priority, 0.001)
	assert.InDelta(t, 0.5, entries[4].Priority, 0.001)
	assert.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), entries[4].LastMod)
	assert.Equal(t, now, entries[5].LastMod)
}

func TestWriteSitemaps(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	chunks := Chunk(numberedEntries(5), 2)

	require.NoError(t, writeSitemaps(dir, "https://example.com", chunks, now))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(filepath.Join(dir, SitemapIndexFile)))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "sitemapindex", root.Tag)
	maps := root.SelectElements("sitemap")
	require.Len(t, maps, 3)
	assert.Equal(t, "https://example.com/sitemap-2.xml", maps[2].SelectElement("loc").Text())

	last := etree.NewDocument()
	require.NoError(t, last.ReadFromFile(filepath.Join(dir, SitemapFile(2))))
	urls := last.Root().SelectElements("url")
	require.Len(t, urls, 1)
	assert.Equal(t, "https://example.com/laundromat/4/", urls[0].SelectElement("loc").Text())

	first := etree.NewDocument()
	require.NoError(t, first.ReadFromFile(filepath.Join(dir, SitemapFile(0))))
	assert.Len(t, first.Root().SelectElements("url"), 2)
	assert.Equal(t, sitemapNS, first.Root().SelectAttrValue("xmlns", ""))
}
