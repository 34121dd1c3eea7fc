package build

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-cli/internal/model"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Sitemap priorities by page level.
const (
	priorityHome      = 1.0
	priorityRegion    = 0.8
	prioritySubRegion = 0.7
	priorityCity      = 0.6
	priorityFacility  = 0.5
)

// SitemapIndexFile is the name of the sitemap index artifact.
const SitemapIndexFile = "sitemap-index.xml"

// SitemapFile returns the file name of chunk i.
func SitemapFile(i int) string {
	return fmt.Sprintf("sitemap-%d.xml", i)
}

// Page paths. The web tier routes the same shapes.
func regionPath(r string) string { return "/" + r + "/" }
func subRegionPath(r, s string) string { return "/" + r + "/" + s + "/" }
func cityPath(r, s, c string) string { return "/" + r + "/" + s + "/" + c + "/" }
func facilityPath(slug string) string { return "/laundromat/" + slug + "/" }
func joinURL(base, path string) string { return strings.TrimRight(base, "/") + path }

// SitemapEntries lists every public page: home, then the hierarchy
// depth-first, then facilities in slug order.
func SitemapEntries(baseURL string, regions []model.RegionNode, facilities []model.PublicFacility, now time.Time) []model.SitemapEntry {
	entries := []model.SitemapEntry{{
		Loc: joinURL(baseURL, "/"), LastMod: now, ChangeFreq: "daily", Priority: priorityHome,
	}}
	for _, r := range regions {
		entries = append(entries, model.SitemapEntry{
			Loc: joinURL(baseURL, regionPath(r.Slug)), LastMod: now, ChangeFreq: "weekly", Priority: priorityRegion,
		})
		for _, s := range r.SubRegions {
			entries = append(entries, model.SitemapEntry{
				Loc: joinURL(baseURL, subRegionPath(r.Slug, s.Slug)), LastMod: now, ChangeFreq: "weekly", Priority: prioritySubRegion,
			})
			for _, c := range s.Cities {
				entries = append(entries, model.SitemapEntry{
					Loc: joinURL(baseURL, cityPath(r.Slug, s.Slug, c.Slug)), LastMod: now, ChangeFreq: "weekly", Priority: priorityCity,
				})
			}
		}
	}
	for i := range facilities {
		f := &facilities[i]
		lastMod := now
		if t, err := time.Parse(time.RFC3339, f.UpdatedAt); err == nil {
			lastMod = t
		}
		entries = append(entries, model.SitemapEntry{
			Loc: joinURL(baseURL, facilityPath(f.Slug)), LastMod: lastMod, ChangeFreq: "monthly", Priority: priorityFacility,
		})
	}
	return entries
}

// Chunk splits entries by sequential slicing: chunk i holds entries
// [i*size, (i+1)*size). The chunk count is ceil(len(entries)/size).
func Chunk(entries []model.SitemapEntry, size int) [][]model.SitemapEntry {
	if size <= 0 || len(entries) == 0 {
		return nil
	}
	chunks := make([][]model.SitemapEntry, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		chunks = append(chunks, entries[start:end])
	}
	return chunks
}

// writeSitemaps writes one urlset file per chunk plus the index into dir.
func writeSitemaps(dir, baseURL string, chunks [][]model.SitemapEntry, now time.Time) error {
	for i, chunk := range chunks {
		doc := newXMLDocument()
		urlset := doc.CreateElement("urlset")
		urlset.CreateAttr("xmlns", sitemapNS)
		for _, e := range chunk {
			u := urlset.CreateElement("url")
			u.CreateElement("loc").SetText(e.Loc)
			u.CreateElement("lastmod").SetText(e.LastMod.UTC().Format("2006-01-02"))
			u.CreateElement("changefreq").SetText(e.ChangeFreq)
			u.CreateElement("priority").SetText(fmt.Sprintf("%.1f", e.Priority))
		}
		if err := writeXML(doc, filepath.Join(dir, SitemapFile(i))); err != nil {
			return err
		}
	}

	doc := newXMLDocument()
	index := doc.CreateElement("sitemapindex")
	index.CreateAttr("xmlns", sitemapNS)
	for i := range chunks {
		s := index.CreateElement("sitemap")
		s.CreateElement("loc").SetText(joinURL(baseURL, "/"+SitemapFile(i)))
		s.CreateElement("lastmod").SetText(now.UTC().Format("2006-01-02"))
	}
	return writeXML(doc, filepath.Join(dir, SitemapIndexFile))
}

func newXMLDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	return doc
}

func writeXML(doc *etree.Document, path string) error {
	doc.Indent(2)
	if err := doc.WriteToFile(path); err != nil {
		return eris.Wrapf(err, "build: write %s", filepath.Base(path))
	}
	return nil
}
