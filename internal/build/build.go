// Package build projects the canonical store into the static artifacts the
// web tier serves: the facility index, the geographic summary, and the
// chunked sitemap.
package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/geo"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/normalize"
	"github.com/sells-group/directory-cli/internal/resilience"
	"github.com/sells-group/directory-cli/internal/reviews"
	"github.com/sells-group/directory-cli/internal/store"
)

// Artifact file names.
const (
	FacilitiesFile = "facilities.json"
	SummaryFile    = "summary.json"
)

// DefaultMaxPerChunk is the sitemap chunk size when none is configured.
const DefaultMaxPerChunk = 10000

// Store is the slice of the canonical store the build stage needs.
type Store interface {
	ListFacilities(ctx context.Context, filter store.FacilityFilter) ([]model.Facility, error)
	SlugAssignments(ctx context.Context) (map[string]string, error)
	AssignSlugs(ctx context.Context, assignments map[string]string) error
	UpdateRating(ctx context.Context, id string, rating *float64, reviewCount int) error
}

// Config controls the build stage.
type Config struct {
	OutputDir      string
	BaseURL        string
	MaxPerChunk    int
	ExcludeFlagged bool
	// Publish swaps the staged artifacts into OutputDir. Dry runs leave it
	// false so nothing is published.
	Publish bool
}

// Builder runs the build stage.
type Builder struct {
	store    Store
	reviews  []reviews.Source
	partners []Partner
	cfg      Config
	now      func() time.Time
}

// New creates a Builder. Partners are filtered to the active set once.
func New(st Store, partners []Partner, sources []reviews.Source, cfg Config) *Builder {
	if cfg.MaxPerChunk <= 0 {
		cfg.MaxPerChunk = DefaultMaxPerChunk
	}
	return &Builder{
		store:    st,
		reviews:  sources,
		partners: ActivePartners(partners),
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run builds every artifact from the full store. flagged holds facility IDs
// the quality analyzer flagged; they are dropped when ExcludeFlagged is set.
// Any failure before publishing leaves the output directory untouched.
func (b *Builder) Run(ctx context.Context, flagged map[string]bool) (model.StageResult, error) {
	start := time.Now()
	res := model.StageResult{Stage: model.StageBuild}
	log := zap.L().With(zap.String("stage", model.StageBuild))

	facilities, err := b.store.ListFacilities(ctx, store.FacilityFilter{})
	if err != nil {
		return res, resilience.NewStructuralError(eris.Wrap(err, "build: read canonical store"))
	}
	res.Processed = len(facilities)

	if b.cfg.ExcludeFlagged && len(flagged) > 0 {
		kept := facilities[:0]
		for _, f := range facilities {
			if flagged[f.ID] {
				res.Skipped++
				continue
			}
			kept = append(kept, f)
		}
		facilities = kept
	}

	existing, err := b.store.SlugAssignments(ctx)
	if err != nil {
		return res, resilience.NewStructuralError(eris.Wrap(err, "build: read slug assignments"))
	}
	slugs, minted := AssignSlugs(facilities, existing)
	if err := b.store.AssignSlugs(ctx, minted); err != nil {
		return res, resilience.NewStructuralError(eris.Wrap(err, "build: persist slug assignments"))
	}
	log.Info("build: slugs assigned", zap.Int("existing", len(existing)), zap.Int("minted", len(minted)))

	ratings, err := reviews.Collect(ctx, b.reviews...)
	if err != nil {
		return res, resilience.NewStructuralError(eris.Wrap(err, "build: collect reviews"))
	}

	public := make([]model.PublicFacility, 0, len(facilities))
	for i := range facilities {
		f := &facilities[i]
		slug := slugs[f.DedupKey]
		r := ratings[slug]
		if ratingChanged(f, r) {
			if err := b.store.UpdateRating(ctx, f.ID, r.Average, r.Count); err != nil {
				return res, resilience.NewStructuralError(eris.Wrapf(err, "build: update rating %s", f.ID))
			}
			f.Rating, f.ReviewCount = r.Average, r.Count
		}
		public = append(public, b.project(f, slug))
	}
	sort.Slice(public, func(i, j int) bool { return public[i].Slug < public[j].Slug })

	now := b.now()
	regions := Hierarchy(public)
	summary := Summarize(public, regions)
	summary.GeneratedAt = now
	summary.ExcludedFlagged = res.Skipped

	chunks := Chunk(SitemapEntries(b.cfg.BaseURL, regions, public, now), b.cfg.MaxPerChunk)
	summary.SitemapChunks = len(chunks)

	staging, err := b.stage(public, summary, chunks, now)
	if err != nil {
		return res, resilience.NewStructuralError(err)
	}
	defer os.RemoveAll(staging) //nolint:errcheck

	if b.cfg.Publish {
		if err := publish(staging, b.cfg.OutputDir); err != nil {
			return res, resilience.NewStructuralError(err)
		}
	} else {
		log.Info("build: dry run, artifacts not published")
	}

	res.Emitted = len(public)
	res.Duration = time.Since(start)
	log.Info("build: complete",
		zap.Int("facilities", len(public)),
		zap.Int("excluded_flagged", res.Skipped),
		zap.Int("sitemap_chunks", len(chunks)),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func ratingChanged(f *model.Facility, r reviews.Rating) bool {
	if f.ReviewCount != r.Count {
		return true
	}
	switch {
	case f.Rating == nil && r.Average == nil:
		return false
	case f.Rating == nil || r.Average == nil:
		return true
	default:
		return *f.Rating != *r.Average
	}
}

// project maps a canonical record to its public shape. Tag slices are never
// nil so the index always carries arrays.
func (b *Builder) project(f *model.Facility, slug string) model.PublicFacility {
	regionName, ok := geo.StateName(f.Region)
	if !ok {
		regionName = f.Region
	}
	subSlug := normalize.Slugify(f.SubRegion)
	if subSlug == "" {
		subSlug = normalize.Slugify(unknownSubRegion)
	}
	p := model.PublicFacility{
		Slug:           slug,
		Name:           f.Name,
		Address:        f.Address,
		City:           f.City,
		CitySlug:       normalize.Slugify(f.City),
		SubRegion:      f.SubRegion,
		SubRegionSlug:  subSlug,
		Region:         f.Region,
		RegionName:     regionName,
		RegionSlug:     normalize.Slugify(regionName),
		Lat:            f.Lat,
		Lng:            f.Lng,
		Phone:          f.Phone,
		Website:        f.Website,
		ServiceTypes:   nonNil(f.ServiceTypes),
		Certifications: nonNil(f.Certifications),
		PaymentMethods: nonNil(f.PaymentMethods),
		Rating:         f.Rating,
		ReviewCount:    f.ReviewCount,
		Partners:       MatchPartners(b.partners, f.ServiceTypes),
		UpdatedAt:      f.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if f.EnrichmentStatus == model.EnrichmentAccepted && f.Description != nil {
		p.Description = *f.Description
	}
	return p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// stage writes every artifact into a fresh temp directory next to the output
// directory and returns its path.
func (b *Builder) stage(public []model.PublicFacility, summary model.Summary, chunks [][]model.SitemapEntry, now time.Time) (string, error) {
	parent := filepath.Dir(filepath.Clean(b.cfg.OutputDir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", eris.Wrapf(err, "build: create %s", parent)
	}
	dir, err := os.MkdirTemp(parent, ".build-*")
	if err != nil {
		return "", eris.Wrap(err, "build: create staging dir")
	}

	if err := writeJSON(filepath.Join(dir, FacilitiesFile), public); err != nil {
		os.RemoveAll(dir) //nolint:errcheck
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, SummaryFile), summary); err != nil {
		os.RemoveAll(dir) //nolint:errcheck
		return "", err
	}
	if err := writeSitemaps(dir, b.cfg.BaseURL, chunks, now); err != nil {
		os.RemoveAll(dir) //nolint:errcheck
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "build: marshal %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "build: write %s", filepath.Base(path))
	}
	return nil
}

// publish swaps staging into place as out. The previous output, if any, is
// moved aside first and removed once the swap succeeds.
func publish(staging, out string) error {
	var backup string
	if _, err := os.Stat(out); err == nil {
		backup = out + ".prev"
		if err := os.RemoveAll(backup); err != nil {
			return eris.Wrap(err, "build: clear previous backup")
		}
		if err := os.Rename(out, backup); err != nil {
			return eris.Wrap(err, "build: move previous output aside")
		}
	}
	if err := os.Rename(staging, out); err != nil {
		if backup != "" {
			_ = os.Rename(backup, out)
		}
		return eris.Wrap(err, "build: publish artifacts")
	}
	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			zap.L().Warn("build: remove previous output", zap.Error(err))
		}
	}
	return nil
}
