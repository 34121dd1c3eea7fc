package build

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/normalize"
	"github.com/sells-group/directory-cli/internal/resilience"
	"github.com/sells-group/directory-cli/internal/reviews"
	"github.com/sells-group/directory-cli/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seed(t *testing.T, st store.Store, name, city, county, region string, discovered time.Time, services ...string) string {
	t.Helper()
	f := &model.Facility{
		Name:         name,
		City:         city,
		SubRegion:    county,
		Region:       region,
		DedupKey:     normalize.DedupKey(name, city, region),
		ServiceTypes: services,
		Source:       model.SourceMeta{DiscoveredAt: discovered, Query: "laundromat in " + city},
	}
	_, err := st.UpsertFacility(context.Background(), f)
	require.NoError(t, err)
	return f.ID
}

func readFacilities(t *testing.T, dir string) []model.PublicFacility {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, FacilitiesFile))
	require.NoError(t, err)
	var out []model.PublicFacility
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func slugsByName(facilities []model.PublicFacility) map[string]string {
	out := make(map[string]string, len(facilities))
	for _, f := range facilities {
		out[f.Name+"|"+f.Region] = f.Slug
	}
	return out
}

func testConfig(t *testing.T) Config {
	return Config{
		OutputDir:   filepath.Join(t.TempDir(), "public"),
		BaseURL:     "https://example.com",
		MaxPerChunk: 3,
		Publish:     true,
	}
}

func TestRun_EmitsArtifacts(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	acceptedID := seed(t, st, "Suds City", "Austin", "Travis County", "TX", t0, "self-service", "wash-and-fold")
	seed(t, st, "Bubbles", "Tulsa", "", "OK", t0.Add(time.Hour))
	pendingID := seed(t, st, "Spin Cycle", "Dallas", "Dallas County", "TX", t0.Add(2*time.Hour), "dry-cleaning")
	require.NoError(t, st.AcceptDescription(ctx, acceptedID, "Suds City keeps forty washers running."))
	require.NoError(t, st.SetEnrichmentStatus(ctx, pendingID, model.EnrichmentPending))

	reviewsPath := filepath.Join(t.TempDir(), "reviews.json")
	require.NoError(t, os.WriteFile(reviewsPath, []byte(`[
		{"slug": "suds-city-austin", "rating": 5},
		{"slug": "suds-city-austin", "rating": 4}
	]`), 0o644))

	cfg := testConfig(t)
	partners := []Partner{
		{Slug: "fold-co", Active: true, ServiceTypes: []string{"wash-and-fold"}},
		{Slug: "retired", Active: false},
	}
	b := New(st, partners, []reviews.Source{reviews.StaticSource{Path: reviewsPath}}, cfg)

	res, err := b.Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StageBuild, res.Stage)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 3, res.Emitted)
	assert.Zero(t, res.Skipped)

	out := readFacilities(t, cfg.OutputDir)
	require.Len(t, out, 3)
	assert.Equal(t, "bubbles-tulsa", out[0].Slug)
	assert.Equal(t, "spin-cycle-dallas", out[1].Slug)
	assert.Equal(t, "suds-city-austin", out[2].Slug)

	bubbles, spin, suds := out[0], out[1], out[2]
	assert.Equal(t, "other", bubbles.SubRegionSlug)
	assert.Equal(t, "Oklahoma", bubbles.RegionName)
	assert.NotNil(t, bubbles.ServiceTypes)
	assert.Nil(t, bubbles.Rating)

	assert.Empty(t, spin.Description)
	assert.Empty(t, spin.Partners)

	assert.Equal(t, "Suds City keeps forty washers running.", suds.Description)
	require.NotNil(t, suds.Rating)
	assert.InDelta(t, 4.5, *suds.Rating, 1e-9)
	assert.Equal(t, 2, suds.ReviewCount)
	assert.Equal(t, []string{"fold-co"}, suds.Partners)
	assert.Equal(t, "texas", suds.RegionSlug)
	assert.Equal(t, "travis-county", suds.SubRegionSlug)

	stored, err := st.GetFacility(ctx, acceptedID)
	require.NoError(t, err)
	require.NotNil(t, stored.Rating)
	assert.Equal(t, 2, stored.ReviewCount)

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, SummaryFile))
	require.NoError(t, err)
	var summary model.Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Enriched)
	assert.Equal(t, map[string]int{"TX": 2, "OK": 1}, summary.ByRegion)
	require.Len(t, summary.Regions, 2)
	assert.Equal(t, "oklahoma", summary.Regions[0].Slug)

	// home + 2 regions + 3 sub-regions + 3 cities + 3 facilities = 12 -> 4 chunks of 3
	assert.Equal(t, 4, summary.SitemapChunks)
	for i := 0; i < 4; i++ {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, SitemapFile(i)))
	}
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, SitemapFile(4)))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, SitemapIndexFile))
}

func TestRun_SlugsStableAcrossRebuilds(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seed(t, st, "Suds City", "Austin", "Travis County", "TX", t0.Add(time.Hour))
	seed(t, st, "Bubbles", "Tulsa", "", "OK", t0.Add(2*time.Hour))

	cfg := testConfig(t)
	_, err := New(st, nil, nil, cfg).Run(ctx, nil)
	require.NoError(t, err)
	first := slugsByName(readFacilities(t, cfg.OutputDir))
	assert.Equal(t, "suds-city-austin", first["Suds City|TX"])

	// A colliding record discovered earlier must not steal the existing slug.
	seed(t, st, "Suds City", "Austin", "", "MN", t0)
	seed(t, st, "Wash Hub", "Waco", "McLennan County", "TX", t0)

	_, err = New(st, nil, nil, cfg).Run(ctx, nil)
	require.NoError(t, err)
	second := slugsByName(readFacilities(t, cfg.OutputDir))
	require.Len(t, second, 4)
	for key, slug := range first {
		assert.Equal(t, slug, second[key], key)
	}
	assert.Equal(t, "suds-city-austin-2", second["Suds City|MN"])
	assert.Equal(t, "wash-hub-waco", second["Wash Hub|TX"])

	persisted, err := st.SlugAssignments(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 4)
}

func TestRun_ExcludeFlagged(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	flaggedID := seed(t, st, "Laundromat", "Austin", "Travis County", "TX", t0)
	seed(t, st, "Suds City", "Austin", "Travis County", "TX", t0.Add(time.Hour))

	cfg := testConfig(t)
	cfg.ExcludeFlagged = true
	res, err := New(st, nil, nil, cfg).Run(ctx, map[string]bool{flaggedID: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Emitted)

	out := readFacilities(t, cfg.OutputDir)
	require.Len(t, out, 1)
	assert.Equal(t, "Suds City", out[0].Name)
}

func TestRun_FlaggedKeptWhenNotExcluding(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	flaggedID := seed(t, st, "Laundromat", "Austin", "Travis County", "TX", t0)

	cfg := testConfig(t)
	res, err := New(st, nil, nil, cfg).Run(ctx, map[string]bool{flaggedID: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Emitted)
}

func TestRun_DryRunPublishesNothing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seed(t, st, "Suds City", "Austin", "Travis County", "TX", t0)

	cfg := testConfig(t)
	cfg.Publish = false
	res, err := New(store.DryRun(st), nil, nil, cfg).Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Emitted)
	assert.NoDirExists(t, cfg.OutputDir)

	persisted, err := st.SlugAssignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)

	entries, err := os.ReadDir(filepath.Dir(cfg.OutputDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_ReplacesPreviousOutput(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seed(t, st, "Suds City", "Austin", "Travis County", "TX", t0)

	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	stale := filepath.Join(cfg.OutputDir, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err := New(st, nil, nil, cfg).Run(ctx, nil)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, FacilitiesFile))
	assert.NoDirExists(t, cfg.OutputDir+".prev")
}

type failingStore struct {
	Store
	listErr   error
	assignErr error
}

func (f *failingStore) ListFacilities(ctx context.Context, filter store.FacilityFilter) ([]model.Facility, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListFacilities(ctx, filter)
}

func (f *failingStore) AssignSlugs(ctx context.Context, m map[string]string) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	return f.Store.AssignSlugs(ctx, m)
}

func TestRun_StoreReadFailureLeavesNoArtifacts(t *testing.T) {
	st := newTestStore(t)
	cfg := testConfig(t)

	b := New(&failingStore{Store: st, listErr: errors.New("disk gone")}, nil, nil, cfg)
	_, err := b.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, resilience.ClassStructural, resilience.Classify(err))
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRun_SlugPersistFailureKeepsPreviousOutput(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seed(t, st, "Suds City", "Austin", "Travis County", "TX", t0)

	cfg := testConfig(t)
	_, err := New(st, nil, nil, cfg).Run(ctx, nil)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(cfg.OutputDir, FacilitiesFile))
	require.NoError(t, err)

	seed(t, st, "Bubbles", "Tulsa", "", "OK", t0.Add(time.Hour))
	b := New(&failingStore{Store: st, assignErr: errors.New("locked")}, nil, nil, cfg)
	_, err = b.Run(ctx, nil)
	require.Error(t, err)

	after, err := os.ReadFile(filepath.Join(cfg.OutputDir, FacilitiesFile))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

type errSource struct{}

func (errSource) Reviews(context.Context) ([]reviews.Review, error) {
	return nil, errors.New("connection refused")
}

func TestRun_ReviewSourceFailureIsFatal(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, "Suds City", "Austin", "Travis County", "TX", t0)

	cfg := testConfig(t)
	_, err := New(st, nil, []reviews.Source{errSource{}}, cfg).Run(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, resilience.ClassStructural, resilience.Classify(err))
	assert.NoDirExists(t, cfg.OutputDir)
}
