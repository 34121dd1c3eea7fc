package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-cli/internal/config"
	"github.com/sells-group/directory-cli/internal/discovery"
	"github.com/sells-group/directory-cli/internal/enrich"
	"github.com/sells-group/directory-cli/internal/geo"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/quality"
	"github.com/sells-group/directory-cli/internal/resilience"
	"github.com/sells-group/directory-cli/internal/store"
)

const testCatalog = `
regions:
  - code: TX
    settlements:
      - name: Austin
        county: Travis County
      - name: Dallas
        county: Dallas County
  - code: OK
    settlements:
      - name: Tulsa
        county: Tulsa County
keywords:
  - keyword: laundromat
    service_type: self-service
`

// cityProvider answers every query with two listings for the queried
// settlement: one branded and one with a generic name.
type cityProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *cityProvider) Search(_ context.Context, query, _ string, _ string) (*discovery.Page, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	// "laundromat in Austin, TX"
	_, place, _ := strings.Cut(query, " in ")
	city, region, _ := strings.Cut(place, ", ")
	return &discovery.Page{Listings: []discovery.Listing{
		{ProviderID: "places/suds-" + city, Name: "Suds " + city, City: city, RegionComponent: region},
		{ProviderID: "places/generic-" + city, Name: "Laundromat", City: city, RegionComponent: region},
	}}, nil
}

type countingGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *countingGenerator) Generate(_ context.Context, _ enrich.Request) (string, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()

	out := make([]string, 20)
	for i := range out {
		out[i] = fmt.Sprintf("g%dw%d", n, i)
	}
	return strings.Join(out, " "), nil
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Discovery: config.DiscoveryConfig{Workers: 2, MaxPagesPerCell: 1, RequestTimeoutSecs: 5},
		Quality: config.QualityConfig{
			GenericNames:  []string{"laundromat"},
			MinNameLength: 4,
			ReportPath:    filepath.Join(dir, "quality_report.json"),
		},
		Enrichment: config.EnrichmentConfig{
			Workers:               2,
			MaxAttempts:           3,
			MaxValidationAttempts: 3,
			FailureCooldownHours:  72,
			RequestTimeoutSecs:    5,
			MinWords:              10,
			MaxWords:              100,
			SimilarityWindow:      50,
			SimilarityThreshold:   0.55,
		},
		Build: config.BuildConfig{
			OutputDir:      filepath.Join(dir, "dist"),
			BaseURL:        "https://example.com",
			MaxPerChunk:    100,
			ExcludeFlagged: true,
		},
		Partners: []config.PartnerConfig{
			{Slug: "fold-co", Active: true, ServiceTypes: []string{"self-service"}},
		},
	}
}

func testDeps(t *testing.T) (Deps, *cityProvider, *countingGenerator) {
	catalog, err := geo.ParseCatalog([]byte(testCatalog))
	require.NoError(t, err)
	p, g := &cityProvider{}, &countingGenerator{}
	return Deps{
		Provider:  p,
		Generator: g,
		Catalog:   catalog,
		Policy: resilience.Policy{
			MaxAttempts:    2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
			Multiplier:     1,
		},
	}, p, g
}

func stageNames(results []model.StageResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Stage
	}
	return out
}

func TestRun_AllStages(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	cfg := testConfig(t)
	deps, _, gen := testDeps(t)

	results, err := NewRunner(cfg, st, deps).Run(ctx, Mode{})
	require.NoError(t, err)
	require.Equal(t, Stages, stageNames(results))

	disc, qual, enr, bld := results[0], results[1], results[2], results[3]
	assert.Equal(t, 3, disc.Processed)
	assert.Equal(t, 6, disc.Inserted)

	assert.Equal(t, 6, qual.Processed)
	assert.Equal(t, 3, qual.Failed)

	assert.Equal(t, 6, enr.Accepted)
	assert.Equal(t, 6, gen.calls)

	assert.Equal(t, 6, bld.Processed)
	assert.Equal(t, 3, bld.Skipped)
	assert.Equal(t, 3, bld.Emitted)

	assert.FileExists(t, cfg.Quality.ReportPath)
	assert.FileExists(t, filepath.Join(cfg.Build.OutputDir, "facilities.json"))
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	cfg := testConfig(t)
	deps, _, gen := testDeps(t)
	r := NewRunner(cfg, st, deps)

	_, err := r.Run(ctx, Mode{})
	require.NoError(t, err)
	results, err := r.Run(ctx, Mode{})
	require.NoError(t, err)

	n, err := st.CountFacilities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Zero(t, results[0].Inserted)
	assert.Zero(t, results[2].Accepted)
	assert.Equal(t, 6, gen.calls)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	cfg := testConfig(t)
	deps, p, _ := testDeps(t)

	results, err := NewRunner(cfg, st, deps).Run(ctx, Mode{DryRun: true})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, 6, results[0].Inserted)
	assert.Equal(t, 3, p.calls)

	n, err := st.CountFacilities(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoFileExists(t, cfg.Quality.ReportPath)
	assert.NoDirExists(t, cfg.Build.OutputDir)

	done, err := st.LedgerKeys(ctx, model.StageDiscovery, model.LedgerDone)
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestRun_SingleRegion(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	deps, p, _ := testDeps(t)

	results, err := NewRunner(testConfig(t), st, deps).Run(ctx, Mode{
		Region: "OK",
		Stages: []string{model.StageDiscovery},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, p.calls)

	all, err := st.ListFacilities(ctx, store.FacilityFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, f := range all {
		assert.Equal(t, "OK", f.Region)
	}
}

func TestRun_StagesRunInPipelineOrder(t *testing.T) {
	deps, _, _ := testDeps(t)
	results, err := NewRunner(testConfig(t), newTestStore(t), deps).Run(context.Background(), Mode{
		Stages: []string{model.StageBuild, model.StageDiscovery},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{model.StageDiscovery, model.StageBuild}, stageNames(results))
}

func TestRun_UnknownStage(t *testing.T) {
	deps, _, _ := testDeps(t)
	_, err := NewRunner(testConfig(t), newTestStore(t), deps).Run(context.Background(), Mode{
		Stages: []string{"scrape"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestRun_MissingGeneratorStopsRun(t *testing.T) {
	deps, _, _ := testDeps(t)
	deps.Generator = nil

	results, err := NewRunner(testConfig(t), newTestStore(t), deps).Run(context.Background(), Mode{})
	require.Error(t, err)
	assert.Equal(t, []string{model.StageDiscovery, model.StageQuality}, stageNames(results))
}

func TestRun_BuildUsesReportOnDisk(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	cfg := testConfig(t)
	deps, _, _ := testDeps(t)
	r := NewRunner(cfg, st, deps)

	_, err := r.Run(ctx, Mode{Stages: []string{model.StageDiscovery, model.StageQuality}})
	require.NoError(t, err)
	report, err := quality.ReadReport(cfg.Quality.ReportPath)
	require.NoError(t, err)
	require.Len(t, report.Flagged, 3)

	results, err := r.Run(ctx, Mode{Stages: []string{model.StageBuild}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Skipped)
	assert.Equal(t, 3, results[0].Emitted)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	deps, p, _ := testDeps(t)

	results, err := NewRunner(testConfig(t), newTestStore(t), deps).Run(ctx, Mode{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Zero(t, p.calls)
}

func TestPartners(t *testing.T) {
	out := Partners([]config.PartnerConfig{
		{Slug: "a", Name: "A", URL: "https://a.example", Active: true, ServiceTypes: []string{"x"}},
		{Slug: "b"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Slug)
	assert.True(t, out[0].Active)
	assert.Equal(t, []string{"x"}, out[0].ServiceTypes)
	assert.False(t, out[1].Active)
}
