package main

import (
	"context"
	"encoding/json"
	"io"
	"slices"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/directory-cli/internal/config"
	"github.com/sells-group/directory-cli/internal/db"
	"github.com/sells-group/directory-cli/internal/discovery"
	"github.com/sells-group/directory-cli/internal/enrich"
	"github.com/sells-group/directory-cli/internal/geo"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/pipeline"
	"github.com/sells-group/directory-cli/internal/resilience"
	"github.com/sells-group/directory-cli/internal/reviews"
	"github.com/sells-group/directory-cli/internal/store"
	anthropicpkg "github.com/sells-group/directory-cli/pkg/anthropic"
	"github.com/sells-group/directory-cli/pkg/gemini"
	"github.com/sells-group/directory-cli/pkg/google"
)

// modeFlags holds the run-mode flags shared by every stage command.
type modeFlags struct {
	region string
	limit  int
	dryRun bool
	resume bool
}

func (m *modeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.region, "region", "", "restrict to one region code (e.g. TX)")
	cmd.Flags().IntVar(&m.limit, "limit", 0, "max cells or records per stage (0 = no limit)")
	cmd.Flags().BoolVar(&m.dryRun, "dry-run", false, "run without writing to the store or publishing artifacts")
	cmd.Flags().BoolVar(&m.resume, "resume", false, "skip discovery cells already marked done")
}

func (m *modeFlags) mode(stages ...string) (pipeline.Mode, error) {
	mode := pipeline.Mode{
		Limit:  m.limit,
		DryRun: m.dryRun,
		Resume: m.resume,
		Stages: stages,
	}
	if m.limit < 0 {
		return mode, eris.New("--limit must not be negative")
	}
	if m.region != "" {
		code, ok := geo.StateCode(m.region)
		if !ok {
			return mode, eris.Errorf("unknown region %q", m.region)
		}
		mode.Region = code
	}
	return mode, nil
}

// runStages builds a Runner for the given stages, executes them, and prints
// the stage results as JSON.
func runStages(ctx context.Context, out io.Writer, flags *modeFlags, stages ...string) error {
	mode, err := flags.mode(stages...)
	if err != nil {
		return err
	}
	selected := stages
	if len(selected) == 0 {
		selected = pipeline.Stages
	}
	for _, s := range selected {
		if err := cfg.Validate(s); err != nil {
			return err
		}
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	deps, cleanup, err := initDeps(ctx, selected)
	if err != nil {
		return err
	}
	defer cleanup()

	results, runErr := pipeline.NewRunner(cfg, st, deps).Run(ctx, mode)
	if err := printResults(out, results); err != nil {
		return err
	}
	return runErr
}

func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initDeps constructs only the collaborators the selected stages use.
func initDeps(ctx context.Context, stages []string) (pipeline.Deps, func(), error) {
	deps := pipeline.Deps{
		Policy: resilience.NewPolicy(
			cfg.Retry.MaxAttempts,
			cfg.Retry.InitialBackoffMs,
			cfg.Retry.MaxBackoffMs,
			cfg.Retry.Multiplier,
			cfg.Retry.JitterFraction,
		),
	}
	cleanup := func() {}

	if slices.Contains(stages, model.StageDiscovery) {
		catalog, err := geo.LoadCatalog(cfg.Geo.CatalogPath)
		if err != nil {
			return deps, cleanup, err
		}
		deps.Catalog = catalog
		deps.Provider = discovery.NewPlacesProvider(
			google.NewClient(cfg.Google.Key, google.WithBaseURL(cfg.Google.BaseURL)),
		)
		deps.DiscoveryLimiter = newLimiter(cfg.Discovery.RateLimit)
	}

	if slices.Contains(stages, model.StageEnrichment) {
		gen, err := newGenerator(ctx, cfg)
		if err != nil {
			return deps, cleanup, err
		}
		deps.Generator = gen
		deps.EnrichLimiter = newLimiter(cfg.Enrichment.RateLimit)
	}

	if slices.Contains(stages, model.StageBuild) {
		deps.ReviewSources = []reviews.Source{reviews.StaticSource{Path: cfg.Reviews.StaticPath}}
		if cfg.Reviews.DatabaseURL != "" {
			pool, err := db.Connect(ctx, cfg.Reviews.DatabaseURL)
			if err != nil {
				return deps, cleanup, err
			}
			cleanup = pool.Close
			deps.ReviewSources = append(deps.ReviewSources, reviews.NewPostgresSource(pool))
		}
	}
	return deps, cleanup, nil
}

// newLimiter returns a limiter allowing rps requests per second. A
// non-positive rate disables limiting.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func newGenerator(ctx context.Context, c *config.Config) (enrich.Generator, error) {
	switch c.Enrichment.Provider {
	case "anthropic":
		client := anthropicpkg.NewClient(c.Anthropic.Key)
		return enrich.NewAnthropicGenerator(client, c.Anthropic.Model, c.Enrichment.MaxTokens), nil
	case "gemini":
		client, err := gemini.NewClient(ctx, c.Gemini.Key)
		if err != nil {
			return nil, err
		}
		return enrich.NewGeminiGenerator(client, c.Gemini.Model, int32(c.Enrichment.MaxTokens)), nil
	default:
		return nil, eris.Errorf("unknown enrichment provider %q", c.Enrichment.Provider)
	}
}

func printResults(w io.Writer, results []model.StageResult) error {
	for _, r := range results {
		zap.L().Info("stage result",
			zap.String("stage", r.Stage),
			zap.Int("processed", r.Processed),
			zap.Int("skipped", r.Skipped),
			zap.Int("failed", r.Failed),
		)
	}
	if results == nil {
		results = []model.StageResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
