// Package pipeline sequences the listing stages. Every run mode goes through
// the same Runner.Run path; modes only change the store wrapper and options.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/directory-cli/internal/build"
	"github.com/sells-group/directory-cli/internal/config"
	"github.com/sells-group/directory-cli/internal/discovery"
	"github.com/sells-group/directory-cli/internal/enrich"
	"github.com/sells-group/directory-cli/internal/geo"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/quality"
	"github.com/sells-group/directory-cli/internal/resilience"
	"github.com/sells-group/directory-cli/internal/reviews"
	"github.com/sells-group/directory-cli/internal/store"
)

// Stages lists every stage in execution order.
var Stages = []string{
	model.StageDiscovery,
	model.StageQuality,
	model.StageEnrichment,
	model.StageBuild,
}

// Mode selects what a run does.
type Mode struct {
	// Region restricts discovery cells and enrichment candidates to one
	// region code. Empty means all regions.
	Region string
	// Limit caps the cells scheduled by discovery and the records attempted
	// by enrichment. Zero means no cap.
	Limit int
	// DryRun wraps the store in a write-discarding decorator and skips
	// publishing artifacts.
	DryRun bool
	// Resume skips cells the discovery ledger marks done. Without it the
	// discovery ledger is reset first.
	Resume bool
	// Stages is the subset to run. Empty means all of them.
	Stages []string
}

// Deps carries the external collaborators. Provider and Generator may be nil
// when the stages that need them are not run.
type Deps struct {
	Provider         discovery.SearchProvider
	Generator        enrich.Generator
	Catalog          *geo.Catalog
	ReviewSources    []reviews.Source
	Policy           resilience.Policy
	DiscoveryLimiter *rate.Limiter
	EnrichLimiter    *rate.Limiter
}

// Runner executes stages against one canonical store.
type Runner struct {
	cfg   *config.Config
	store store.Store
	deps  Deps
}

// NewRunner creates a Runner.
func NewRunner(cfg *config.Config, st store.Store, deps Deps) *Runner {
	return &Runner{cfg: cfg, store: st, deps: deps}
}

// Run executes the selected stages in order and returns one result per stage
// run. A stage error stops the run; results of completed stages are still
// returned.
func (r *Runner) Run(ctx context.Context, mode Mode) ([]model.StageResult, error) {
	selected, err := selectStages(mode.Stages)
	if err != nil {
		return nil, err
	}

	st := r.store
	if mode.DryRun {
		st = store.DryRun(r.store)
	}

	log := zap.L().With(
		zap.String("region", mode.Region),
		zap.Int("limit", mode.Limit),
		zap.Bool("dry_run", mode.DryRun),
		zap.Bool("resume", mode.Resume),
	)
	log.Info("pipeline: starting", zap.Strings("stages", selected))

	var (
		results []model.StageResult
		report  *model.QualityReport
	)
	for _, stage := range selected {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		var (
			res    model.StageResult
			runErr error
		)
		switch stage {
		case model.StageDiscovery:
			res, runErr = r.discover(ctx, st, mode)
		case model.StageQuality:
			report, res, runErr = r.analyze(ctx, st, mode)
		case model.StageEnrichment:
			res, runErr = r.enrich(ctx, st, mode)
		case model.StageBuild:
			res, runErr = r.build(ctx, st, mode, report)
		}
		if runErr != nil {
			log.Error("pipeline: stage failed", zap.String("stage", stage), zap.Error(runErr))
			return results, eris.Wrapf(runErr, "pipeline: %s", stage)
		}
		results = append(results, res)
		log.Info("pipeline: stage complete",
			zap.String("stage", stage),
			zap.Int("processed", res.Processed),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
			zap.Duration("duration", res.Duration),
		)
	}
	return results, nil
}

func selectStages(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return Stages, nil
	}
	for _, s := range requested {
		if !slices.Contains(Stages, s) {
			return nil, eris.Errorf("pipeline: unknown stage %q", s)
		}
	}
	// Always run in pipeline order regardless of how they were requested.
	var out []string
	for _, s := range Stages {
		if slices.Contains(requested, s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *Runner) discover(ctx context.Context, st store.Store, mode Mode) (model.StageResult, error) {
	if r.deps.Provider == nil {
		return model.StageResult{}, eris.New("pipeline: discovery requires a search provider")
	}
	if r.deps.Catalog == nil {
		return model.StageResult{}, resilience.NewStructuralError(eris.New("pipeline: discovery requires a geo catalog"))
	}
	dc := r.cfg.Discovery
	engine := discovery.NewEngine(st, r.deps.Provider, r.deps.DiscoveryLimiter, r.deps.Policy,
		&discovery.Normalizer{Catalog: r.deps.Catalog},
		discovery.Config{
			Workers:         dc.Workers,
			MaxPagesPerCell: dc.MaxPagesPerCell,
			RequestTimeout:  dc.RequestTimeout(),
		},
	)
	return engine.Run(ctx, geo.Enumerate(r.deps.Catalog), discovery.RunOptions{
		Region: mode.Region,
		Limit:  mode.Limit,
		Resume: mode.Resume,
	})
}

func (r *Runner) analyze(ctx context.Context, st store.Store, mode Mode) (*model.QualityReport, model.StageResult, error) {
	qc := r.cfg.Quality
	report, res, err := quality.Run(ctx, st, quality.Options{
		GenericNames:  qc.GenericNames,
		MinNameLength: qc.MinNameLength,
		Region:        mode.Region,
	})
	if err != nil {
		return nil, res, err
	}
	if qc.ReportPath != "" && !mode.DryRun {
		if err := quality.WriteReport(qc.ReportPath, report); err != nil {
			return nil, res, err
		}
	}
	return report, res, nil
}

func (r *Runner) enrich(ctx context.Context, st store.Store, mode Mode) (model.StageResult, error) {
	if r.deps.Generator == nil {
		return model.StageResult{}, eris.New("pipeline: enrichment requires a generator")
	}
	ec := r.cfg.Enrichment
	gate := enrich.NewGate(enrich.GateConfig{
		MinWords:            ec.MinWords,
		MaxWords:            ec.MaxWords,
		BannedPhrases:       ec.BannedPhrases,
		SimilarityWindow:    ec.SimilarityWindow,
		SimilarityThreshold: ec.SimilarityThreshold,
	})
	engine := enrich.NewEngine(st, r.deps.Generator, gate, r.deps.EnrichLimiter, r.deps.Policy, enrich.Config{
		Workers:               ec.Workers,
		MaxAttempts:           ec.MaxAttempts,
		MaxValidationAttempts: ec.MaxValidationAttempts,
		FailureCooldown:       ec.FailureCooldown(),
		RequestTimeout:        ec.RequestTimeout(),
	})
	return engine.Run(ctx, enrich.RunOptions{Region: mode.Region, Limit: mode.Limit})
}

// build uses the report from this run when the analyzer ran; otherwise it
// falls back to the last report on disk.
func (r *Runner) build(ctx context.Context, st store.Store, mode Mode, report *model.QualityReport) (model.StageResult, error) {
	bc := r.cfg.Build

	var flagged map[string]bool
	if bc.ExcludeFlagged {
		if path := r.cfg.Quality.ReportPath; report == nil && path != "" {
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				zap.L().Warn("pipeline: no quality report, nothing excluded", zap.String("path", path))
			} else {
				prev, err := quality.ReadReport(path)
				if err != nil {
					return model.StageResult{}, resilience.NewStructuralError(err)
				}
				report = prev
			}
		}
		if report != nil {
			flagged = report.FlaggedSet()
		}
	}

	b := build.New(st, Partners(r.cfg.Partners), r.deps.ReviewSources, build.Config{
		OutputDir:      bc.OutputDir,
		BaseURL:        bc.BaseURL,
		MaxPerChunk:    bc.MaxPerChunk,
		ExcludeFlagged: bc.ExcludeFlagged,
		Publish:        !mode.DryRun,
	})
	return b.Run(ctx, flagged)
}

// Partners converts configured partner entries to build partners.
func Partners(cfg []config.PartnerConfig) []build.Partner {
	out := make([]build.Partner, 0, len(cfg))
	for _, p := range cfg {
		out = append(out, build.Partner{
			Slug:         p.Slug,
			Name:         p.Name,
			URL:          p.URL,
			Active:       p.Active,
			ServiceTypes: slices.Clone(p.ServiceTypes),
		})
	}
	return out
}
