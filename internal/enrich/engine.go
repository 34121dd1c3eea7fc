package enrich

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/resilience"
	"github.com/sells-group/directory-cli/internal/store"
)

// Config tunes the enrichment engine.
type Config struct {
	Workers               int
	MaxAttempts           int
	MaxValidationAttempts int
	FailureCooldown       time.Duration
	RequestTimeout        time.Duration
}

// RunOptions selects which records a run processes.
type RunOptions struct {
	Region string
	// Limit caps the number of records attempted. Zero means no cap.
	Limit int
	// IDs restricts the run to specific facilities.
	IDs []string
}

// Engine runs enrichment over eligible facilities with a bounded worker pool.
type Engine struct {
	store   Store
	gen     Generator
	gate    *Gate
	limiter *rate.Limiter
	policy  resilience.Policy
	cfg     Config
	now     func() time.Time
}

// NewEngine creates an Engine. The limiter is shared by every worker.
func NewEngine(st Store, gen Generator, gate *Gate, limiter *rate.Limiter, policy resilience.Policy, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxValidationAttempts <= 0 {
		cfg.MaxValidationAttempts = 3
	}
	if cfg.FailureCooldown <= 0 {
		cfg.FailureCooldown = 72 * time.Hour
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	if gate == nil {
		gate = NewGate(DefaultGateConfig())
	}
	return &Engine{
		store:   st,
		gen:     gen,
		gate:    gate,
		limiter: limiter,
		policy:  policy,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Select decides whether a facility is due for an attempt and returns the
// attempt state to continue from. Accepted records are never selected. A
// failed record is skipped while it has no budget left and its cool-down
// has not elapsed; once the cool-down passes its budget starts over.
func (e *Engine) Select(f *model.Facility, prev *model.EnrichmentAttempt, now time.Time) (model.EnrichmentAttempt, bool) {
	a := model.EnrichmentAttempt{FacilityID: f.ID}
	if prev != nil {
		a = *prev
		a.FacilityID = f.ID
	}

	switch f.EnrichmentStatus {
	case model.EnrichmentAccepted:
		return a, false
	case model.EnrichmentMissing, model.EnrichmentPending, model.EnrichmentFailed:
	default:
		return a, false
	}

	if !e.exhausted(a) {
		return a, true
	}
	if prev != nil && now.Sub(prev.LastAttemptAt) < e.cfg.FailureCooldown {
		return a, false
	}
	return model.EnrichmentAttempt{FacilityID: f.ID}, true
}

func (e *Engine) exhausted(a model.EnrichmentAttempt) bool {
	return a.TransientAttempts >= e.cfg.MaxAttempts || a.ValidationAttempts >= e.cfg.MaxValidationAttempts
}

type job struct {
	facility model.Facility
	attempt  model.EnrichmentAttempt
}

// Run selects eligible facilities and enriches them. Per-record failures are
// persisted in the attempt log and do not stop the run.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (model.StageResult, error) {
	start := time.Now()
	log := zap.L().With(zap.String("stage", model.StageEnrichment))
	result := model.StageResult{Stage: model.StageEnrichment}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	facilities, err := e.store.ListFacilities(ctx, store.FacilityFilter{
		Region: opts.Region,
		IDs:    opts.IDs,
		Statuses: []model.EnrichmentStatus{
			model.EnrichmentMissing, model.EnrichmentPending, model.EnrichmentFailed,
		},
	})
	if err != nil {
		return result, eris.Wrap(err, "enrich: list facilities")
	}
	attempts, err := e.store.ListAttempts(ctx)
	if err != nil {
		return result, eris.Wrap(err, "enrich: list attempts")
	}
	recent, err := e.store.RecentDescriptions(ctx, e.gate.cfg.SimilarityWindow)
	if err != nil {
		return result, eris.Wrap(err, "enrich: seed similarity window")
	}
	e.gate.Seed(recent)

	now := e.now()
	var jobs []job
	for i := range facilities {
		f := facilities[i]
		var prev *model.EnrichmentAttempt
		if a, ok := attempts[f.ID]; ok {
			prev = &a
		}
		a, ok := e.Select(&f, prev, now)
		if !ok || (opts.Limit > 0 && len(jobs) >= opts.Limit) {
			result.Skipped++
			continue
		}
		jobs = append(jobs, job{facility: f, attempt: a})
	}

	log.Info("starting enrichment",
		zap.Int("candidates", len(facilities)),
		zap.Int("scheduled", len(jobs)),
		zap.Int("skipped", result.Skipped),
		zap.Int("workers", e.cfg.Workers),
	)

	var processed, accepted, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ok, err := e.enrichOne(gctx, j.facility, j.attempt)
			if err != nil {
				return err
			}
			processed.Add(1)
			if ok {
				accepted.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()

	result.Processed = int(processed.Load())
	result.Accepted = int(accepted.Load())
	result.Failed = int(failed.Load())
	result.Duration = time.Since(start)

	log.Info("enrichment complete",
		zap.Int("processed", result.Processed),
		zap.Int("accepted", result.Accepted),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", result.Duration),
	)

	if err != nil {
		return result, err
	}
	return result, ctx.Err()
}

// enrichOne retries one facility until its output is accepted or a budget
// runs out. Every attempt is persisted before the next begins. Returns
// false when the record ended failed; an error only for cancellation or a
// store write failure.
func (e *Engine) enrichOne(ctx context.Context, f model.Facility, a model.EnrichmentAttempt) (bool, error) {
	log := zap.L().With(
		zap.String("stage", model.StageEnrichment),
		zap.String("facility_id", f.ID),
	)
	req := BuildRequest(&f, e.gate.cfg.MinWords, e.gate.cfg.MaxWords)

	for {
		text, err := e.generate(ctx, req)
		if err == nil {
			err = e.gate.Check(text)
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		a.LastAttemptAt = e.now()

		if err == nil {
			if err := e.store.AcceptDescription(ctx, f.ID, text); err != nil {
				e.gate.Forget(text)
				return false, eris.Wrapf(err, "enrich: accept %s", f.ID)
			}
			log.Debug("description accepted", zap.Int("attempts", a.Total()+1))
			return true, nil
		}

		class := e.classify(err)
		if class == resilience.ClassValidation {
			a.ValidationAttempts++
		} else {
			a.TransientAttempts++
		}
		a.LastError = err.Error()

		status := model.EnrichmentPending
		done := !class.Retryable() || e.exhausted(a)
		if done {
			status = model.EnrichmentFailed
		}
		if werr := e.store.RecordAttempt(ctx, a, status); werr != nil {
			return false, eris.Wrapf(werr, "enrich: record attempt %s", f.ID)
		}
		if done {
			log.Warn("enrichment failed",
				zap.String("class", class.String()),
				zap.Int("transient_attempts", a.TransientAttempts),
				zap.Int("validation_attempts", a.ValidationAttempts),
				zap.Error(err),
			)
			return false, nil
		}

		if e.policy.OnRetry != nil {
			e.policy.OnRetry(a.Total(), class, err)
		}
		if err := e.policy.Sleep(ctx, a.Total()); err != nil {
			return false, err
		}
	}
}

// generate waits on the shared limiter and calls the provider under the
// per-call timeout. A timeout is reported as transient.
func (e *Engine) generate(ctx context.Context, req Request) (string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "enrich: rate limit wait")
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	text, err := e.gen.Generate(callCtx, req)
	if err != nil && callCtx.Err() != nil && ctx.Err() == nil {
		return "", resilience.NewTransientError(err, 0)
	}
	return text, err
}

func (e *Engine) classify(err error) resilience.Class {
	if e.policy.Classify != nil {
		return e.policy.Classify(err)
	}
	return resilience.Classify(err)
}
