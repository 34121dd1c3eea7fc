package discovery

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/directory-cli/internal/geo"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/resilience"
	"github.com/sells-group/directory-cli/internal/store"
)

// Config tunes the discovery engine.
type Config struct {
	Workers         int
	MaxPagesPerCell int
	RequestTimeout  time.Duration
}

// RunOptions selects which cells a run processes.
type RunOptions struct {
	// Region restricts the run to one two-letter state. Empty means all.
	Region string
	// Limit caps the number of cells scheduled. Zero means no cap.
	Limit int
	// Resume skips cells the ledger marks done. Without it the ledger
	// entries of the cells in scope are cleared first.
	Resume bool
}

// Engine runs discovery over a set of geo cells with a bounded worker pool.
type Engine struct {
	store      Store
	provider   SearchProvider
	limiter    *rate.Limiter
	policy     resilience.Policy
	normalizer *Normalizer
	cfg        Config
}

// NewEngine creates an Engine. The limiter is shared by every worker, so the
// provider sees at most its rate no matter how many cells run at once.
func NewEngine(st Store, provider SearchProvider, limiter *rate.Limiter, policy resilience.Policy, normalizer *Normalizer, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxPagesPerCell <= 0 {
		cfg.MaxPagesPerCell = 3
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if normalizer == nil {
		normalizer = &Normalizer{}
	}
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger(model.StageDiscovery, "search")
	}
	return &Engine{
		store:      st,
		provider:   provider,
		limiter:    limiter,
		policy:     policy,
		normalizer: normalizer,
		cfg:        cfg,
	}
}

type counters struct {
	processed, skipped, failed atomic.Int64
	inserted, merged, dropped  atomic.Int64
}

// Run processes cells and returns the stage counters. A failed cell is
// recorded in the ledger and does not stop the run; only context
// cancellation or a ledger read failure returns an error.
func (e *Engine) Run(ctx context.Context, cells []model.GeoCell, opts RunOptions) (model.StageResult, error) {
	start := time.Now()
	log := zap.L().With(zap.String("stage", model.StageDiscovery))
	result := model.StageResult{Stage: model.StageDiscovery}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	cells = geo.Filter(cells, opts.Region)

	done := map[string]bool{}
	if opts.Resume {
		var err error
		done, err = e.store.LedgerKeys(ctx, model.StageDiscovery, model.LedgerDone)
		if err != nil {
			return result, resilience.NewStructuralError(eris.Wrap(err, "discovery: read ledger"))
		}
	} else if err := e.resetLedger(ctx, cells, opts.Region); err != nil {
		return result, eris.Wrap(err, "discovery: reset ledger")
	}

	var c counters
	var scheduled []model.GeoCell
	for _, cell := range cells {
		if done[cell.Key()] {
			c.skipped.Add(1)
			continue
		}
		if opts.Limit > 0 && len(scheduled) >= opts.Limit {
			break
		}
		scheduled = append(scheduled, cell)
	}

	log.Info("starting discovery",
		zap.Int("cells", len(cells)),
		zap.Int("scheduled", len(scheduled)),
		zap.Int64("skipped", c.skipped.Load()),
		zap.Int("workers", e.cfg.Workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, cell := range scheduled {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return e.processCell(gctx, cell, &c)
		})
	}
	err := g.Wait()

	result.Processed = int(c.processed.Load())
	result.Skipped = int(c.skipped.Load())
	result.Failed = int(c.failed.Load())
	result.Inserted = int(c.inserted.Load())
	result.Merged = int(c.merged.Load())
	result.Dropped = int(c.dropped.Load())
	result.Duration = time.Since(start)

	log.Info("discovery complete",
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("inserted", result.Inserted),
		zap.Int("merged", result.Merged),
		zap.Int("dropped", result.Dropped),
		zap.Duration("duration", result.Duration),
	)

	if err != nil {
		return result, err
	}
	return result, ctx.Err()
}

// processCell searches every page of one cell and upserts its listings. The
// cell is marked done only after the last page is committed.
func (e *Engine) processCell(ctx context.Context, cell model.GeoCell, c *counters) error {
	log := zap.L().With(
		zap.String("stage", model.StageDiscovery),
		zap.String("cell", cell.Key()),
		zap.String("query", cell.Query()),
	)

	var (
		pageToken string
		attempts  int
	)
	for page := 0; page < e.cfg.MaxPagesPerCell; page++ {
		resp, n, err := resilience.DoVal(ctx, e.policy, func(ctx context.Context) (*Page, error) {
			return e.search(ctx, cell, pageToken)
		})
		attempts += n
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return e.failCell(ctx, cell, attempts, err, c, log)
		}

		for _, l := range resp.Listings {
			f, err := e.normalizer.Normalize(l, cell)
			if err != nil {
				c.dropped.Add(1)
				log.Debug("dropped listing", zap.Error(err))
				continue
			}
			outcome, err := e.store.UpsertFacility(ctx, f)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return e.failCell(ctx, cell, attempts, eris.Wrap(err, "discovery: upsert"), c, log)
			}
			switch outcome {
			case store.Inserted:
				c.inserted.Add(1)
			case store.Merged:
				c.merged.Add(1)
			}
		}

		if resp.NextToken == "" {
			break
		}
		pageToken = resp.NextToken
	}

	if err := e.store.PutLedger(ctx, model.LedgerEntry{
		Stage:    model.StageDiscovery,
		Key:      cell.Key(),
		Status:   model.LedgerDone,
		Attempts: attempts,
	}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("ledger write failed", zap.Error(err))
		c.failed.Add(1)
		return nil
	}
	c.processed.Add(1)
	return nil
}

// search waits on the shared limiter, then issues one provider call under
// the per-call timeout.
func (e *Engine) search(ctx context.Context, cell model.GeoCell, pageToken string) (*Page, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "discovery: rate limit wait")
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	page, err := e.provider.Search(callCtx, cell.Query(), cell.Region, pageToken)
	if err != nil {
		// A per-call timeout is transient; parent cancellation is not.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, resilience.NewTransientError(err, 0)
		}
		// Any other provider failure backs off and retries until the
		// policy's attempt cap.
		if ctx.Err() == nil && resilience.Classify(err) == resilience.ClassPermanent {
			return nil, resilience.NewTransientError(err, 0)
		}
		return nil, err
	}
	if page == nil {
		page = &Page{}
	}
	return page, nil
}

func (e *Engine) failCell(ctx context.Context, cell model.GeoCell, attempts int, cause error, c *counters, log *zap.Logger) error {
	c.failed.Add(1)
	c.processed.Add(1)
	log.Warn("cell failed",
		zap.Int("attempts", attempts),
		zap.String("class", resilience.Classify(cause).String()),
		zap.Error(cause),
	)
	if err := e.store.PutLedger(ctx, model.LedgerEntry{
		Stage:     model.StageDiscovery,
		Key:       cell.Key(),
		Status:    model.LedgerFailed,
		Attempts:  attempts,
		LastError: cause.Error(),
	}); err != nil {
		log.Error("ledger write failed", zap.Error(err))
	}
	return nil
}

// resetLedger clears the ledger entries a run owns. A region-scoped run
// leaves other regions' entries in place.
func (e *Engine) resetLedger(ctx context.Context, cells []model.GeoCell, region string) error {
	if region == "" {
		return e.store.ResetLedger(ctx, model.StageDiscovery)
	}
	if len(cells) == 0 {
		return nil
	}
	keys := make([]string, len(cells))
	for i, c := range cells {
		keys[i] = c.Key()
	}
	return e.store.ResetLedger(ctx, model.StageDiscovery, keys...)
}
