package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/model"
)

// DryRunStore wraps a Store and discards every write. Reads pass through, so
// a dry run sees the real canonical state while leaving it untouched.
type DryRunStore struct {
	Store

	mu   sync.Mutex
	seen map[string]string // dedup key -> provisional ID
}

// DryRun returns a write-discarding decorator around s.
func DryRun(s Store) *DryRunStore {
	return &DryRunStore{Store: s, seen: make(map[string]string)}
}

// UpsertFacility reports what the real store would do without writing.
func (d *DryRunStore) UpsertFacility(ctx context.Context, f *model.Facility) (UpsertOutcome, error) {
	existing, err := d.Store.GetFacilityByKey(ctx, f.DedupKey)
	if err != nil {
		return "", err
	}
	if existing != nil {
		f.ID = existing.ID
		if existing.MergeFrom(f) {
			return Merged, nil
		}
		return Unchanged, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.seen[f.DedupKey]; ok {
		f.ID = id
		return Merged, nil
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	d.seen[f.DedupKey] = f.ID
	zap.L().Debug("dry run: discarding insert", zap.String("dedup_key", f.DedupKey))
	return Inserted, nil
}

func (d *DryRunStore) SetEnrichmentStatus(context.Context, string, model.EnrichmentStatus) error {
	return nil
}

func (d *DryRunStore) AcceptDescription(context.Context, string, string) error { return nil }

func (d *DryRunStore) UpdateRating(context.Context, string, *float64, int) error { return nil }

func (d *DryRunStore) PutLedger(context.Context, model.LedgerEntry) error { return nil }

func (d *DryRunStore) ResetLedger(context.Context, string, ...string) error { return nil }

func (d *DryRunStore) RecordAttempt(context.Context, model.EnrichmentAttempt, model.EnrichmentStatus) error {
	return nil
}

func (d *DryRunStore) AssignSlugs(context.Context, map[string]string) error { return nil }

// Migrate is a no-op; a dry run never alters the schema.
func (d *DryRunStore) Migrate(context.Context) error { return nil }
