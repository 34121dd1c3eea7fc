package store

import (
	"context"
	"time"

	"github.com/sells-group/directory-cli/internal/model"
)

// UpsertOutcome reports what UpsertFacility did with a candidate.
type UpsertOutcome string

const (
	Inserted  UpsertOutcome = "inserted"
	Merged    UpsertOutcome = "merged"
	Unchanged UpsertOutcome = "unchanged"
)

// FacilityFilter specifies criteria for listing facilities.
type FacilityFilter struct {
	Region   string                   `json:"region,omitempty"`
	Statuses []model.EnrichmentStatus `json:"statuses,omitempty"`
	IDs      []string                 `json:"ids,omitempty"`
	Limit    int                      `json:"limit,omitempty"`
}

// Store defines the persistence interface for the listing pipeline.
type Store interface {
	// Facilities
	UpsertFacility(ctx context.Context, f *model.Facility) (UpsertOutcome, error)
	GetFacility(ctx context.Context, id string) (*model.Facility, error)
	GetFacilityByKey(ctx context.Context, dedupKey string) (*model.Facility, error)
	ListFacilities(ctx context.Context, filter FacilityFilter) ([]model.Facility, error)
	CountFacilities(ctx context.Context) (int, error)
	SetEnrichmentStatus(ctx context.Context, id string, status model.EnrichmentStatus) error
	AcceptDescription(ctx context.Context, id, description string) error
	UpdateRating(ctx context.Context, id string, rating *float64, reviewCount int) error
	RecentDescriptions(ctx context.Context, limit int) ([]string, error)

	// Ledger
	GetLedger(ctx context.Context, stage, key string) (*model.LedgerEntry, error)
	LedgerKeys(ctx context.Context, stage string, status model.LedgerStatus) (map[string]bool, error)
	PutLedger(ctx context.Context, entry model.LedgerEntry) error
	ResetLedger(ctx context.Context, stage string, keys ...string) error

	// Enrichment attempts
	GetAttempt(ctx context.Context, facilityID string) (*model.EnrichmentAttempt, error)
	ListAttempts(ctx context.Context) (map[string]model.EnrichmentAttempt, error)
	RecordAttempt(ctx context.Context, a model.EnrichmentAttempt, status model.EnrichmentStatus) error

	// Slug assignments
	SlugAssignments(ctx context.Context) (map[string]string, error)
	AssignSlugs(ctx context.Context, assignments map[string]string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func now() time.Time {
	return time.Now().UTC()
}
