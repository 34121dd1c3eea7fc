// Package enrich generates long-form facility descriptions with a generative
// text provider, validates them against a quality gate, and persists each
// attempt so a resumed run picks up per record.
package enrich

import (
	"context"

	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/store"
)

// Request is one generation call.
type Request struct {
	System string
	Prompt string
}

// Generator produces a description for a prompt. Implementations return a
// resilience.TransientError for failures worth retrying.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Store is the subset of the canonical store enrichment reads and writes.
type Store interface {
	ListFacilities(ctx context.Context, filter store.FacilityFilter) ([]model.Facility, error)
	ListAttempts(ctx context.Context) (map[string]model.EnrichmentAttempt, error)
	RecordAttempt(ctx context.Context, a model.EnrichmentAttempt, status model.EnrichmentStatus) error
	AcceptDescription(ctx context.Context, id, description string) error
	RecentDescriptions(ctx context.Context, limit int) ([]string, error)
}
