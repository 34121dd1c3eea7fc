package model

import (
	"fmt"
	"time"
)

// GeoCell is one (region, settlement, keyword) search unit.
type GeoCell struct {
	Index       int    `json:"index"`
	Region      string `json:"region"`
	RegionName  string `json:"region_name"`
	Settlement  string `json:"settlement"`
	County      string `json:"county,omitempty"`
	Keyword     string `json:"keyword"`
	ServiceType string `json:"service_type"`
}

// Key is the ledger key for the cell. Cells are resumed by enumeration index.
func (c GeoCell) Key() string {
	return fmt.Sprintf("cell:%06d", c.Index)
}

// Query renders the provider search string, e.g. "laundromat in Austin, TX".
func (c GeoCell) Query() string {
	return fmt.Sprintf("%s in %s, %s", c.Keyword, c.Settlement, c.Region)
}

// LedgerStatus is the terminal state of a ledger entry.
type LedgerStatus string

const (
	LedgerDone    LedgerStatus = "done"
	LedgerFailed  LedgerStatus = "failed"
	LedgerSkipped LedgerStatus = "skipped"
)

// Ledger stage names.
const (
	StageDiscovery  = "discovery"
	StageQuality    = "quality"
	StageEnrichment = "enrichment"
	StageBuild      = "build"
)

// LedgerEntry is one overwrite-by-key row of pipeline progress.
type LedgerEntry struct {
	Stage     string       `json:"stage"`
	Key       string       `json:"key"`
	Status    LedgerStatus `json:"status"`
	Attempts  int          `json:"attempts"`
	LastError string       `json:"last_error,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// EnrichmentAttempt is the persisted retry state for one facility.
type EnrichmentAttempt struct {
	FacilityID         string    `json:"facility_id"`
	TransientAttempts  int       `json:"transient_attempts"`
	ValidationAttempts int       `json:"validation_attempts"`
	LastError          string    `json:"last_error,omitempty"`
	LastAttemptAt      time.Time `json:"last_attempt_at"`
}

// Total returns the number of attempts across both budgets.
func (a EnrichmentAttempt) Total() int {
	return a.TransientAttempts + a.ValidationAttempts
}
