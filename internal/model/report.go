package model

import "time"

// MissingCounts tallies records lacking contact fields.
type MissingCounts struct {
	Phone   int `json:"phone"`
	Address int `json:"address"`
	Website int `json:"website"`
}

// DuplicateGroup lists facilities whose recomputed dedup keys collide.
type DuplicateGroup struct {
	DedupKey string   `json:"dedup_key"`
	IDs      []string `json:"ids"`
}

// QualityReport is the ephemeral output of the quality analyzer.
type QualityReport struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	Total           int              `json:"total"`
	GenericNames    []string         `json:"generic_names"`
	ShortNames      []string         `json:"short_names"`
	Missing         MissingCounts    `json:"missing"`
	DuplicateGroups []DuplicateGroup `json:"duplicate_groups"`
	Clean           []string         `json:"clean"`
	Flagged         []string         `json:"flagged"`
}

// FlaggedSet returns the flagged IDs as a set.
func (r *QualityReport) FlaggedSet() map[string]bool {
	set := make(map[string]bool, len(r.Flagged))
	for _, id := range r.Flagged {
		set[id] = true
	}
	return set
}
