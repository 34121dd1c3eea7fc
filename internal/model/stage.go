package model

import "time"

// StageResult holds the per-stage counters returned by every pipeline stage.
type StageResult struct {
	Stage     string        `json:"stage"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Inserted  int           `json:"inserted,omitempty"`
	Merged    int           `json:"merged,omitempty"`
	Dropped   int           `json:"dropped,omitempty"`
	Accepted  int           `json:"accepted,omitempty"`
	Emitted   int           `json:"emitted,omitempty"`
	Duration  time.Duration `json:"duration"`
}
