// Package quality scans the canonical store for suspect facility records and
// ranks every record as clean or flagged. It never writes to the store.
package quality

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/normalize"
	"github.com/sells-group/directory-cli/internal/store"
)

// DefaultMinNameLength is used when Options.MinNameLength is not positive.
const DefaultMinNameLength = 4

// Options configures the analyzer.
type Options struct {
	// GenericNames are compared after folding, as exact matches only.
	GenericNames  []string
	MinNameLength int
	// Region limits the scan to one state. Empty scans everything.
	Region string
}

// Reader is the read-only slice of the store the analyzer needs.
type Reader interface {
	ListFacilities(ctx context.Context, filter store.FacilityFilter) ([]model.Facility, error)
}

// Run reads the store and analyzes every facility in it.
func Run(ctx context.Context, r Reader, opts Options) (*model.QualityReport, model.StageResult, error) {
	start := time.Now()
	result := model.StageResult{Stage: model.StageQuality}

	facilities, err := r.ListFacilities(ctx, store.FacilityFilter{Region: opts.Region})
	if err != nil {
		return nil, result, eris.Wrap(err, "quality: list facilities")
	}

	report := Analyze(facilities, opts)
	result.Processed = report.Total
	result.Failed = len(report.Flagged)
	result.Duration = time.Since(start)

	zap.L().Info("quality analysis complete",
		zap.String("stage", model.StageQuality),
		zap.Int("total", report.Total),
		zap.Int("generic_names", len(report.GenericNames)),
		zap.Int("short_names", len(report.ShortNames)),
		zap.Int("duplicate_groups", len(report.DuplicateGroups)),
		zap.Int("flagged", len(report.Flagged)),
		zap.Int("clean", len(report.Clean)),
	)
	if len(report.DuplicateGroups) > 0 {
		zap.L().Error("duplicate dedup keys in canonical store",
			zap.Int("groups", len(report.DuplicateGroups)),
		)
	}
	return report, result, nil
}

// Analyze builds a report over facilities. The output depends only on the
// input set, not its order.
func Analyze(facilities []model.Facility, opts Options) *model.QualityReport {
	minLen := opts.MinNameLength
	if minLen <= 0 {
		minLen = DefaultMinNameLength
	}
	generic := make(map[string]bool, len(opts.GenericNames))
	for _, g := range opts.GenericNames {
		if f := normalize.Fold(g); f != "" {
			generic[f] = true
		}
	}

	report := &model.QualityReport{
		GeneratedAt:     time.Now().UTC(),
		Total:           len(facilities),
		GenericNames:    []string{},
		ShortNames:      []string{},
		DuplicateGroups: []model.DuplicateGroup{},
		Clean:           []string{},
		Flagged:         []string{},
	}

	issues := make(map[string]int, len(facilities))
	byKey := make(map[string][]string)

	for i := range facilities {
		f := &facilities[i]
		if generic[normalize.Fold(f.Name)] {
			report.GenericNames = append(report.GenericNames, f.ID)
			issues[f.ID]++
		}
		if utf8.RuneCountInString(f.Name) < minLen {
			report.ShortNames = append(report.ShortNames, f.ID)
			issues[f.ID]++
		}
		if f.Phone == "" {
			report.Missing.Phone++
		}
		if f.Address == "" {
			report.Missing.Address++
		}
		if f.Website == "" {
			report.Missing.Website++
		}
		key := normalize.DedupKey(f.Name, f.City, f.Region)
		byKey[key] = append(byKey[key], f.ID)
	}

	for key, ids := range byKey {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		report.DuplicateGroups = append(report.DuplicateGroups, model.DuplicateGroup{DedupKey: key, IDs: ids})
		for _, id := range ids {
			issues[id]++
		}
	}
	sort.Slice(report.DuplicateGroups, func(i, j int) bool {
		return report.DuplicateGroups[i].DedupKey < report.DuplicateGroups[j].DedupKey
	})
	sort.Strings(report.GenericNames)
	sort.Strings(report.ShortNames)

	completeness := make(map[string]int, len(facilities))
	for i := range facilities {
		f := &facilities[i]
		if issues[f.ID] > 0 {
			report.Flagged = append(report.Flagged, f.ID)
			continue
		}
		report.Clean = append(report.Clean, f.ID)
		completeness[f.ID] = Completeness(f)
	}

	sort.Slice(report.Flagged, func(i, j int) bool {
		a, b := report.Flagged[i], report.Flagged[j]
		if issues[a] != issues[b] {
			return issues[a] > issues[b]
		}
		return a < b
	})
	sort.Slice(report.Clean, func(i, j int) bool {
		a, b := report.Clean[i], report.Clean[j]
		if completeness[a] != completeness[b] {
			return completeness[a] > completeness[b]
		}
		return a < b
	})
	return report
}

// Completeness counts the optional fields a facility has filled in.
func Completeness(f *model.Facility) int {
	n := 0
	for _, ok := range []bool{
		f.Address != "",
		f.Phone != "",
		f.Website != "",
		f.SubRegion != "",
		f.HasCoordinates(),
		len(f.ServiceTypes) > 0,
		len(f.PaymentMethods) > 0,
		len(f.Certifications) > 0,
		f.Description != nil && *f.Description != "",
	} {
		if ok {
			n++
		}
	}
	return n
}

// WriteReport writes the report as indented JSON. The file is replaced
// atomically.
func WriteReport(path string, report *model.QualityReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return eris.Wrap(err, "quality: marshal report")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "quality: create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".quality-*.json")
	if err != nil {
		return eris.Wrap(err, "quality: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "quality: write report")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "quality: close report")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "quality: rename to %s", path)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*model.QualityReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "quality: read %s", path)
	}
	var r model.QualityReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "quality: parse %s", path)
	}
	return &r, nil
}
