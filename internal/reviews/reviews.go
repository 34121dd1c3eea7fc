// Package reviews loads facility ratings from the static review file and the
// web tier's live review table and folds them into one aggregate per slug.
package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/db"
)

// Review sources.
const (
	SourceStatic = "static"
	SourceLive   = "live"
)

// Review is one rating attached to a facility slug.
type Review struct {
	Slug   string  `json:"slug"`
	Rating float64 `json:"rating"`
	Source string  `json:"source,omitempty"`
}

// Valid reports whether the rating is on the 1 to 5 scale and has a slug.
func (r Review) Valid() bool {
	return r.Slug != "" && r.Rating >= 1 && r.Rating <= 5
}

// Source yields reviews from one origin.
type Source interface {
	Reviews(ctx context.Context) ([]Review, error)
}

// StaticSource reads pipeline-external reviews from a JSON array file. A
// missing file yields no reviews.
type StaticSource struct {
	Path string
}

// Reviews implements Source.
func (s StaticSource) Reviews(_ context.Context) ([]Review, error) {
	if s.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Debug("reviews: static file not found", zap.String("path", s.Path))
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "reviews: read %s", s.Path)
	}

	var raw []Review
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "reviews: parse %s", s.Path)
	}
	out := make([]Review, 0, len(raw))
	for _, r := range raw {
		r.Source = SourceStatic
		if !r.Valid() {
			zap.L().Warn("reviews: dropping invalid static review",
				zap.String("slug", r.Slug),
				zap.Float64("rating", r.Rating),
			)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

const liveReviewsQuery = `SELECT facility_slug, rating FROM reviews WHERE status = 'approved' ORDER BY facility_slug, id`

// PostgresSource reads approved user reviews from the web tier's database.
type PostgresSource struct {
	pool db.Pool
}

// NewPostgresSource creates a Source backed by pool.
func NewPostgresSource(pool db.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Reviews implements Source.
func (s *PostgresSource) Reviews(ctx context.Context) ([]Review, error) {
	rows, err := s.pool.Query(ctx, liveReviewsQuery)
	if err != nil {
		return nil, eris.Wrap(err, "reviews: query live reviews")
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		r := Review{Source: SourceLive}
		var rating int16
		if err := rows.Scan(&r.Slug, &rating); err != nil {
			return nil, eris.Wrap(err, "reviews: scan live review")
		}
		r.Rating = float64(rating)
		if !r.Valid() {
			continue
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "reviews: iterate live reviews")
	}
	return out, nil
}

// Rating is the aggregate for one slug. Average is nil when Count is zero.
type Rating struct {
	Average *float64
	Count   int
}

// Aggregate returns the unweighted arithmetic mean of ratings, or nil when
// there are none.
func Aggregate(ratings []float64) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	avg := sum / float64(len(ratings))
	return &avg
}

// Collect reads every source and aggregates ratings per slug across all of
// them. Any source error aborts the collection.
func Collect(ctx context.Context, sources ...Source) (map[string]Rating, error) {
	bySlug := make(map[string][]float64)
	for _, src := range sources {
		if src == nil {
			continue
		}
		revs, err := src.Reviews(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range revs {
			bySlug[r.Slug] = append(bySlug[r.Slug], r.Rating)
		}
	}

	out := make(map[string]Rating, len(bySlug))
	for slug, ratings := range bySlug {
		out[slug] = Rating{Average: Aggregate(ratings), Count: len(ratings)}
	}
	return out, nil
}
