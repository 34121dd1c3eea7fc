package reviews

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	assert.Nil(t, Aggregate(nil))

	avg := Aggregate([]float64{5, 4, 3})
	require.NotNil(t, avg)
	assert.InDelta(t, 4.0, *avg, 1e-9)
}

func writeStatic(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reviews.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestStaticSource(t *testing.T) {
	path := writeStatic(t, `[
		{"slug": "suds-city-austin", "rating": 5},
		{"slug": "suds-city-austin", "rating": 4},
		{"slug": "spin-dallas", "rating": 9},
		{"slug": "", "rating": 3}
	]`)

	revs, err := StaticSource{Path: path}.Reviews(context.Background())
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, SourceStatic, revs[0].Source)
	assert.InDelta(t, 4.0, revs[1].Rating, 1e-9)
}

func TestStaticSource_Missing(t *testing.T) {
	revs, err := StaticSource{Path: filepath.Join(t.TempDir(), "none.json")}.Reviews(context.Background())
	require.NoError(t, err)
	assert.Empty(t, revs)

	revs, err = StaticSource{}.Reviews(context.Background())
	require.NoError(t, err)
	assert.Empty(t, revs)
}

func TestStaticSource_BadJSON(t *testing.T) {
	_, err := StaticSource{Path: writeStatic(t, `{not json`)}.Reviews(context.Background())
	assert.ErrorContains(t, err, "reviews: parse")
}

func TestPostgresSource(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT facility_slug, rating FROM reviews").
		WillReturnRows(pgxmock.NewRows([]string{"facility_slug", "rating"}).
			AddRow("suds-city-austin", int16(3)).
			AddRow("spin-dallas", int16(0)))

	revs, err := NewPostgresSource(mock).Reviews(context.Background())
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, Review{Slug: "suds-city-austin", Rating: 3, Source: SourceLive}, revs[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT facility_slug").WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresSource(mock).Reviews(context.Background())
	assert.ErrorContains(t, err, "reviews: query live reviews")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollect_StaticPlusLive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT facility_slug").
		WillReturnRows(pgxmock.NewRows([]string{"facility_slug", "rating"}).
			AddRow("suds-city-austin", int16(3)))

	static := StaticSource{Path: writeStatic(t, `[
		{"slug": "suds-city-austin", "rating": 5},
		{"slug": "suds-city-austin", "rating": 4}
	]`)}

	got, err := Collect(context.Background(), static, NewPostgresSource(mock), nil)
	require.NoError(t, err)

	r, ok := got["suds-city-austin"]
	require.True(t, ok)
	require.NotNil(t, r.Average)
	assert.InDelta(t, 4.0, *r.Average, 1e-9)
	assert.Equal(t, 3, r.Count)

	_, ok = got["no-reviews"]
	assert.False(t, ok)
}

type failingSource struct{}

func (failingSource) Reviews(context.Context) ([]Review, error) {
	return nil, errors.New("boom")
}

func TestCollect_SourceError(t *testing.T) {
	_, err := Collect(context.Background(), failingSource{})
	assert.Error(t, err)
}
