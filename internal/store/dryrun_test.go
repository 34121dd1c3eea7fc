package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-cli/internal/model"
)

func TestDryRun_DiscardsWrites(t *testing.T) {
	base := newTestSQLiteStore(t)
	ctx := context.Background()

	existing := testFacility("suds city", "austin", "TX")
	_, err := base.UpsertFacility(ctx, existing)
	require.NoError(t, err)

	dry := DryRun(base)

	out, err := dry.UpsertFacility(ctx, testFacility("new wash", "austin", "TX"))
	require.NoError(t, err)
	assert.Equal(t, Inserted, out)

	out, err = dry.UpsertFacility(ctx, testFacility("new wash", "austin", "TX"))
	require.NoError(t, err)
	assert.Equal(t, Merged, out)

	merge := testFacility("suds city", "austin", "TX")
	merge.Website = "https://suds.example"
	out, err = dry.UpsertFacility(ctx, merge)
	require.NoError(t, err)
	assert.Equal(t, Merged, out)
	assert.Equal(t, existing.ID, merge.ID)

	require.NoError(t, dry.AcceptDescription(ctx, existing.ID, "copy"))
	require.NoError(t, dry.RecordAttempt(ctx, model.EnrichmentAttempt{FacilityID: existing.ID}, model.EnrichmentFailed))
	require.NoError(t, dry.PutLedger(ctx, model.LedgerEntry{Stage: model.StageDiscovery, Key: "cell:000000", Status: model.LedgerDone}))
	require.NoError(t, dry.AssignSlugs(ctx, map[string]string{existing.DedupKey: "suds-city-austin"}))
	require.NoError(t, dry.ResetLedger(ctx, model.StageDiscovery))
	require.NoError(t, dry.UpdateRating(ctx, existing.ID, ptr(5.0), 1))
	require.NoError(t, dry.SetEnrichmentStatus(ctx, existing.ID, model.EnrichmentPending))

	n, err := base.CountFacilities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := dry.GetFacility(ctx, existing.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Website)
	assert.Nil(t, got.Description)
	assert.Nil(t, got.Rating)
	assert.Equal(t, model.EnrichmentMissing, got.EnrichmentStatus)

	slugs, err := base.SlugAssignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, slugs)

	e, err := base.GetLedger(ctx, model.StageDiscovery, "cell:000000")
	require.NoError(t, err)
	assert.Nil(t, e)
}
