package importexport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskcurve/taskcurve/internal/domain"
	"github.com/taskcurve/taskcurve/internal/store/sqlite"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(sqlite.DefaultConfig(":memory:"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedSampleStore(t *testing.T, db *sqlite.DB) {
	t.Helper()
	ctx := context.Background()

	bucketID, err := db.Buckets.Create(ctx, &domain.Bucket{Name: "Work", Type: domain.BucketProject})
	require.NoError(t, err)

	base := &domain.Task{
		Title:       "base task",
		BucketID:    &bucketID,
		CurveConfig: domain.DefaultLinear(time.Now()),
		Status:      domain.StatusOpen,
	}
	_, err = db.Tasks.Create(ctx, base)
	require.NoError(t, err)

	dependent := &domain.Task{
		Title:        "dependent task",
		Dependencies: []int64{base.ID},
		CurveConfig:  domain.DefaultLinear(time.Now()),
		Status:       domain.StatusBlocked,
	}
	_, err = db.Tasks.Create(ctx, dependent)
	require.NoError(t, err)

	_, err = db.Completions.Create(ctx, domain.NewCompletion(base.ID, time.Now(), nil))
	require.NoError(t, err)
}

func TestExport_CapturesAllEntities(t *testing.T) {
	db := openTestDB(t)
	seedSampleStore(t, db)

	snap, err := Export(context.Background(), db)
	require.NoError(t, err)
	assert.Len(t, snap.Tasks, 2)
	assert.Len(t, snap.Buckets, 1)
	assert.Len(t, snap.Completions, 1)
}

func TestImport_ReplaceRoundTripsDependenciesAndBuckets(t *testing.T) {
	source := openTestDB(t)
	seedSampleStore(t, source)
	ctx := context.Background()

	snap, err := Export(ctx, source)
	require.NoError(t, err)

	target := openTestDB(t)
	result, err := Import(ctx, target, snap, ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, Counts{Imported: 2}, result.Tasks)
	assert.Equal(t, Counts{Imported: 1}, result.Buckets)
	assert.Equal(t, Counts{Imported: 1}, result.Completions)

	all, err := target.Tasks.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	var base, dependent *domain.Task
	for _, t := range all {
		switch t.Title {
		case "base task":
			base = t
		case "dependent task":
			dependent = t
		}
	}
	require.NotNil(t, base)
	require.NotNil(t, dependent)
	require.Len(t, dependent.Dependencies, 1)
	assert.Equal(t, base.ID, dependent.Dependencies[0])
	require.NotNil(t, base.BucketID)

	buckets, err := target.Buckets.List(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, *base.BucketID, buckets[0].ID)

	completions, err := target.Completions.ListByTask(ctx, base.ID)
	require.NoError(t, err)
	require.Len(t, completions, 1)
}

func TestImport_ReplaceWipesExistingData(t *testing.T) {
	target := openTestDB(t)
	ctx := context.Background()
	_, err := target.Tasks.Create(ctx, &domain.Task{Title: "stale task", CurveConfig: domain.DefaultLinear(time.Now())})
	require.NoError(t, err)

	snap := &Snapshot{Tasks: []*domain.Task{{ID: 1, Title: "fresh task", CurveConfig: domain.DefaultLinear(time.Now())}}}
	_, err = Import(ctx, target, snap, ModeReplace)
	require.NoError(t, err)

	all, err := target.Tasks.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "fresh task", all[0].Title)
}

func TestImport_MergePreservesExistingData(t *testing.T) {
	target := openTestDB(t)
	ctx := context.Background()
	_, err := target.Tasks.Create(ctx, &domain.Task{Title: "existing task", CurveConfig: domain.DefaultLinear(time.Now())})
	require.NoError(t, err)

	snap := &Snapshot{Tasks: []*domain.Task{{ID: 99, Title: "imported task", CurveConfig: domain.DefaultLinear(time.Now())}}}
	result, err := Import(ctx, target, snap, ModeMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Tasks.Imported)

	all, err := target.Tasks.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
