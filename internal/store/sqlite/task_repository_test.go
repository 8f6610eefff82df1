package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskcurve/taskcurve/internal/domain"
	"github.com/taskcurve/taskcurve/internal/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DefaultConfig(":memory:"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleTask(title string) *domain.Task {
	now := time.Now().UTC()
	return &domain.Task{
		Title:       title,
		Project:     "taskcurve",
		Tags:        []string{"urgent"},
		Status:      domain.StatusOpen,
		CurveConfig: domain.DefaultLinear(now),
		CreatedAt:   now,
	}
}

func TestTaskRepository_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task := sampleTask("write quarterly report")
	id, err := db.Tasks.Create(ctx, task)
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := db.Tasks.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "write quarterly report", got.Title)
	assert.Equal(t, "taskcurve", got.Project)
	assert.Equal(t, []string{"urgent"}, got.Tags)
	assert.Equal(t, domain.StatusOpen, got.Status)
	assert.Equal(t, domain.CurveLinear, got.CurveConfig.Variant)
}

func TestTaskRepository_GetMissingReturnsNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Tasks.Get(context.Background(), 999)
	require.Error(t, err)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindNotFound, kind)
}

func TestTaskRepository_UpdateRoundTrips(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task := sampleTask("draft proposal")
	_, err := db.Tasks.Create(ctx, task)
	require.NoError(t, err)

	task.Status = domain.StatusInProgress
	task.Tags = append(task.Tags, "writing")
	require.NoError(t, db.Tasks.Update(ctx, task))

	got, err := db.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)
	assert.ElementsMatch(t, []string{"urgent", "writing"}, got.Tags)
}

func TestTaskRepository_DeleteCascadesCompletions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task := sampleTask("recurring standup")
	_, err := db.Tasks.Create(ctx, task)
	require.NoError(t, err)

	_, err = db.Completions.Create(ctx, domain.NewCompletion(task.ID, time.Now(), nil))
	require.NoError(t, err)

	require.NoError(t, db.Tasks.Delete(ctx, task.ID))

	completions, err := db.Completions.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, completions)
}

func TestTaskRepository_ListFiltersByStatus(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	open := sampleTask("open task")
	_, err := db.Tasks.Create(ctx, open)
	require.NoError(t, err)

	done := sampleTask("done task")
	done.Status = domain.StatusCompleted
	_, err = db.Tasks.Create(ctx, done)
	require.NoError(t, err)

	status := domain.StatusOpen
	results, err := db.Tasks.List(ctx, domain.ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "open task", results[0].Title)
}

func TestBucketRepository_UniqueNameConflict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Buckets.Create(ctx, &domain.Bucket{Name: "Work", Type: domain.BucketProject})
	require.NoError(t, err)

	_, err = db.Buckets.Create(ctx, &domain.Bucket{Name: "Work", Type: domain.BucketProject})
	require.Error(t, err)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindConflict, kind)
}

func TestBucketRepository_DeleteClearsTaskBucketID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	bucketID, err := db.Buckets.Create(ctx, &domain.Bucket{Name: "Home", Type: domain.BucketContext})
	require.NoError(t, err)

	task := sampleTask("water plants")
	task.BucketID = &bucketID
	_, err = db.Tasks.Create(ctx, task)
	require.NoError(t, err)

	require.NoError(t, db.Buckets.ClearBucketID(ctx, bucketID))
	require.NoError(t, db.Buckets.Delete(ctx, bucketID))

	got, err := db.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BucketID)
}

func TestSearcher_MatchesTitleAndProject(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	t1 := sampleTask("renew passport")
	_, err := db.Tasks.Create(ctx, t1)
	require.NoError(t, err)

	t2 := sampleTask("buy groceries")
	_, err = db.Tasks.Create(ctx, t2)
	require.NoError(t, err)

	ids, err := db.Search.Search(ctx, "passport")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, t1.ID, ids[0])

	ids, err = db.Search.Search(ctx, "taskcurve")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{t1.ID, t2.ID}, ids)
}

func TestConfigRepository_SetAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	value, ok, err := db.Config.Get(ctx, "version")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1.0.0", value)

	require.NoError(t, db.Config.Set(ctx, "defaults", `{"curve_type":"linear"}`))
	value, ok, err = db.Config.Get(ctx, "defaults")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"curve_type":"linear"}`, value)
}

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithinTransaction(ctx, func(tx store.Stores) error {
		_, createErr := tx.Tasks.Create(ctx, sampleTask("should not persist"))
		require.NoError(t, createErr)
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := db.Tasks.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWithinTransaction_CommitsOnSuccess(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithinTransaction(ctx, func(tx store.Stores) error {
		_, createErr := tx.Tasks.Create(ctx, sampleTask("persists"))
		return createErr
	})
	require.NoError(t, err)

	all, err := db.Tasks.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "persists", all[0].Title)
}
