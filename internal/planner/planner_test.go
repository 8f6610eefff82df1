package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskcurve/taskcurve/internal/domain"
)

func hardWindowTask(id int64, priority float64, estimate *int) *domain.Task {
	return &domain.Task{
		ID:              id,
		Status:          domain.StatusOpen,
		EstimateMinutes: estimate,
		CurveConfig: domain.CurveConfig{
			Variant: domain.CurveHardWindow,
			HardWindow: &domain.HardWindowParams{
				WindowStart: time.Unix(0, 0),
				WindowEnd:   time.Unix(0, 0).Add(100 * 365 * 24 * time.Hour),
				Priority:    priority,
			},
		},
	}
}

func minutes(n int) *int { return &n }

func TestBuild_PacksInPriorityOrder(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	tasks := []*domain.Task{
		hardWindowTask(1, 0.5, minutes(60)),
		hardWindowTask(2, 0.9, minutes(60)),
	}

	plan, err := Build(tasks, date, Options{IncludeTimeBlocks: true, WorkHoursStart: "09:00", WorkHoursEnd: "11:00"}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Scheduled, 2)
	assert.Equal(t, int64(2), plan.Scheduled[0].Task.ID)
	assert.Equal(t, int64(1), plan.Scheduled[1].Task.ID)
	assert.Equal(t, 120, plan.TotalScheduledMinutes)
	assert.Equal(t, 0, plan.RemainingMinutes)
}

func TestBuild_InsufficientTimeGoesUnscheduled(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	tasks := []*domain.Task{
		hardWindowTask(1, 0.9, minutes(90)),
		hardWindowTask(2, 0.5, minutes(60)),
	}

	plan, err := Build(tasks, date, Options{IncludeTimeBlocks: true, WorkHoursStart: "09:00", WorkHoursEnd: "10:00"}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Unscheduled, 1)
	assert.Equal(t, int64(1), plan.Unscheduled[0].Task.ID)
	assert.Equal(t, "insufficient time", plan.Unscheduled[0].Reason)
}

func TestBuild_DefaultEstimateFlagged(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	tasks := []*domain.Task{hardWindowTask(1, 0.9, nil)}

	plan, err := Build(tasks, date, Options{IncludeTimeBlocks: true, WorkHoursStart: "09:00", WorkHoursEnd: "17:00"}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Scheduled, 1)
	assert.True(t, plan.Scheduled[0].IsDefaultEstimate)
	assert.Equal(t, 30, plan.Scheduled[0].EstimateMinutes)
}

func TestBuild_ExcludesCompletedAndBlocked(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	completed := hardWindowTask(1, 0.9, minutes(30))
	completed.Status = domain.StatusCompleted
	blocked := hardWindowTask(2, 0.9, minutes(30))
	blocked.Status = domain.StatusBlocked
	blocked.Dependencies = []int64{99}
	open := hardWindowTask(3, 0.9, minutes(30))

	plan, err := Build([]*domain.Task{completed, blocked, open}, date, Options{IncludeTimeBlocks: true}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Scheduled, 1)
	assert.Equal(t, int64(3), plan.Scheduled[0].Task.ID)
}

func TestBuild_WindowRestrictsPlacement(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	task := hardWindowTask(1, 0.9, minutes(30))
	task.WindowStart = "14:00"
	task.WindowEnd = "15:00"

	plan, err := Build([]*domain.Task{task}, date, Options{IncludeTimeBlocks: true, WorkHoursStart: "09:00", WorkHoursEnd: "17:00"}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Scheduled, 1)
	assert.Equal(t, 14, plan.Scheduled[0].Slot.Start.Hour())
}
