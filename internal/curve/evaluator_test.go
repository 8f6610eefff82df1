package curve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskcurve/taskcurve/internal/domain"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return parsed
}

func TestPriority_LinearMidpoint(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	deadline := mustTime(t, "2025-01-10T00:00:00Z")
	at := mustTime(t, "2025-01-05T12:00:00Z")

	task := &domain.Task{
		Status: domain.StatusOpen,
		CurveConfig: domain.CurveConfig{
			Variant: domain.CurveLinear,
			Linear:  &domain.LinearParams{StartDate: start, Deadline: deadline},
		},
	}

	got := Priority(task, at, nil)
	assert.InDelta(t, 0.5, got, 0.01)
}

func TestPriority_LinearBeforeStart(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	deadline := mustTime(t, "2025-01-10T00:00:00Z")
	at := mustTime(t, "2024-12-31T00:00:00Z")

	task := &domain.Task{CurveConfig: domain.CurveConfig{
		Variant: domain.CurveLinear,
		Linear:  &domain.LinearParams{StartDate: start, Deadline: deadline},
	}}

	assert.Equal(t, 0.0, Priority(task, at, nil))
}

func TestPriority_LinearOverdueTail(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	deadline := mustTime(t, "2025-01-10T00:00:00Z") // 9 day span
	at := mustTime(t, "2025-01-19T00:00:00Z")        // 9 days past deadline == 1 full span overdue

	task := &domain.Task{CurveConfig: domain.CurveConfig{
		Variant: domain.CurveLinear,
		Linear:  &domain.LinearParams{StartDate: start, Deadline: deadline},
	}}

	assert.InDelta(t, 2.0, Priority(task, at, nil), 0.01)
}

func TestPriority_ExponentialInRange(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	deadline := mustTime(t, "2025-01-11T00:00:00Z")
	at := mustTime(t, "2025-01-06T00:00:00Z") // ratio 0.5

	task := &domain.Task{CurveConfig: domain.CurveConfig{
		Variant: domain.CurveExponential,
		Exponential: &domain.ExponentialParams{
			LinearParams: domain.LinearParams{StartDate: start, Deadline: deadline},
			Exponent:     2.0,
		},
	}}

	assert.InDelta(t, 0.25, Priority(task, at, nil), 0.01)
}

func TestPriority_HardWindow(t *testing.T) {
	ws := mustTime(t, "2025-01-01T09:00:00Z")
	we := mustTime(t, "2025-01-01T17:00:00Z")
	task := &domain.Task{CurveConfig: domain.CurveConfig{
		Variant:    domain.CurveHardWindow,
		HardWindow: &domain.HardWindowParams{WindowStart: ws, WindowEnd: we, Priority: 1.5},
	}}

	assert.Equal(t, 1.5, Priority(task, mustTime(t, "2025-01-01T12:00:00Z"), nil))
	assert.Equal(t, 0.0, Priority(task, mustTime(t, "2025-01-01T18:00:00Z"), nil))
}

// A blocked task has zero priority until its dependency completes.
func TestPriority_BlockGate(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	deadline := mustTime(t, "2025-01-10T00:00:00Z")
	wrapped := domain.CurveConfig{Variant: domain.CurveLinear, Linear: &domain.LinearParams{StartDate: start, Deadline: deadline}}
	task := &domain.Task{
		Dependencies: []int64{42},
		CurveConfig:  domain.CurveConfig{Variant: domain.CurveBlocked, Blocked: &domain.BlockedParams{ThenCurve: &wrapped}},
	}

	at := mustTime(t, "2025-01-05T12:00:00Z")
	open := func(int64) domain.Status { return domain.StatusOpen }
	assert.Equal(t, 0.0, Priority(task, at, open))

	completed := func(int64) domain.Status { return domain.StatusCompleted }
	assert.Greater(t, Priority(task, at, completed), 0.0)
}

func TestPriority_WindowGate(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	deadline := mustTime(t, "2025-06-01T00:00:00Z")
	task := &domain.Task{
		WindowStart: "18:00",
		WindowEnd:   "22:00",
		CurveConfig: domain.CurveConfig{Variant: domain.CurveLinear, Linear: &domain.LinearParams{StartDate: start, Deadline: deadline}},
	}

	morning := time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)
	evening := time.Date(2025, 3, 1, 20, 0, 0, 0, time.Local)
	assert.Equal(t, 0.0, Priority(task, morning, nil))
	assert.Greater(t, Priority(task, evening, nil), 0.0)
}

func TestInWindow_MidnightCrossing(t *testing.T) {
	// Window 22:00 -> 02:00 spans midnight.
	before := time.Date(2025, 3, 1, 21, 0, 0, 0, time.Local)
	late := time.Date(2025, 3, 1, 23, 0, 0, 0, time.Local)
	early := time.Date(2025, 3, 2, 1, 0, 0, 0, time.Local)
	after := time.Date(2025, 3, 2, 3, 0, 0, 0, time.Local)

	assert.False(t, inWindow("22:00", "02:00", before))
	assert.True(t, inWindow("22:00", "02:00", late))
	assert.True(t, inWindow("22:00", "02:00", early))
	assert.False(t, inWindow("22:00", "02:00", after))
}

func TestAccumulator_CompletionMode(t *testing.T) {
	interval := 7
	pattern := &domain.RecurrencePattern{Mode: domain.ModeCompletion, Type: domain.TypeInterval, Interval: &interval, Unit: domain.UnitDays}
	lastCompleted := mustTime(t, "2025-01-01T00:00:00Z")
	task := &domain.Task{
		RecurrencePattern: pattern,
		LastCompletedAt:   &lastCompleted,
		CurveConfig:       domain.CurveConfig{Variant: domain.CurveAccumulator, Accumulator: &domain.AccumulatorParams{BuildupRate: 0.1}},
	}

	// Ratio 0.3 -> 0.1
	assert.InDelta(t, 0.1, Priority(task, lastCompleted.Add(2*24*time.Hour), nil), 0.001)
	// Ratio ~1.05 -> 0.9
	assert.InDelta(t, 0.9, Priority(task, lastCompleted.Add(time.Duration(7*1.05*24*60)*time.Minute), nil), 0.001)
	// Ratio ~1.43 -> 1.0
	assert.InDelta(t, 1.0, Priority(task, lastCompleted.Add(10*24*time.Hour), nil), 0.001)
}

func TestGetByPriority_ExcludesBlockedAndCompleted(t *testing.T) {
	lin := func(p float64) domain.CurveConfig {
		return domain.CurveConfig{Variant: domain.CurveHardWindow, HardWindow: &domain.HardWindowParams{
			WindowStart: time.Unix(0, 0), WindowEnd: time.Unix(0, 0).Add(100 * 365 * 24 * time.Hour), Priority: p,
		}}
	}
	tasks := []*domain.Task{
		{ID: 1, Status: domain.StatusOpen, CurveConfig: lin(0.5)},
		{ID: 2, Status: domain.StatusBlocked, Dependencies: []int64{1}, CurveConfig: lin(0.9)},
		{ID: 3, Status: domain.StatusCompleted, CurveConfig: lin(0.9)},
		{ID: 4, Status: domain.StatusOpen, CurveConfig: lin(0.5)},
	}

	result := GetByPriority(tasks, 10, time.Now(), nil)
	require.Len(t, result, 2)
	assert.Equal(t, int64(1), result[0].Task.ID)
	assert.Equal(t, int64(4), result[1].Task.ID)
}
