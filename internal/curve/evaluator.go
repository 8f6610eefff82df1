// Package curve implements the priority-curve family: a pure function from
// (task, instant, dependency status) to a nonnegative urgency value. 0 means
// inactive, 1.0 means due, >1.0 means overdue by that much.
//
// Every exported function here is side-effect free and deterministic given
// its inputs — no wall-clock reads, no store access — so the property tests
// in internal/curve/evaluator_test.go can exercise them directly with fixed
// instants.
package curve

import (
	"math"
	"strings"
	"time"

	"github.com/taskcurve/taskcurve/internal/domain"
)

// DependencyStatus looks up the current status of a dependency by task id.
// Implementations are expected to return domain.StatusCompleted for ids
// they do not recognize only if that is genuinely the caller's intent;
// internal/lifecycle always builds this from a live snapshot, never guesses.
type DependencyStatus func(taskID int64) domain.Status

// Priority evaluates a task's urgency at instant t. depStatus is consulted
// only when the task has dependencies; pass nil for dependency-free tasks.
func Priority(task *domain.Task, t time.Time, depStatus DependencyStatus) float64 {
	if blocked(task, depStatus) {
		return 0
	}
	if task.HasWindow() && !inWindow(task.WindowStart, task.WindowEnd, t) {
		return 0
	}
	return evaluateVariant(task, task.CurveConfig, t)
}

// blocked implements the block gate: priority is 0 regardless of variant if
// any dependency is not Completed.
func blocked(task *domain.Task, depStatus DependencyStatus) bool {
	if len(task.Dependencies) == 0 {
		return false
	}
	if depStatus == nil {
		return true
	}
	for _, dep := range task.Dependencies {
		if depStatus(dep) != domain.StatusCompleted {
			return true
		}
	}
	return false
}

// inWindow implements the time-window gate, including midnight-crossing
// semantics: a window with start > end spans from start today to end
// tomorrow.
func inWindow(startHHMM, endHHMM string, t time.Time) bool {
	start, ok1 := parseHHMM(startHHMM)
	end, ok2 := parseHHMM(endHHMM)
	if !ok1 || !ok2 {
		return true
	}
	local := t.Local()
	now := local.Hour()*60 + local.Minute()

	if start <= end {
		return now >= start && now < end
	}
	// Crosses midnight: active from start..24:00 and 00:00..end.
	return now >= start || now < end
}

func parseHHMM(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, ok1 := atoi(parts[0])
	m, ok2 := atoi(parts[1])
	if !ok1 || !ok2 || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// evaluateVariant dispatches exhaustively on CurveVariant. task is threaded
// through (rather than just cfg) because Accumulator reads the task's
// recurrence/completion fields, not curve parameters.
func evaluateVariant(task *domain.Task, cfg domain.CurveConfig, t time.Time) float64 {
	switch cfg.Variant {
	case domain.CurveLinear:
		if cfg.Linear == nil {
			return 0
		}
		return linear(cfg.Linear.StartDate, cfg.Linear.Deadline, t)
	case domain.CurveExponential:
		if cfg.Exponential == nil {
			return 0
		}
		return exponential(cfg.Exponential.StartDate, cfg.Exponential.Deadline, cfg.Exponential.Exponent, t)
	case domain.CurveHardWindow:
		if cfg.HardWindow == nil {
			return 0
		}
		return hardWindow(cfg.HardWindow.WindowStart, cfg.HardWindow.WindowEnd, cfg.HardWindow.Priority, t)
	case domain.CurveBlocked:
		// The block gate in Priority already guarantees every dependency is
		// Completed by the time we reach here; Blocked simply delegates.
		if cfg.Blocked == nil || cfg.Blocked.ThenCurve == nil {
			return 0
		}
		return evaluateVariant(task, *cfg.Blocked.ThenCurve, t)
	case domain.CurveAccumulator:
		return accumulator(task, t)
	default:
		return 0
	}
}

// accumulator implements both Accumulator modes: a stepped ratio for
// completion-tracked recurrence, a linear ramp plus overdue tail for
// calendar-tracked recurrence.
func accumulator(task *domain.Task, t time.Time) float64 {
	if task.RecurrencePattern == nil {
		return 0
	}
	pattern := task.RecurrencePattern
	expected := pattern.ExpectedInterval()

	switch pattern.Mode {
	case domain.ModeCompletion:
		lastCompleted := task.CreatedAt
		if task.LastCompletedAt != nil {
			lastCompleted = *task.LastCompletedAt
		}
		if expected <= 0 {
			return 0
		}
		ratio := float64(t.Sub(lastCompleted)) / float64(expected)
		switch {
		case ratio < 0.5:
			return 0.1
		case ratio < 0.8:
			return 0.3
		case ratio < 1.0:
			return 0.6
		case ratio < 1.2:
			return 0.9
		default:
			return 1.0
		}
	case domain.ModeCalendar:
		if task.NextDueAt == nil {
			return 0
		}
		day := 24 * time.Hour
		daysUntil := float64(task.NextDueAt.Sub(t)) / float64(day)
		halfExpectedDays := expected.Hours() / 24 / 2
		switch {
		case daysUntil > halfExpectedDays:
			return 0.2
		case daysUntil < 0:
			v := 1.0 + 0.1*(-daysUntil)
			if v > 1.5 {
				return 1.5
			}
			return v
		default:
			// Linear ramp 0.2 -> 1.0 across the second half of the interval:
			// daysUntil runs from halfExpectedDays (ramp start, 0.2) down to 0 (due, 1.0).
			if halfExpectedDays <= 0 {
				return 1.0
			}
			progress := (halfExpectedDays - daysUntil) / halfExpectedDays
			return 0.2 + progress*0.8
		}
	default:
		return 0
	}
}

// linear ramps 0 at start to 1.0 at deadline, then grows past 1.0 linearly
// with how far past deadline t is, scaled by the same start-deadline span.
func linear(start, deadline, t time.Time) float64 {
	s := start.UnixMilli()
	e := deadline.UnixMilli()
	now := t.UnixMilli()
	if e <= s {
		return 0
	}
	switch {
	case now < s:
		return 0
	case now > e:
		return 1 + float64(now-e)/float64(e-s)
	default:
		return float64(now-s) / float64(e-s)
	}
}

// exponential implements the Exponential formula: same overdue tail as
// Linear, but the in-range ramp is raised to exponent.
func exponential(start, deadline time.Time, exponent float64, t time.Time) float64 {
	if exponent <= 0 {
		exponent = 2.0
	}
	s := start.UnixMilli()
	e := deadline.UnixMilli()
	now := t.UnixMilli()
	if e <= s {
		return 0
	}
	switch {
	case now < s:
		return 0
	case now > e:
		return 1 + float64(now-e)/float64(e-s)
	default:
		ratio := float64(now-s) / float64(e-s)
		return math.Pow(ratio, exponent)
	}
}

// hardWindow implements the HardWindow formula: a flat priority inside an
// inclusive absolute datetime window [windowStart, windowEnd], zero outside
// it. priority is taken as given — 0 is a legal value in [0,2], not a
// sentinel for "unset"; callers that want a default apply it when the
// CurveConfig is constructed.
func hardWindow(windowStart, windowEnd time.Time, priority float64, t time.Time) float64 {
	if (t.Equal(windowStart) || t.After(windowStart)) && (t.Equal(windowEnd) || t.Before(windowEnd)) {
		return priority
	}
	return 0
}
