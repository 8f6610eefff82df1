// Package recurrence computes the next due instant for a recurring task.
// Like internal/curve, NextDue is a pure function of its arguments: no wall
// clock reads beyond what the caller passes as now.
package recurrence

import (
	"fmt"
	"time"

	"github.com/taskcurve/taskcurve/internal/domain"
)

// NextDue returns the next occurrence instant for pattern, given when the
// task was last completed (zero value if never), when it was created, and
// the current instant. Skipped occurrences are never backfilled: completing
// a weekly Monday task on Wednesday yields next Monday, not the Monday that
// was missed.
func NextDue(pattern *domain.RecurrencePattern, lastCompleted, createdAt, now time.Time) time.Time {
	var next time.Time
	switch pattern.Mode {
	case domain.ModeCalendar:
		next = nextCalendar(pattern, now, createdAt)
	case domain.ModeCompletion:
		next = nextCompletion(pattern, lastCompleted)
	default:
		next = now
	}

	if pattern.TimeOfDay != "" {
		next = withTimeOfDay(next, pattern.TimeOfDay)
	}
	return next
}

func nextCalendar(pattern *domain.RecurrencePattern, now, createdAt time.Time) time.Time {
	switch pattern.Type {
	case domain.TypeDaily:
		return startOfDay(now.AddDate(0, 0, 1))
	case domain.TypeWeekly:
		if pattern.DayOfWeek != nil {
			return nextWeekday(now, time.Weekday(*pattern.DayOfWeek))
		}
		return now.AddDate(0, 0, 7)
	case domain.TypeMonthly:
		return addClampedMonths(now, 1)
	case domain.TypeInterval:
		anchor := createdAt
		if pattern.Anchor != nil {
			anchor = *pattern.Anchor
		}
		return nextIntervalFromAnchor(pattern, anchor, now)
	default:
		return now
	}
}

func nextCompletion(pattern *domain.RecurrencePattern, lastCompleted time.Time) time.Time {
	return addInterval(lastCompleted, pattern)
}

// nextWeekday returns the next instant (strictly after now) falling on the
// target weekday at now's time-of-day; if today already is the target
// weekday, skip a full week rather than returning now itself.
func nextWeekday(now time.Time, target time.Weekday) time.Time {
	daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	return now.AddDate(0, 0, daysAhead)
}

// addClampedMonths adds n calendar months to t, clamping the day-of-month to
// the last valid day of the target month when t's day does not exist there
// (e.g. Jan 31 + 1 month -> Feb 28/29, not Mar 3).
func addClampedMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	targetMonth := int(month) - 1 + n
	targetYear := year + targetMonth/12
	targetMonth = targetMonth % 12
	if targetMonth < 0 {
		targetMonth += 12
		targetYear--
	}
	firstOfTarget := time.Date(targetYear, time.Month(targetMonth+1), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(targetYear, time.Month(targetMonth+1), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// nextIntervalFromAnchor implements anchor + ceil((now-anchor)/interval)*interval.
// It estimates the step count from the pattern's nominal duration, then
// walks at most a couple of steps to correct for calendar-month drift.
func nextIntervalFromAnchor(pattern *domain.RecurrencePattern, anchor, now time.Time) time.Time {
	if !now.After(anchor) {
		return anchor
	}
	step := intervalStep(pattern)
	n := int64(now.Sub(anchor)/step) + 1
	if n < 1 {
		n = 1
	}
	for n > 1 && !addStep(anchor, pattern, n-1).Before(now) {
		n--
	}
	for addStep(anchor, pattern, n).Before(now) {
		n++
	}
	return addStep(anchor, pattern, n)
}

func addInterval(from time.Time, pattern *domain.RecurrencePattern) time.Time {
	return addStep(from, pattern, 1)
}

// addStep advances from by n units of the pattern's interval/unit, using
// calendar-aware arithmetic for Weeks/Months and plain duration for Days.
func addStep(from time.Time, pattern *domain.RecurrencePattern, n int64) time.Time {
	interval := 1
	if pattern.Interval != nil {
		interval = *pattern.Interval
	}
	units := int(n) * interval
	switch pattern.Unit {
	case domain.UnitWeeks:
		return from.AddDate(0, 0, 7*units)
	case domain.UnitMonths:
		return addClampedMonths(from, units)
	default:
		return from.AddDate(0, 0, units)
	}
}

func intervalStep(pattern *domain.RecurrencePattern) time.Duration {
	interval := 1
	if pattern.Interval != nil {
		interval = *pattern.Interval
	}
	switch pattern.Unit {
	case domain.UnitWeeks:
		return time.Duration(interval) * 7 * 24 * time.Hour
	case domain.UnitMonths:
		return time.Duration(interval) * 30 * 24 * time.Hour
	default:
		return time.Duration(interval) * 24 * time.Hour
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// withTimeOfDay overwrites t's local time-of-day with hh:mm, leaving the
// date untouched. Malformed input leaves t unchanged.
func withTimeOfDay(t time.Time, hhmm string) time.Time {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return t
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return t
	}
	y, mo, d := t.Date()
	return time.Date(y, mo, d, h, m, 0, 0, t.Location())
}
