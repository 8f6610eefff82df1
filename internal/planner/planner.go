// Package planner builds a single day's schedule by greedily packing
// priority-ordered candidate tasks into a working-hours window.
package planner

import (
	"fmt"
	"time"

	"github.com/taskcurve/taskcurve/internal/curve"
	"github.com/taskcurve/taskcurve/internal/domain"
)

// Options configures a single Plan call.
type Options struct {
	Limit                  int
	IncludeTimeBlocks      bool
	WorkHoursStart         string // HH:MM, default "09:00"
	WorkHoursEnd           string // HH:MM, default "17:00"
	DefaultEstimateMinutes int    // used when a task has no EstimateMinutes, default 30
}

func (o Options) normalized() Options {
	if o.WorkHoursStart == "" {
		o.WorkHoursStart = "09:00"
	}
	if o.WorkHoursEnd == "" {
		o.WorkHoursEnd = "17:00"
	}
	if o.DefaultEstimateMinutes <= 0 {
		o.DefaultEstimateMinutes = 30
	}
	return o
}

// Slot is a concrete time-block a scheduled task was placed into.
type Slot struct {
	Start time.Time
	End   time.Time
}

// ScheduledItem is one task placed into the day's schedule.
type ScheduledItem struct {
	Task              *domain.Task
	Slot              Slot
	EstimateMinutes   int
	IsDefaultEstimate bool
}

// UnscheduledItem is a candidate that priority-qualified but could not be
// placed, with the reason why.
type UnscheduledItem struct {
	Task   *domain.Task
	Reason string
}

// Plan is the output of a single day's planning run.
type Plan struct {
	Scheduled             []ScheduledItem
	Unscheduled           []UnscheduledItem
	WorkHoursStart        string
	WorkHoursEnd          string
	TotalScheduledMinutes int
	RemainingMinutes      int
}

// Build computes a day's plan. tasks is a read-only snapshot; date anchors
// the working window; the planning instant used to evaluate curve priority
// is date combined with WorkHoursStart, so an empty day plans as of the
// moment work begins.
func Build(tasks []*domain.Task, date time.Time, opts Options, depStatus curve.DependencyStatus) (*Plan, error) {
	opts = opts.normalized()

	workStart, err := atTime(date, opts.WorkHoursStart)
	if err != nil {
		return nil, fmt.Errorf("work hours start: %w", err)
	}
	workEnd, err := atTime(date, opts.WorkHoursEnd)
	if err != nil {
		return nil, fmt.Errorf("work hours end: %w", err)
	}
	if !workEnd.After(workStart) {
		return nil, fmt.Errorf("work hours end must be after start")
	}

	scored := curve.GetByPriority(tasks, 0, workStart, depStatus)

	var candidates []curve.Scored
	for _, s := range scored {
		if s.Priority > 0 {
			candidates = append(candidates, s)
		}
	}
	if opts.Limit > 0 && opts.Limit < len(candidates) {
		candidates = candidates[:opts.Limit]
	}

	plan := &Plan{WorkHoursStart: opts.WorkHoursStart, WorkHoursEnd: opts.WorkHoursEnd}
	if !opts.IncludeTimeBlocks {
		for _, c := range candidates {
			plan.Scheduled = append(plan.Scheduled, ScheduledItem{Task: c.Task})
		}
		return plan, nil
	}

	cursor := workStart
	for _, c := range candidates {
		task := c.Task
		estimate := opts.DefaultEstimateMinutes
		isDefault := true
		if task.EstimateMinutes != nil && *task.EstimateMinutes > 0 {
			estimate = *task.EstimateMinutes
			isDefault = false
		}
		duration := time.Duration(estimate) * time.Minute

		placeFrom, placeUntil := cursor, workEnd
		if task.HasWindow() {
			ws, we, ok := windowOverlap(date, task.WindowStart, task.WindowEnd, workStart, workEnd)
			if !ok {
				plan.Unscheduled = append(plan.Unscheduled, UnscheduledItem{Task: task, Reason: "no fitting slot"})
				continue
			}
			if ws.After(placeFrom) {
				placeFrom = ws
			}
			if we.Before(placeUntil) {
				placeUntil = we
			}
		}

		if placeFrom.Before(cursor) {
			placeFrom = cursor
		}
		if !placeFrom.Before(placeUntil) {
			plan.Unscheduled = append(plan.Unscheduled, UnscheduledItem{Task: task, Reason: "no fitting slot"})
			continue
		}

		slotEnd := placeFrom.Add(duration)
		if slotEnd.After(placeUntil) {
			plan.Unscheduled = append(plan.Unscheduled, UnscheduledItem{Task: task, Reason: "insufficient time"})
			continue
		}

		plan.Scheduled = append(plan.Scheduled, ScheduledItem{
			Task:              task,
			Slot:              Slot{Start: placeFrom, End: slotEnd},
			EstimateMinutes:   estimate,
			IsDefaultEstimate: isDefault,
		})
		plan.TotalScheduledMinutes += estimate
		if slotEnd.After(cursor) {
			cursor = slotEnd
		}
	}

	workingWindowMinutes := int(workEnd.Sub(workStart).Minutes())
	plan.RemainingMinutes = workingWindowMinutes - plan.TotalScheduledMinutes
	return plan, nil
}

// atTime combines date's calendar day with an HH:MM time-of-day.
func atTime(date time.Time, hhmm string) (time.Time, error) {
	var h, m int
	if n, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil || n != 2 {
		return time.Time{}, fmt.Errorf("invalid HH:MM %q", hhmm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return time.Time{}, fmt.Errorf("invalid HH:MM %q", hhmm)
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, date.Location()), nil
}

// windowOverlap intersects a task's HH:MM window (which may cross midnight)
// with the working day, returning false if there is no overlap at all.
func windowOverlap(date time.Time, winStart, winEnd string, workStart, workEnd time.Time) (time.Time, time.Time, bool) {
	ws, err1 := atTime(date, winStart)
	we, err2 := atTime(date, winEnd)
	if err1 != nil || err2 != nil {
		return time.Time{}, time.Time{}, false
	}
	if !we.After(ws) {
		we = we.AddDate(0, 0, 1) // crosses midnight
	}

	start := workStart
	if ws.After(start) {
		start = ws
	}
	end := workEnd
	if we.Before(end) {
		end = we
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
