package domain

import "time"

// Completion records a single time a task was marked done (or, for a
// recurring task, a single occurrence it advanced past).
type Completion struct {
	ID               int64     `json:"id"`
	TaskID           int64     `json:"task_id"`
	CompletedAt      time.Time `json:"completed_at"`
	ActualMinutes    *int      `json:"actual_minutes,omitempty"`
	ScheduledMinutes *int      `json:"scheduled_minutes,omitempty"`
	DayOfWeek        int       `json:"day_of_week"` // 0=Sunday .. 6=Saturday, matches time.Weekday
	HourOfDay        int       `json:"hour_of_day"` // 0..23 local
}

// NewCompletion derives the day-of-week/hour-of-day fields from completedAt
// in local time.
func NewCompletion(taskID int64, completedAt time.Time, scheduledMinutes *int) *Completion {
	local := completedAt.Local()
	return &Completion{
		TaskID:           taskID,
		CompletedAt:      completedAt,
		ScheduledMinutes: scheduledMinutes,
		DayOfWeek:        int(local.Weekday()),
		HourOfDay:        local.Hour(),
	}
}
