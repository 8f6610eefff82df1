package domain

import "time"

// Status is the lifecycle state of a Task.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// Task is the central entity: identity, scheduling fields, a priority curve
// configuration, and an ordered dependency list. Urgency is never stored —
// it is computed by the curve evaluator at query time (see internal/curve).
type Task struct {
	ID                int64              `json:"id"`
	Title             string             `json:"title"`
	Project           string             `json:"project,omitempty"`
	BucketID          *int64             `json:"bucket_id,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	Deadline          *time.Time         `json:"deadline,omitempty"`
	EstimateMinutes   *int               `json:"estimate_minutes,omitempty"`
	RecurrencePattern *RecurrencePattern `json:"recurrence_pattern,omitempty"`
	WindowStart       string             `json:"window_start,omitempty"` // HH:MM local
	WindowEnd         string             `json:"window_end,omitempty"`   // HH:MM local
	Dependencies      []int64            `json:"dependencies,omitempty"`
	CurveConfig       CurveConfig        `json:"curve_config"`
	Status            Status             `json:"status"`
	LastCompletedAt   *time.Time         `json:"last_completed_at,omitempty"`
	NextDueAt         *time.Time         `json:"next_due_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// HasWindow reports whether the task has a non-empty time-of-day window.
func (t *Task) HasWindow() bool {
	return t.WindowStart != "" && t.WindowEnd != "" && t.WindowStart != t.WindowEnd
}

// HasDeadline reports whether a deadline is set (used by the "has_deadline" list filter).
func (t *Task) HasDeadline() bool {
	return t.Deadline != nil
}

// HasRecurrence reports whether the task recurs (used by the "has_recurrence" list filter).
func (t *Task) HasRecurrence() bool {
	return t.RecurrencePattern != nil
}

// IsRecurring is an alias kept for readability at call sites in lifecycle/curve code.
func (t *Task) IsRecurring() bool {
	return t.HasRecurrence()
}

// HasTag reports whether tag is present, used by the "tags" intersection filter.
func (t *Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// DependsOn reports whether id appears in the task's dependency list.
func (t *Task) DependsOn(id int64) bool {
	for _, dep := range t.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}

// ListFilter captures the queryable filters accepted by TaskStore.List.
type ListFilter struct {
	Status         *Status
	Project        *string
	BucketID       *int64
	BucketIDIsNull bool
	Tags           []string
	HasDeadline    *bool
	HasRecurrence  *bool
	Overdue        *bool
}
