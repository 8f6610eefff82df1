package domain

import "time"

// ParsedTask is the shape produced by the free-form task-description parser
// (natural-language parsing itself is out of scope of this module). The core
// consumes it to build a Task but never produces one itself.
type ParsedTask struct {
	Title        string
	Project      string
	Tags         []string
	Deadline     *time.Time
	Duration     *time.Duration
	BucketName   string
	Recurrence   *RecurrencePattern
	WindowStart  string
	WindowEnd    string
	Dependencies []int64
}
