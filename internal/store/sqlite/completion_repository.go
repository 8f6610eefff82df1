package sqlite

import (
	"context"
	"fmt"

	"github.com/taskcurve/taskcurve/internal/domain"
)

type completionRepository struct {
	db querier
}

func (r *completionRepository) Create(ctx context.Context, c *domain.Completion) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO completions (task_id, completed_at, actual_minutes, scheduled_minutes, day_of_week, hour_of_day)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.TaskID, formatTime(c.CompletedAt), nullableInt(c.ActualMinutes), nullableInt(c.ScheduledMinutes),
		c.DayOfWeek, c.HourOfDay,
	)
	if err != nil {
		return 0, fmt.Errorf("insert completion: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted completion id: %w", err)
	}
	c.ID = id
	return id, nil
}

func (r *completionRepository) ListByTask(ctx context.Context, taskID int64) ([]*domain.Completion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, task_id, completed_at, actual_minutes, scheduled_minutes, day_of_week, hour_of_day
		 FROM completions WHERE task_id = ? ORDER BY completed_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list completions for task %d: %w", taskID, err)
	}
	defer rows.Close()
	return scanCompletions(rows)
}

func (r *completionRepository) All(ctx context.Context) ([]*domain.Completion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, task_id, completed_at, actual_minutes, scheduled_minutes, day_of_week, hour_of_day
		 FROM completions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list all completions: %w", err)
	}
	defer rows.Close()
	return scanCompletions(rows)
}

func (r *completionRepository) DeleteByTask(ctx context.Context, taskID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM completions WHERE task_id = ?", taskID)
	if err != nil {
		return fmt.Errorf("delete completions for task %d: %w", taskID, err)
	}
	return nil
}

func scanCompletions(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]*domain.Completion, error) {
	var out []*domain.Completion
	for rows.Next() {
		var c domain.Completion
		var completedAt string
		if err := rows.Scan(&c.ID, &c.TaskID, &completedAt, &c.ActualMinutes, &c.ScheduledMinutes, &c.DayOfWeek, &c.HourOfDay); err != nil {
			return nil, fmt.Errorf("scan completion row: %w", err)
		}
		ts, err := parseTime(completedAt)
		if err != nil {
			return nil, err
		}
		c.CompletedAt = ts
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completion rows: %w", err)
	}
	return out, nil
}
