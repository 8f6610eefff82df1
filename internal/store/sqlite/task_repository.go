package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/taskcurve/taskcurve/internal/domain"
)

// taskRepository handles database operations for tasks. It is constructed
// fresh for each transaction scope, sharing the same querier interface
// whether backed by *sql.DB or *sql.Tx.
type taskRepository struct {
	db querier
}

func (r *taskRepository) Create(ctx context.Context, t *domain.Task) (int64, error) {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return 0, fmt.Errorf("marshal tags: %w", err)
	}
	deps, err := json.Marshal(t.Dependencies)
	if err != nil {
		return 0, fmt.Errorf("marshal dependencies: %w", err)
	}
	curveCfg, err := json.Marshal(t.CurveConfig)
	if err != nil {
		return 0, fmt.Errorf("marshal curve config: %w", err)
	}
	var recurrence []byte
	if t.RecurrencePattern != nil {
		recurrence, err = json.Marshal(t.RecurrencePattern)
		if err != nil {
			return 0, fmt.Errorf("marshal recurrence pattern: %w", err)
		}
	}

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	query := `
		INSERT INTO tasks (
			title, project, bucket_id, tags, deadline, estimate_minutes,
			recurrence_pattern, window_start, window_end, dependencies,
			curve_config, status, last_completed_at, next_due_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		t.Title, t.Project, nullableInt64(t.BucketID), string(tags),
		nullableTime(t.Deadline), nullableInt(t.EstimateMinutes), nullableBytes(recurrence),
		t.WindowStart, t.WindowEnd, string(deps), string(curveCfg),
		string(t.Status), nullableTime(t.LastCompletedAt), nullableTime(t.NextDueAt),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted task id: %w", err)
	}
	t.ID = id
	return id, nil
}

func (r *taskRepository) Get(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, taskSelectQuery+" WHERE id = ?", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFound("task %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

func (r *taskRepository) Update(ctx context.Context, t *domain.Task) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	deps, err := json.Marshal(t.Dependencies)
	if err != nil {
		return fmt.Errorf("marshal dependencies: %w", err)
	}
	curveCfg, err := json.Marshal(t.CurveConfig)
	if err != nil {
		return fmt.Errorf("marshal curve config: %w", err)
	}
	var recurrence []byte
	if t.RecurrencePattern != nil {
		recurrence, err = json.Marshal(t.RecurrencePattern)
		if err != nil {
			return fmt.Errorf("marshal recurrence pattern: %w", err)
		}
	}
	t.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks SET
			title = ?, project = ?, bucket_id = ?, tags = ?, deadline = ?,
			estimate_minutes = ?, recurrence_pattern = ?, window_start = ?,
			window_end = ?, dependencies = ?, curve_config = ?, status = ?,
			last_completed_at = ?, next_due_at = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		t.Title, t.Project, nullableInt64(t.BucketID), string(tags),
		nullableTime(t.Deadline), nullableInt(t.EstimateMinutes), nullableBytes(recurrence),
		t.WindowStart, t.WindowEnd, string(deps), string(curveCfg),
		string(t.Status), nullableTime(t.LastCompletedAt), nullableTime(t.NextDueAt),
		formatTime(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if n == 0 {
		return domain.NewNotFound("task %d not found", t.ID)
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if n == 0 {
		return domain.NewNotFound("task %d not found", id)
	}
	return nil
}

func (r *taskRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Task, error) {
	query := taskSelectQuery
	var conds []string
	var args []interface{}

	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Project != nil {
		conds = append(conds, "project = ?")
		args = append(args, *filter.Project)
	}
	if filter.BucketIDIsNull {
		conds = append(conds, "bucket_id IS NULL")
	} else if filter.BucketID != nil {
		conds = append(conds, "bucket_id = ?")
		args = append(args, *filter.BucketID)
	}
	if filter.HasDeadline != nil {
		if *filter.HasDeadline {
			conds = append(conds, "deadline IS NOT NULL")
		} else {
			conds = append(conds, "deadline IS NULL")
		}
	}
	if filter.HasRecurrence != nil {
		if *filter.HasRecurrence {
			conds = append(conds, "recurrence_pattern IS NOT NULL")
		} else {
			conds = append(conds, "recurrence_pattern IS NULL")
		}
	}
	if filter.Overdue != nil && *filter.Overdue {
		conds = append(conds, "deadline IS NOT NULL AND deadline < ?")
		args = append(args, formatTime(time.Now().UTC()))
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(filter.Tags) > 0 {
		tasks = filterByTags(tasks, filter.Tags)
	}
	return tasks, nil
}

func (r *taskRepository) All(ctx context.Context) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, taskSelectQuery+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list all tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func filterByTags(tasks []*domain.Task, tags []string) []*domain.Task {
	var out []*domain.Task
	for _, t := range tasks {
		matchesAll := true
		for _, tag := range tags {
			if !t.HasTag(tag) {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			out = append(out, t)
		}
	}
	return out
}

const taskSelectQuery = `
	SELECT id, title, project, bucket_id, tags, deadline, estimate_minutes,
		recurrence_pattern, window_start, window_end, dependencies,
		curve_config, status, last_completed_at, next_due_at, created_at, updated_at
	FROM tasks
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var bucketID sql.NullInt64
	var tags, deps, curveCfg string
	var recurrence sql.NullString
	var deadline, lastCompleted, nextDue sql.NullString
	var status string
	var createdAt, updatedAt string

	err := row.Scan(
		&t.ID, &t.Title, &t.Project, &bucketID, &tags, &deadline, &t.EstimateMinutes,
		&recurrence, &t.WindowStart, &t.WindowEnd, &deps, &curveCfg, &status,
		&lastCompleted, &nextDue, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bucketID.Valid {
		id := bucketID.Int64
		t.BucketID = &id
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(deps), &t.Dependencies); err != nil {
		return nil, fmt.Errorf("unmarshal dependencies: %w", err)
	}
	if err := json.Unmarshal([]byte(curveCfg), &t.CurveConfig); err != nil {
		return nil, fmt.Errorf("unmarshal curve config: %w", err)
	}
	if recurrence.Valid {
		var p domain.RecurrencePattern
		if err := json.Unmarshal([]byte(recurrence.String), &p); err != nil {
			return nil, fmt.Errorf("unmarshal recurrence pattern: %w", err)
		}
		t.RecurrencePattern = &p
	}
	if deadline.Valid {
		ts, err := parseTime(deadline.String)
		if err != nil {
			return nil, err
		}
		t.Deadline = &ts
	}
	if lastCompleted.Valid {
		ts, err := parseTime(lastCompleted.String)
		if err != nil {
			return nil, err
		}
		t.LastCompletedAt = &ts
	}
	if nextDue.Valid {
		ts, err := parseTime(nextDue.String)
		if err != nil {
			return nil, err
		}
		t.NextDueAt = &ts
	}
	t.Status = domain.Status(status)
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task rows: %w", err)
	}
	return tasks, nil
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
