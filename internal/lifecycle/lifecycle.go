package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taskcurve/taskcurve/internal/curve"
	"github.com/taskcurve/taskcurve/internal/dependency"
	"github.com/taskcurve/taskcurve/internal/domain"
	"github.com/taskcurve/taskcurve/internal/recurrence"
	"github.com/taskcurve/taskcurve/internal/store"
)

// ResolveParsedTask turns a domain.ParsedTask into a domain.Task ready for
// CreateTask: it is the one place bucket-name resolution happens, shared by
// both a hypothetical external parser and the CLI's structured create flags.
// An unresolved bucket name is downgraded to "no bucket" plus a warning,
// never an error.
func ResolveParsedTask(ctx context.Context, buckets store.BucketStore, parsed *domain.ParsedTask) (*domain.Task, string, error) {
	task := &domain.Task{
		Title:             parsed.Title,
		Project:           parsed.Project,
		Tags:              parsed.Tags,
		Deadline:          parsed.Deadline,
		RecurrencePattern: parsed.Recurrence,
		WindowStart:       parsed.WindowStart,
		WindowEnd:         parsed.WindowEnd,
		Dependencies:      parsed.Dependencies,
	}
	if parsed.Duration != nil {
		minutes := int(parsed.Duration.Minutes())
		task.EstimateMinutes = &minutes
	}

	var warning string
	if parsed.BucketName != "" {
		bucket, err := buckets.GetByName(ctx, parsed.BucketName)
		if err != nil {
			if _, ok := domain.KindOf(err); !ok {
				return nil, "", fmt.Errorf("resolve bucket name: %w", err)
			}
			warning = fmt.Sprintf("bucket %q not found; task created without a bucket", parsed.BucketName)
		} else {
			task.BucketID = &bucket.ID
		}
	}
	return task, warning, nil
}

// CreateTask validates task, infers a default curve config if none was
// given, resolves its initial status from its dependencies, and persists it
// in one transaction.
func (o *Orchestrator) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	now := time.Now()
	if task.CurveConfig.Variant == "" {
		task.CurveConfig = domain.InferCurve(task, now)
	}
	if task.RecurrencePattern != nil && task.NextDueAt == nil {
		next := recurrence.NextDue(task.RecurrencePattern, now, now, now)
		task.NextDueAt = &next
	}
	if task.Status == "" {
		task.Status = domain.StatusOpen
	}

	if err := validateTask(task); err != nil {
		return nil, err
	}

	err := o.db.WithinTransaction(ctx, func(tx store.Stores) error {
		all, err := tx.Tasks.All(ctx)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		lookup := dependency.FromSlice(all)
		if err := dependency.Validate(0, task.Dependencies, lookup); err != nil {
			return err
		}
		task.Status = dependency.DesiredStatus(task, lookup)

		_, err = tx.Tasks.Create(ctx, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateDependencies validates and applies a new dependency list for
// taskID, re-deriving its Blocked/Open status afterward (cascadeOnCreateOrUpdate).
func (o *Orchestrator) UpdateDependencies(ctx context.Context, taskID int64, deps []int64) error {
	return o.db.WithinTransaction(ctx, func(tx store.Stores) error {
		task, err := tx.Tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}
		all, err := tx.Tasks.All(ctx)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		lookup := dependency.FromSlice(all)
		if err := dependency.Validate(taskID, deps, lookup); err != nil {
			return err
		}

		task.Dependencies = deps
		task.Status = dependency.DesiredStatus(task, lookup)
		return tx.Tasks.Update(ctx, task)
	})
}

// DeleteTask removes taskID. Unless force is set, it refuses to delete a
// task still referenced by others' Dependencies; with force, it deletes
// the task and re-derives status for its freed dependents.
func (o *Orchestrator) DeleteTask(ctx context.Context, taskID int64, force bool) error {
	return o.db.WithinTransaction(ctx, func(tx store.Stores) error {
		all, err := tx.Tasks.All(ctx)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		dependents := dependency.Dependents(taskID, all)
		if len(dependents) > 0 && !force {
			return domain.NewHasDependents(taskID, dependents)
		}

		if err := tx.Tasks.Delete(ctx, taskID); err != nil {
			return err
		}

		if len(dependents) == 0 {
			return nil
		}
		remaining := make([]*domain.Task, 0, len(all))
		for _, t := range all {
			if t.ID != taskID {
				remaining = append(remaining, t)
			}
		}
		lookup := dependency.FromSlice(remaining)
		for _, id := range dependents {
			t, ok := byID(remaining, id)
			if !ok {
				continue
			}
			newDeps := make([]int64, 0, len(t.Dependencies))
			for _, d := range t.Dependencies {
				if d != taskID {
					newDeps = append(newDeps, d)
				}
			}
			t.Dependencies = newDeps
			t.Status = dependency.DesiredStatus(t, lookup)
			if err := tx.Tasks.Update(ctx, t); err != nil {
				return fmt.Errorf("update freed dependent %d: %w", id, err)
			}
		}
		return nil
	})
}

// Timeline is the reporting shape behind the `timeline <id>` CLI command: a
// task's completion history, its current priority, and — for recurring
// tasks — a short projection of upcoming due instants.
type Timeline struct {
	Task             *domain.Task
	Completions      []*domain.Completion
	CurrentPriority  float64
	ProjectedNextDue []time.Time
}

const projectedOccurrences = 3

// Timeline loads taskID's Completion history and projects its next few
// occurrences (if it recurs) by repeatedly feeding the recurrence engine's
// own output back in as the next last_completed/now pair.
func (o *Orchestrator) Timeline(ctx context.Context, taskID int64, now time.Time) (*Timeline, error) {
	var result Timeline
	err := o.db.WithinTransaction(ctx, func(tx store.Stores) error {
		task, err := tx.Tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}
		completions, err := tx.Completions.ListByTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("load completions: %w", err)
		}
		all, err := tx.Tasks.All(ctx)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}

		result.Task = task
		result.Completions = completions
		result.CurrentPriority = curve.Priority(task, now, statusLookup(all))

		if task.RecurrencePattern != nil {
			result.ProjectedNextDue = projectOccurrences(task, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func projectOccurrences(task *domain.Task, now time.Time) []time.Time {
	lastCompleted := task.CreatedAt
	if task.LastCompletedAt != nil {
		lastCompleted = *task.LastCompletedAt
	}
	cursor := now
	if task.NextDueAt != nil {
		cursor = *task.NextDueAt
	}

	projections := make([]time.Time, 0, projectedOccurrences)
	projections = append(projections, cursor)
	for len(projections) < projectedOccurrences {
		next := recurrence.NextDue(task.RecurrencePattern, lastCompleted, task.CreatedAt, cursor)
		projections = append(projections, next)
		lastCompleted, cursor = cursor, next
	}
	return projections
}

// ParsedTaskWarnings joins warnings produced while resolving multiple
// ParsedTask values, used by bulk-import style callers.
func ParsedTaskWarnings(warnings []string) string {
	return strings.Join(warnings, "; ")
}
