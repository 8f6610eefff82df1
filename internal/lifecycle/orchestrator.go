// Package lifecycle owns task creation, completion, and reopening — the
// only place the core actually mutates a Task's status, wiring the curve
// evaluator, recurrence engine, and dependency resolver together over a
// single store transaction per operation.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/taskcurve/taskcurve/internal/curve"
	"github.com/taskcurve/taskcurve/internal/dependency"
	"github.com/taskcurve/taskcurve/internal/domain"
	"github.com/taskcurve/taskcurve/internal/recurrence"
	"github.com/taskcurve/taskcurve/internal/store"
)

// Orchestrator wires the store transaction boundary to the pure domain
// logic in internal/curve, internal/recurrence and internal/dependency.
type Orchestrator struct {
	db  store.Transactor
	idx *dependency.GraphIndex // optional accelerator, may be nil
}

// New builds an Orchestrator. idx may be nil; every lookup falls back to a
// plain reverse scan when it is.
func New(db store.Transactor, idx *dependency.GraphIndex) *Orchestrator {
	return &Orchestrator{db: db, idx: idx}
}

// Complete marks taskID done: it records a Completion, either re-schedules
// the task (if it recurs) or closes it out, and cascades the completion to
// any dependents that are now fully unblocked. All within one transaction.
func (o *Orchestrator) Complete(ctx context.Context, taskID int64, at *time.Time) error {
	completedAt := time.Now()
	if at != nil {
		completedAt = *at
	}

	return o.db.WithinTransaction(ctx, func(tx store.Stores) error {
		task, err := tx.Tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}

		if _, err := tx.Completions.Create(ctx, domain.NewCompletion(taskID, completedAt, task.EstimateMinutes)); err != nil {
			return fmt.Errorf("record completion: %w", err)
		}

		if task.RecurrencePattern != nil {
			next := recurrence.NextDue(task.RecurrencePattern, completedAt, task.CreatedAt, completedAt)
			task.LastCompletedAt = &completedAt
			task.NextDueAt = &next
			task.Status = domain.StatusOpen
		} else {
			task.LastCompletedAt = &completedAt
			task.Status = domain.StatusCompleted
		}
		if err := tx.Tasks.Update(ctx, task); err != nil {
			return fmt.Errorf("update completed task: %w", err)
		}

		return o.cascadeOnComplete(ctx, tx, taskID)
	})
}

// cascadeOnComplete opens every dependent of completedID whose remaining
// dependencies are all Completed.
func (o *Orchestrator) cascadeOnComplete(ctx context.Context, tx store.Stores, completedID int64) error {
	all, err := tx.Tasks.All(ctx)
	if err != nil {
		return fmt.Errorf("load tasks for cascade: %w", err)
	}
	lookup := dependency.FromSlice(all)
	var candidates []*domain.Task
	for _, id := range dependency.DependentsWithFallback(o.idx, completedID, all) {
		if t, ok := byID(all, id); ok {
			candidates = append(candidates, t)
		}
	}
	toOpen := dependency.CascadeOnComplete(completedID, candidates, lookup)

	for _, id := range toOpen {
		t, ok := byID(all, id)
		if !ok {
			continue
		}
		t.Status = domain.StatusOpen
		if err := tx.Tasks.Update(ctx, t); err != nil {
			return fmt.Errorf("cascade-open task %d: %w", id, err)
		}
	}
	return nil
}

// Reopen sets taskID back to Open, then re-derives whether it should
// actually be Blocked given its current dependencies.
func (o *Orchestrator) Reopen(ctx context.Context, taskID int64) error {
	return o.db.WithinTransaction(ctx, func(tx store.Stores) error {
		task, err := tx.Tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}
		task.Status = domain.StatusOpen

		all, err := tx.Tasks.All(ctx)
		if err != nil {
			return fmt.Errorf("load tasks for cascade: %w", err)
		}
		task.Status = dependency.DesiredStatus(task, dependency.FromSlice(all))

		return tx.Tasks.Update(ctx, task)
	})
}

// Priority evaluates taskID's current priority against a live dependency
// snapshot loaded from the store.
func (o *Orchestrator) Priority(ctx context.Context, taskID int64, at time.Time) (float64, error) {
	var result float64
	err := o.db.WithinTransaction(ctx, func(tx store.Stores) error {
		task, err := tx.Tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}
		all, err := tx.Tasks.All(ctx)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		result = curve.Priority(task, at, statusLookup(all))
		return nil
	})
	return result, err
}

func statusLookup(all []*domain.Task) curve.DependencyStatus {
	byID := make(map[int64]domain.Status, len(all))
	for _, t := range all {
		byID[t.ID] = t.Status
	}
	return func(id int64) domain.Status { return byID[id] }
}

func byID(all []*domain.Task, id int64) (*domain.Task, bool) {
	for _, t := range all {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}
