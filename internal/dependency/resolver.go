// Package dependency validates and maintains task dependency edges: cycle
// detection, delete protection, and the Blocked/Open status cascade.
package dependency

import (
	"github.com/taskcurve/taskcurve/internal/domain"
)

// Lookup resolves a task id to the task itself, backed by whatever snapshot
// the caller has in hand (a full in-memory list, a store query, ...).
type Lookup func(id int64) (*domain.Task, bool)

// FromSlice adapts a task list into a Lookup.
func FromSlice(tasks []*domain.Task) Lookup {
	byID := make(map[int64]*domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	return func(id int64) (*domain.Task, bool) {
		t, ok := byID[id]
		return t, ok
	}
}

// Validate checks a proposed dependency list for task taskID: no self-loop,
// every id must resolve, and the resulting graph must stay acyclic. The
// cycle check is a BFS from proposedDeps, following each successor's own
// Dependencies; it fails the moment the frontier reaches back to taskID.
func Validate(taskID int64, proposedDeps []int64, lookup Lookup) error {
	seen := make(map[int64]bool, len(proposedDeps))
	queue := make([]int64, 0, len(proposedDeps))

	for _, dep := range proposedDeps {
		if dep == taskID {
			return domain.NewCircularDependency(taskID, dep)
		}
		if _, ok := lookup(dep); !ok {
			return domain.NewValidation("dependency %d does not exist", dep)
		}
		if !seen[dep] {
			seen[dep] = true
			queue = append(queue, dep)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == taskID {
			return domain.NewCircularDependency(taskID, id)
		}
		t, ok := lookup(id)
		if !ok {
			continue
		}
		for _, next := range t.Dependencies {
			if next == taskID {
				return domain.NewCircularDependency(taskID, next)
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return nil
}

// Dependents returns the ids of every task in all that lists taskID in
// its own Dependencies — a plain O(tasks) reverse scan, used both for delete
// protection and as the fallback path when no graph index is available.
func Dependents(taskID int64, all []*domain.Task) []int64 {
	var out []int64
	for _, t := range all {
		if t.DependsOn(taskID) {
			out = append(out, t.ID)
		}
	}
	return out
}

// CascadeOnComplete returns the ids of dependents that should transition
// from Blocked to Open now that completedID has been marked Completed: every
// task listing completedID as a dependency whose other dependencies (via
// statusOf) are all Completed, and whose own status is currently Blocked.
func CascadeOnComplete(completedID int64, all []*domain.Task, statusOf Lookup) []int64 {
	var toOpen []int64
	for _, t := range all {
		if t.Status != domain.StatusBlocked || !t.DependsOn(completedID) {
			continue
		}
		if allDependenciesCompleted(t, statusOf) {
			toOpen = append(toOpen, t.ID)
		}
	}
	return toOpen
}

// DesiredStatus implements cascadeOnCreateOrUpdate's status rule: after any
// change to a task's dependency list (or a dependency's status), the task
// becomes Blocked if any dependency is incomplete, else Open — unless it is
// already Completed or InProgress, which this never overrides.
func DesiredStatus(t *domain.Task, lookup Lookup) domain.Status {
	if t.Status == domain.StatusCompleted || t.Status == domain.StatusInProgress {
		return t.Status
	}
	if allDependenciesCompleted(t, lookup) {
		return domain.StatusOpen
	}
	return domain.StatusBlocked
}

func allDependenciesCompleted(t *domain.Task, lookup Lookup) bool {
	for _, depID := range t.Dependencies {
		dep, ok := lookup(depID)
		if !ok || dep.Status != domain.StatusCompleted {
			return false
		}
	}
	return true
}
