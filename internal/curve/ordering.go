package curve

import (
	"sort"
	"time"

	"github.com/taskcurve/taskcurve/internal/domain"
)

// Scored pairs a task with its priority at the instant it was scored.
type Scored struct {
	Task     *domain.Task
	Priority float64
}

// GetByPriority scores every non-Completed, non-Blocked task and returns
// them sorted by descending priority, ascending id as a stable tie-breaker,
// truncated to limit (limit <= 0 means unlimited).
func GetByPriority(tasks []*domain.Task, limit int, at time.Time, depStatus DependencyStatus) []Scored {
	var scored []Scored
	for _, t := range tasks {
		if t.Status == domain.StatusCompleted || t.Status == domain.StatusBlocked {
			continue
		}
		scored = append(scored, Scored{Task: t, Priority: Priority(t, at, depStatus)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Priority != scored[j].Priority {
			return scored[i].Priority > scored[j].Priority
		}
		return scored[i].Task.ID < scored[j].Task.ID
	})

	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	return scored
}
