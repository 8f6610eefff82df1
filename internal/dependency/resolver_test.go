package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskcurve/taskcurve/internal/domain"
)

func TestValidate_RejectsSelfLoop(t *testing.T) {
	lookup := FromSlice([]*domain.Task{{ID: 1}})
	err := Validate(1, []int64{1}, lookup)
	require.Error(t, err)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindCircularDependency, kind)
}

func TestValidate_RejectsUnknownDependency(t *testing.T) {
	lookup := FromSlice([]*domain.Task{{ID: 1}})
	err := Validate(1, []int64{99}, lookup)
	require.Error(t, err)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindValidation, kind)
}

func TestValidate_RejectsCycle(t *testing.T) {
	tasks := []*domain.Task{
		{ID: 1},
		{ID: 2, Dependencies: []int64{3}},
		{ID: 3, Dependencies: []int64{1}},
	}
	lookup := FromSlice(tasks)
	// 1 -> 2 -> 3 -> 1 would close a cycle.
	err := Validate(1, []int64{2}, lookup)
	require.Error(t, err)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindCircularDependency, kind)
}

func TestValidate_AcceptsAcyclicChain(t *testing.T) {
	tasks := []*domain.Task{
		{ID: 1},
		{ID: 2, Dependencies: []int64{1}},
	}
	lookup := FromSlice(tasks)
	err := Validate(3, []int64{2}, lookup)
	assert.NoError(t, err)
}

func TestDependents_ReverseScan(t *testing.T) {
	tasks := []*domain.Task{
		{ID: 1},
		{ID: 2, Dependencies: []int64{1}},
		{ID: 3, Dependencies: []int64{1, 2}},
		{ID: 4},
	}
	got := Dependents(1, tasks)
	assert.ElementsMatch(t, []int64{2, 3}, got)
}

func TestCascadeOnComplete_OpensOnlyFullyUnblockedDependents(t *testing.T) {
	tasks := []*domain.Task{
		{ID: 1, Status: domain.StatusCompleted},
		{ID: 2, Status: domain.StatusBlocked, Dependencies: []int64{1}},
		{ID: 3, Status: domain.StatusBlocked, Dependencies: []int64{1, 4}},
		{ID: 4, Status: domain.StatusOpen},
	}
	lookup := FromSlice(tasks)

	toOpen := CascadeOnComplete(1, tasks, lookup)
	assert.ElementsMatch(t, []int64{2}, toOpen)
}

func TestDesiredStatus(t *testing.T) {
	tasks := []*domain.Task{
		{ID: 1, Status: domain.StatusOpen},
		{ID: 2, Status: domain.StatusCompleted},
	}
	lookup := FromSlice(tasks)

	blocked := &domain.Task{ID: 3, Status: domain.StatusOpen, Dependencies: []int64{1}}
	assert.Equal(t, domain.StatusBlocked, DesiredStatus(blocked, lookup))

	unblocked := &domain.Task{ID: 4, Status: domain.StatusBlocked, Dependencies: []int64{2}}
	assert.Equal(t, domain.StatusOpen, DesiredStatus(unblocked, lookup))

	alreadyDone := &domain.Task{ID: 5, Status: domain.StatusCompleted, Dependencies: []int64{1}}
	assert.Equal(t, domain.StatusCompleted, DesiredStatus(alreadyDone, lookup))

	inProgress := &domain.Task{ID: 6, Status: domain.StatusInProgress, Dependencies: []int64{1}}
	assert.Equal(t, domain.StatusInProgress, DesiredStatus(inProgress, lookup))
}
