// Package importexport implements the JSON-framing-adjacent core of backup
// and restore: Export walks one consistent snapshot of the store, Import
// re-populates it in a single transaction under either a replace or a merge
// policy. The on-disk file framing and CLI flag parsing stay a thin
// collaborator in cmd/taskcurve; this package owns only the semantics.
package importexport

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskcurve/taskcurve/internal/config"
	"github.com/taskcurve/taskcurve/internal/domain"
	"github.com/taskcurve/taskcurve/internal/store"
)

// Snapshot is the export wire format: every Task, Bucket, and Completion in
// the store, plus the version the store was at when exported. ExportID
// uniquely identifies one export run. Import does not read it: merging the
// same snapshot twice inserts its records twice.
type Snapshot struct {
	ExportID    string               `json:"export_id"`
	Version     string               `json:"version"`
	ExportedAt  time.Time            `json:"exported_at"`
	Tasks       []*domain.Task       `json:"tasks"`
	Buckets     []*domain.Bucket     `json:"buckets"`
	Completions []*domain.Completion `json:"completions"`
}

// Mode selects Import's conflict policy.
type Mode string

const (
	// ModeReplace wipes every existing Task, Bucket, and Completion before
	// inserting the snapshot.
	ModeReplace Mode = "replace"
	// ModeMerge inserts the snapshot alongside whatever already exists.
	ModeMerge Mode = "merge"
)

// Counts reports how many records of one kind were imported vs skipped.
type Counts struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Result is Import's return shape: one Counts per entity kind.
type Result struct {
	Tasks       Counts `json:"tasks"`
	Buckets     Counts `json:"buckets"`
	Completions Counts `json:"completions"`
}

// Export reads every Task, Bucket, and Completion from db within a single
// transaction, so the snapshot reflects one consistent instant.
func Export(ctx context.Context, db store.Transactor) (*Snapshot, error) {
	snap := &Snapshot{ExportID: uuid.New().String(), Version: config.CurrentVersion, ExportedAt: time.Now().UTC()}
	err := db.WithinTransaction(ctx, func(tx store.Stores) error {
		tasks, err := tx.Tasks.All(ctx)
		if err != nil {
			return fmt.Errorf("export tasks: %w", err)
		}
		buckets, err := tx.Buckets.List(ctx)
		if err != nil {
			return fmt.Errorf("export buckets: %w", err)
		}
		completions, err := tx.Completions.All(ctx)
		if err != nil {
			return fmt.Errorf("export completions: %w", err)
		}
		snap.Tasks, snap.Buckets, snap.Completions = tasks, buckets, completions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Import restores snap into db under mode, re-allocating ids for every
// restored record and remapping Task.BucketID/Dependencies and
// Completion.TaskID references from the snapshot's id space into the
// newly allocated one — the same re-allocation merge uses, applied
// uniformly in replace mode too, since the store's Create never accepts a
// caller-chosen id. Runs inside one transaction: a failure partway through
// leaves the store exactly as it was before the call.
func Import(ctx context.Context, db store.Transactor, snap *Snapshot, mode Mode) (*Result, error) {
	result := &Result{}
	err := db.WithinTransaction(ctx, func(tx store.Stores) error {
		if mode == ModeReplace {
			if err := wipe(ctx, tx); err != nil {
				return err
			}
		}

		bucketIDMap := make(map[int64]int64, len(snap.Buckets))
		for _, b := range snap.Buckets {
			oldID := b.ID
			restored := &domain.Bucket{Name: b.Name, Type: b.Type, Config: b.Config}
			newID, err := tx.Buckets.Create(ctx, restored)
			if err != nil {
				result.Buckets.Skipped++
				continue
			}
			bucketIDMap[oldID] = newID
			result.Buckets.Imported++
		}

		taskIDMap := make(map[int64]int64, len(snap.Tasks))
		for _, t := range snap.Tasks {
			oldID := t.ID
			restored := *t
			restored.ID = 0
			restored.Dependencies = nil // resolved in the second pass below
			if t.BucketID != nil {
				if newBucketID, ok := bucketIDMap[*t.BucketID]; ok {
					restored.BucketID = &newBucketID
				} else {
					restored.BucketID = nil
				}
			}
			newID, err := tx.Tasks.Create(ctx, &restored)
			if err != nil {
				result.Tasks.Skipped++
				continue
			}
			taskIDMap[oldID] = newID
			result.Tasks.Imported++
		}

		for _, t := range snap.Tasks {
			newID, ok := taskIDMap[t.ID]
			if !ok || len(t.Dependencies) == 0 {
				continue
			}
			remapped := make([]int64, 0, len(t.Dependencies))
			for _, depOldID := range t.Dependencies {
				if depNewID, ok := taskIDMap[depOldID]; ok {
					remapped = append(remapped, depNewID)
				}
			}
			restored, err := tx.Tasks.Get(ctx, newID)
			if err != nil {
				return fmt.Errorf("reload restored task %d: %w", newID, err)
			}
			restored.Dependencies = remapped
			if err := tx.Tasks.Update(ctx, restored); err != nil {
				return fmt.Errorf("set dependencies on restored task %d: %w", newID, err)
			}
		}

		for _, c := range snap.Completions {
			newTaskID, ok := taskIDMap[c.TaskID]
			if !ok {
				result.Completions.Skipped++
				continue
			}
			restored := *c
			restored.ID = 0
			restored.TaskID = newTaskID
			if _, err := tx.Completions.Create(ctx, &restored); err != nil {
				result.Completions.Skipped++
				continue
			}
			result.Completions.Imported++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func wipe(ctx context.Context, tx store.Stores) error {
	tasks, err := tx.Tasks.All(ctx)
	if err != nil {
		return fmt.Errorf("load tasks to wipe: %w", err)
	}
	for _, t := range tasks {
		if err := tx.Tasks.Delete(ctx, t.ID); err != nil {
			return fmt.Errorf("wipe task %d: %w", t.ID, err)
		}
	}

	buckets, err := tx.Buckets.List(ctx)
	if err != nil {
		return fmt.Errorf("load buckets to wipe: %w", err)
	}
	for _, b := range buckets {
		if err := tx.Buckets.Delete(ctx, b.ID); err != nil {
			return fmt.Errorf("wipe bucket %d: %w", b.ID, err)
		}
	}
	return nil
}
