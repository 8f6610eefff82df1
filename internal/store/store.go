// Package store declares the storage-agnostic contract the core depends on:
// the operations and invariants it requires, not the storage technology
// behind them. internal/store/sqlite is the concrete implementation.
package store

import (
	"context"

	"github.com/taskcurve/taskcurve/internal/domain"
)

// TaskStore persists Tasks.
type TaskStore interface {
	Create(ctx context.Context, t *domain.Task) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.Task, error)
	All(ctx context.Context) ([]*domain.Task, error)
}

// BucketStore persists Buckets.
type BucketStore interface {
	Create(ctx context.Context, b *domain.Bucket) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Bucket, error)
	GetByName(ctx context.Context, name string) (*domain.Bucket, error)
	List(ctx context.Context) ([]*domain.Bucket, error)
	Delete(ctx context.Context, id int64) error
	// ClearBucketID sets bucket_id to NULL on every task currently pointing
	// at bucketID, called as part of a Bucket delete.
	ClearBucketID(ctx context.Context, bucketID int64) error
}

// CompletionStore persists Completion records.
type CompletionStore interface {
	Create(ctx context.Context, c *domain.Completion) (int64, error)
	ListByTask(ctx context.Context, taskID int64) ([]*domain.Completion, error)
	All(ctx context.Context) ([]*domain.Completion, error)
	// DeleteByTask removes every Completion referencing taskID. TaskStore.Delete
	// does not call it; the sqlite schema's ON DELETE CASCADE foreign key
	// removes a deleted task's completions.
	DeleteByTask(ctx context.Context, taskID int64) error
}

// ConfigStore persists the reserved string-keyed configuration map.
type ConfigStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// Searcher provides full-text search over task title/project/tags, returning
// matching ids ordered by relevance.
type Searcher interface {
	Search(ctx context.Context, query string) ([]int64, error)
}

// Stores bundles every store interface reachable within one transaction.
type Stores struct {
	Tasks       TaskStore
	Buckets     BucketStore
	Completions CompletionStore
	Config      ConfigStore
	Search      Searcher
}

// Transactor runs fn against a transaction-scoped Stores bundle; a non-nil
// return rolls the transaction back, leaving no partial state visible.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx Stores) error) error
}
