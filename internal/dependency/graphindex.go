package dependency

import (
	"fmt"
	"sync"

	"github.com/kuzudb/go-kuzu"

	"github.com/taskcurve/taskcurve/internal/domain"
)

// GraphIndex is an optional accelerator for Dependents lookups, backed by an
// embedded Kuzu graph database holding one DEPENDS_ON edge per dependency.
// It is rebuilt from the SQL store on Open and is never a source of truth:
// every write path that touches dependencies must still work if OpenIndex
// fails or returns a nil index, falling back to the plain reverse scan in
// Dependents.
type GraphIndex struct {
	mu sync.Mutex
	db *kuzu.Database
}

// OpenIndex opens (creating if needed) a Kuzu database at path and prepares
// its schema. Callers should treat a non-nil error as "run without the
// accelerator" rather than a fatal condition.
func OpenIndex(path string) (*GraphIndex, error) {
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("open kuzu database: %w", err)
	}

	idx := &GraphIndex{db: db}
	if err := idx.withConnection(func(conn *kuzu.Connection) error {
		schema := []string{
			"CREATE NODE TABLE IF NOT EXISTS Task(id INT64, PRIMARY KEY(id));",
			"CREATE REL TABLE IF NOT EXISTS DEPENDS_ON(FROM Task TO Task);",
		}
		for _, stmt := range schema {
			if _, err := conn.Query(stmt); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (g *GraphIndex) withConnection(fn func(*kuzu.Connection) error) error {
	conn, err := kuzu.NewConnection(g.db)
	if err != nil {
		return fmt.Errorf("open connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

// Rebuild clears and repopulates the index from the current task snapshot.
// Called once after the SQL store opens; the index always trails the store
// by definition, so it is rebuilt wholesale rather than diffed.
func (g *GraphIndex) Rebuild(tasks []*domain.Task) error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.withConnection(func(conn *kuzu.Connection) error {
		if _, err := conn.Query("MATCH (t:Task) DETACH DELETE t;"); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
		for _, t := range tasks {
			q := fmt.Sprintf("CREATE (:Task {id: %d});", t.ID)
			if _, err := conn.Query(q); err != nil {
				return fmt.Errorf("insert task node %d: %w", t.ID, err)
			}
		}
		for _, t := range tasks {
			for _, dep := range t.Dependencies {
				q := fmt.Sprintf(
					"MATCH (a:Task {id: %d}), (b:Task {id: %d}) CREATE (a)-[:DEPENDS_ON]->(b);",
					t.ID, dep,
				)
				if _, err := conn.Query(q); err != nil {
					return fmt.Errorf("insert edge %d->%d: %w", t.ID, dep, err)
				}
			}
		}
		return nil
	})
}

// Dependents returns the ids of tasks whose DEPENDS_ON edge points at
// taskID, using the Cypher equivalent of the reverse scan in resolver.go.
func (g *GraphIndex) Dependents(taskID int64) ([]int64, error) {
	if g == nil {
		return nil, fmt.Errorf("graph index not available")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	var ids []int64
	err := g.withConnection(func(conn *kuzu.Connection) error {
		q := fmt.Sprintf(
			"MATCH (b:Task)-[:DEPENDS_ON]->(a:Task {id: %d}) RETURN b.id;",
			taskID,
		)
		result, err := conn.Query(q)
		if err != nil {
			return fmt.Errorf("query dependents: %w", err)
		}
		defer result.Close()

		for result.HasNext() {
			tuple, err := result.Next()
			if err != nil {
				return fmt.Errorf("read dependents tuple: %w", err)
			}
			vals, err := tuple.GetAsSlice()
			if err != nil || len(vals) == 0 {
				return fmt.Errorf("decode dependents tuple: %w", err)
			}
			id, ok := vals[0].(int64)
			if !ok {
				continue
			}
			ids = append(ids, id)
		}
		return nil
	})
	return ids, err
}

// Close releases the underlying database handle. Safe to call on a nil
// receiver so callers can defer it unconditionally after a failed Open.
func (g *GraphIndex) Close() {
	if g == nil || g.db == nil {
		return
	}
	g.db.Close()
}

// DependentsWithFallback prefers the graph index and falls back to the
// plain reverse scan over all if the index is nil or the query errors.
func DependentsWithFallback(idx *GraphIndex, taskID int64, all []*domain.Task) []int64 {
	if idx != nil {
		if ids, err := idx.Dependents(taskID); err == nil {
			return ids
		}
	}
	return Dependents(taskID, all)
}
