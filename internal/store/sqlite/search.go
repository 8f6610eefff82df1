package sqlite

import (
	"context"
	"fmt"
)

type searcher struct {
	db querier
}

// Search runs an FTS5 MATCH over title/project/tags and returns task ids in
// relevance order (best rank first).
func (s *searcher) Search(ctx context.Context, query string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT rowid FROM tasks_fts WHERE tasks_fts MATCH ? ORDER BY rank", query,
	)
	if err != nil {
		return nil, fmt.Errorf("full-text search %q: %w", query, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan search result row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
