package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/taskcurve/taskcurve/internal/domain"
)

type bucketRepository struct {
	db querier
}

func (r *bucketRepository) Create(ctx context.Context, b *domain.Bucket) (int64, error) {
	cfg := b.Config
	if cfg == nil {
		cfg = map[string]interface{}{}
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("marshal bucket config: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO buckets (name, type, config) VALUES (?, ?, ?)",
		b.Name, string(b.Type), string(cfgJSON),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if isUniqueConstraintErr(err, &sqliteErr) {
			return 0, domain.NewConflict("bucket %q already exists", b.Name)
		}
		return 0, fmt.Errorf("insert bucket: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted bucket id: %w", err)
	}
	b.ID = id
	return id, nil
}

func (r *bucketRepository) Get(ctx context.Context, id int64) (*domain.Bucket, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, name, type, config FROM buckets WHERE id = ?", id)
	b, err := scanBucket(row)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFound("bucket %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get bucket %d: %w", id, err)
	}
	return b, nil
}

func (r *bucketRepository) GetByName(ctx context.Context, name string) (*domain.Bucket, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, name, type, config FROM buckets WHERE name = ? COLLATE NOCASE", name)
	b, err := scanBucket(row)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFound("bucket %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get bucket %q: %w", name, err)
	}
	return b, nil
}

func (r *bucketRepository) List(ctx context.Context) ([]*domain.Bucket, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, type, config FROM buckets ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	var out []*domain.Bucket
	for rows.Next() {
		b, err := scanBucket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bucket row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *bucketRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM buckets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete bucket %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if n == 0 {
		return domain.NewNotFound("bucket %d not found", id)
	}
	return nil
}

func (r *bucketRepository) ClearBucketID(ctx context.Context, bucketID int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE tasks SET bucket_id = NULL WHERE bucket_id = ?", bucketID)
	if err != nil {
		return fmt.Errorf("clear bucket_id for bucket %d: %w", bucketID, err)
	}
	return nil
}

func scanBucket(row rowScanner) (*domain.Bucket, error) {
	var b domain.Bucket
	var bucketType, cfgJSON string
	if err := row.Scan(&b.ID, &b.Name, &bucketType, &cfgJSON); err != nil {
		return nil, err
	}
	b.Type = domain.BucketType(bucketType)
	if err := json.Unmarshal([]byte(cfgJSON), &b.Config); err != nil {
		return nil, fmt.Errorf("unmarshal bucket config: %w", err)
	}
	return &b, nil
}

// isUniqueConstraintErr reports whether err is a SQLite UNIQUE constraint
// violation, capturing it into target for callers that want the detail.
func isUniqueConstraintErr(err error, target *sqlite3.Error) bool {
	se, ok := err.(sqlite3.Error)
	if !ok {
		return false
	}
	*target = se
	return se.ExtendedCode == sqlite3.ErrConstraintUnique
}
