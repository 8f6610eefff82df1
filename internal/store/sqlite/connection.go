// Package sqlite is the concrete store.Transactor implementation backed by
// SQLite, grounded on the same connection/transaction shape the rest of this
// codebase's SQL layer uses: one *sql.DB, WAL mode, foreign keys on, an
// embedded schema applied at Open.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taskcurve/taskcurve/internal/store"
	"github.com/taskcurve/taskcurve/pkg/logger"
)

//go:embed schema.sql
var schemaFS embed.FS

// DB wraps a *sql.DB with the store interfaces and transaction helper.
type DB struct {
	sqlDB *sql.DB
	path  string
	log   *logger.DefaultLogger

	store.Stores
}

// Config configures a DB.
type Config struct {
	Path            string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible defaults for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// Open creates (or reuses) the SQLite database at cfg.Path, applies the
// embedded schema, and wires up every store interface against it.
func Open(cfg Config, log *logger.DefaultLogger) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := cfg.Path +
		"?_foreign_keys=on" +
		"&_journal_mode=WAL" +
		"&_synchronous=NORMAL" +
		"&_timeout=5000"
	if cfg.Path == ":memory:" {
		dsn = "file::memory:?mode=memory&cache=shared&_foreign_keys=on"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if cfg.Path == ":memory:" {
		// A single shared connection avoids races between the in-memory
		// instance different pooled connections would otherwise see.
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	db := &DB{sqlDB: sqlDB, path: cfg.Path, log: log}
	if err := db.initialize(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	db.Stores = store.Stores{
		Tasks:       &taskRepository{db: sqlDB},
		Buckets:     &bucketRepository{db: sqlDB},
		Completions: &completionRepository{db: sqlDB},
		Config:      &configRepository{db: sqlDB},
		Search:      &searcher{db: sqlDB},
	}
	return db, nil
}

func (d *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}

	if _, err := d.sqlDB.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	if d.log != nil {
		d.log.Info("database schema applied", "path", d.path)
	}
	return nil
}

// WithinTransaction runs fn against a Stores bundle backed by a single
// *sql.Tx; a non-nil return rolls the transaction back.
func (d *DB) WithinTransaction(ctx context.Context, fn func(tx store.Stores) error) error {
	sqlTx, err := d.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	tx := store.Stores{
		Tasks:       &taskRepository{db: sqlTx},
		Buckets:     &bucketRepository{db: sqlTx},
		Completions: &completionRepository{db: sqlTx},
		Config:      &configRepository{db: sqlTx},
		Search:      &searcher{db: sqlTx},
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	return d.sqlDB.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting every repository
// work unmodified whether or not it is inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
