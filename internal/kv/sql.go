package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"
)

// Dialect selects the SQL flavour used by SQLStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DriverName returns the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

type queries struct {
	schema string
	get    string
	put    string
	delete string
}

var dialectQueries = map[Dialect]queries{
	DialectSQLite: {
		schema: `
			CREATE TABLE IF NOT EXISTS kv_entries (
				entry_key   TEXT PRIMARY KEY,
				entry_value BLOB NOT NULL,
				updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		get: `
			SELECT entry_value
			FROM kv_entries
			WHERE entry_key = ?`,
		put: `
			INSERT INTO kv_entries (entry_key, entry_value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (entry_key)
			DO UPDATE SET entry_value = excluded.entry_value, updated_at = CURRENT_TIMESTAMP`,
		delete: `
			DELETE FROM kv_entries
			WHERE entry_key = ?`,
	},
	DialectPostgres: {
		schema: `
			CREATE TABLE IF NOT EXISTS kv_entries (
				entry_key   TEXT PRIMARY KEY,
				entry_value BYTEA NOT NULL,
				updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
		get: `
			SELECT entry_value
			FROM kv_entries
			WHERE entry_key = $1`,
		put: `
			INSERT INTO kv_entries (entry_key, entry_value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (entry_key)
			DO UPDATE SET entry_value = EXCLUDED.entry_value, updated_at = NOW()`,
		delete: `
			DELETE FROM kv_entries
			WHERE entry_key = $1`,
	},
}

// SQLStore keeps entries in the kv_entries table.
type SQLStore struct {
	db *sql.DB
	q  queries
}

// NewSQL wraps an open database handle.
func NewSQL(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("kv: unsupported dialect %q", dialect)
	}
	return &SQLStore{db: db, q: q}, nil
}

// EnsureSchema creates the kv_entries table when it is missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.q.schema); err != nil {
		return fmt.Errorf("create kv_entries: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := s.db.QueryRowContext(ctx, s.q.get, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select kv entry: %w", err)
	}
	return value, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.q.put, key, value); err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.q.delete, key); err != nil {
		return fmt.Errorf("delete kv entry: %w", err)
	}
	return nil
}

// OpenSQLite opens (creating if needed) a SQLite file and ensures the schema.
// The returned *sql.DB is owned by the caller.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, *sql.DB, error) {
	if path == "" {
		return nil, nil, errors.New("kv: sqlite path is required")
	}
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create kv dir: %w", err)
		}
	}

	db, err := sql.Open(DialectSQLite.DriverName(), path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store, err := NewSQL(db, DialectSQLite)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db, nil
}
