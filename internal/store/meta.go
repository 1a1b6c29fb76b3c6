package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// schemaVersion is bumped whenever schema changes shape.
const schemaVersion = 1

const (
	metaSchemaVersion = "schema_version"
	metaSequence      = "sequence"
)

// meta is a small key/value table. It records the schema version and the
// sequence shared by history rows and LLM events, which lets the two be
// ordered against each other.
type meta struct {
	mu sync.Mutex
	db *sql.DB
}

func newMeta(ctx context.Context, db *sql.DB) (*meta, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create meta table: %w", err)
	}
	return &meta{db: db}, nil
}

// Next returns the next sequence number, starting at 1. The upsert makes
// the increment atomic across processes sharing the file.
func (m *meta) Next(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var seq int64
	err := m.db.QueryRowContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, 1)
		 ON CONFLICT (key) DO UPDATE SET value = value + 1
		 RETURNING value`, metaSequence,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// SchemaVersion returns the recorded schema version, 0 for a new file.
func (m *meta) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := m.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaSchemaVersion).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return v, err
}

func (m *meta) setSchemaVersion(ctx context.Context, v int) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, metaSchemaVersion, v)
	return err
}
