package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, stmt := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`
CREATE TABLE IF NOT EXISTS table_snapshots (
    table_id TEXT PRIMARY KEY,
    state BLOB NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, tableID string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO table_snapshots (table_id, state, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT (table_id) DO UPDATE
SET
    state = excluded.state,
    updated_at_ms = excluded.updated_at_ms
`, tableID, data, time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, tableID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM table_snapshots WHERE table_id = ?`, tableID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *SQLiteStore) Delete(ctx context.Context, tableID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM table_snapshots WHERE table_id = ?`, tableID)
	return err
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
