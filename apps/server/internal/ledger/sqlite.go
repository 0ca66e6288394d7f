package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "holdem_local.db"

var sqliteSchema = []string{
	`
CREATE TABLE IF NOT EXISTS player_balances (
    player_id TEXT PRIMARY KEY,
    balance INTEGER NOT NULL CHECK (balance >= 0),
    updated_at_ms INTEGER NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS balance_transfers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    player_id TEXT NOT NULL REFERENCES player_balances(player_id),
    delta INTEGER NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    balance_after INTEGER NOT NULL,
    created_at_ms INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_balance_transfers_player ON balance_transfers(player_id, created_at_ms DESC)`,
	`
CREATE TABLE IF NOT EXISTS hand_history (
    hand_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    hand_number INTEGER NOT NULL,
    rake INTEGER NOT NULL DEFAULT 0,
    played_at_ms INTEGER NOT NULL,
    summary_json TEXT NOT NULL DEFAULT '{}'
)`,
	`
CREATE TABLE IF NOT EXISTS hand_players (
    hand_id TEXT NOT NULL REFERENCES hand_history(hand_id),
    player_id TEXT NOT NULL,
    played_at_ms INTEGER NOT NULL,
    PRIMARY KEY (hand_id, player_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_hand_players_recent ON hand_players(player_id, played_at_ms DESC)`,
}

type SQLiteService struct {
	sqlService
}

func NewSQLiteService(dbPath string, startingBalance int64) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		p, err := defaultLocalDatabasePath()
		if err != nil {
			return nil, err
		}
		dbPath = p
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
	// 单连接, :memory: 库也只有一份
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{sqlService{db: db, dialect: dialectSQLite, start: startingBalance}}, nil
}

func defaultLocalDatabasePath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "HoldemLive", defaultLocalDBName), nil
}
