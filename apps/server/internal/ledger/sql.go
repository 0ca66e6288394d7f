package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// sqlService is shared by the sqlite and postgres backends. Queries are
// written with ? placeholders and rebound for postgres.
type sqlService struct {
	db      *sql.DB
	dialect dialect
	start   int64
}

func (s *sqlService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlService) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlService) ensureAccount(ctx context.Context, q interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, playerID string) error {
	_, err := q.ExecContext(ctx, s.rebind(`
INSERT INTO player_balances (player_id, balance, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT (player_id) DO NOTHING
`), playerID, s.start, time.Now().UTC().UnixMilli())
	return err
}

func (s *sqlService) Balance(ctx context.Context, playerID string) (int64, error) {
	if strings.TrimSpace(playerID) == "" {
		return 0, ErrInvalidPlayer
	}
	if err := s.ensureAccount(ctx, s.db, playerID); err != nil {
		return 0, err
	}
	var balance int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT balance FROM player_balances WHERE player_id = ?`), playerID).Scan(&balance)
	return balance, err
}

func (s *sqlService) Apply(ctx context.Context, playerID string, delta int64, reason string) (int64, error) {
	if strings.TrimSpace(playerID) == "" {
		return 0, ErrInvalidPlayer
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := s.ensureAccount(ctx, tx, playerID); err != nil {
		return 0, err
	}
	nowMs := time.Now().UTC().UnixMilli()
	res, err := tx.ExecContext(ctx, s.rebind(`
UPDATE player_balances
SET balance = balance + ?,
    updated_at_ms = ?
WHERE player_id = ?
  AND balance + ? >= 0
`), delta, nowMs, playerID, delta)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	var balance int64
	if err := tx.QueryRowContext(ctx, s.rebind(`SELECT balance FROM player_balances WHERE player_id = ?`), playerID).Scan(&balance); err != nil {
		return 0, err
	}
	if affected == 0 {
		return balance, ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO balance_transfers (player_id, delta, reason, balance_after, created_at_ms)
VALUES (?, ?, ?, ?, ?)
`), playerID, delta, reason, balance, nowMs); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *sqlService) RecordHand(ctx context.Context, rec HandRecord) error {
	if strings.TrimSpace(rec.HandID) == "" {
		return fmt.Errorf("empty hand id")
	}
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now().UTC()
	}
	summary, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
INSERT INTO hand_history (hand_id, table_id, hand_number, rake, played_at_ms, summary_json)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (hand_id) DO NOTHING
`), rec.HandID, rec.TableID, rec.HandNumber, rec.Rake, rec.PlayedAt.UTC().UnixMilli(), string(summary))
	if err != nil {
		return err
	}
	for _, playerID := range rec.Players {
		_, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO hand_players (hand_id, player_id, played_at_ms)
VALUES (?, ?, ?)
ON CONFLICT (hand_id, player_id) DO NOTHING
`), rec.HandID, playerID, rec.PlayedAt.UTC().UnixMilli())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqlService) ListRecentHands(ctx context.Context, playerID string, limit int) ([]HandRecord, error) {
	if strings.TrimSpace(playerID) == "" {
		return []HandRecord{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT h.summary_json
FROM hand_players p
JOIN hand_history h ON h.hand_id = p.hand_id
WHERE p.player_id = ?
ORDER BY p.played_at_ms DESC, h.hand_id DESC
LIMIT ?
`), playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HandRecord, 0, limit)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec HandRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode hand summary: %w", err)
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func ensureSchema(ctx context.Context, db *sql.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
