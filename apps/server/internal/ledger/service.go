package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultStartingBalance is credited to a player the first time the
	// ledger sees them. Account funding is external to the table server.
	DefaultStartingBalance = int64(10000)
	defaultRecentLimit     = 50
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidPlayer       = errors.New("invalid player id")
)

// Service is the external balance store. Negative deltas debit the
// balance (buy-in, add-chips) and fail with ErrInsufficientBalance
// rather than going below zero; positive deltas credit it (cash-out).
type Service interface {
	Close() error
	Balance(ctx context.Context, playerID string) (int64, error)
	Apply(ctx context.Context, playerID string, delta int64, reason string) (int64, error)
	RecordHand(ctx context.Context, rec HandRecord) error
	ListRecentHands(ctx context.Context, playerID string, limit int) ([]HandRecord, error)
}

// HandRecord is the history row written for every settled hand.
type HandRecord struct {
	HandID     string       `json:"hand_id"`
	TableID    string       `json:"table_id"`
	HandNumber int          `json:"hand_number"`
	Rake       int64        `json:"rake"`
	FoldOut    bool         `json:"fold_out"`
	Players    []string     `json:"players"`
	Winners    []HandWinner `json:"winners"`
	Board      []string     `json:"board"`
	PlayedAt   time.Time    `json:"played_at"`
}

type HandWinner struct {
	PlayerID    string `json:"player_id"`
	ChipsWon    int64  `json:"chips_won"`
	Description string `json:"description,omitempty"`
}

// Options selects and configures a backend.
type Options struct {
	// Mode is memory, sqlite or postgres.
	Mode            string
	SQLitePath      string
	PostgresDSN     string
	StartingBalance int64
}

// NewService builds the backend named by opts.Mode and returns it with the
// resolved mode name.
func NewService(opts Options) (Service, string, error) {
	start := opts.StartingBalance
	if start <= 0 {
		start = DefaultStartingBalance
	}
	mode := strings.ToLower(strings.TrimSpace(opts.Mode))
	switch mode {
	case "", "memory":
		return NewMemoryService(start), "memory", nil
	case "local", "sqlite":
		service, err := NewSQLiteService(opts.SQLitePath, start)
		if err != nil {
			return nil, "", err
		}
		return service, "sqlite", nil
	case "postgres":
		service, err := NewPostgresService(opts.PostgresDSN, start)
		if err != nil {
			return nil, "", err
		}
		return service, "postgres", nil
	}
	return nil, "", fmt.Errorf("unknown ledger mode %q", opts.Mode)
}

// MemoryService keeps balances in process memory. Used for local play and
// tests.
type MemoryService struct {
	mu       sync.Mutex
	start    int64
	balances map[string]int64
	hands    []HandRecord
}

func NewMemoryService(startingBalance int64) *MemoryService {
	return &MemoryService{
		start:    startingBalance,
		balances: make(map[string]int64),
	}
}

func (m *MemoryService) Close() error { return nil }

func (m *MemoryService) balanceLocked(playerID string) int64 {
	b, ok := m.balances[playerID]
	if !ok {
		b = m.start
		m.balances[playerID] = b
	}
	return b
}

func (m *MemoryService) Balance(_ context.Context, playerID string) (int64, error) {
	if strings.TrimSpace(playerID) == "" {
		return 0, ErrInvalidPlayer
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(playerID), nil
}

func (m *MemoryService) Apply(_ context.Context, playerID string, delta int64, _ string) (int64, error) {
	if strings.TrimSpace(playerID) == "" {
		return 0, ErrInvalidPlayer
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balanceLocked(playerID)
	if b+delta < 0 {
		return b, ErrInsufficientBalance
	}
	m.balances[playerID] = b + delta
	return b + delta, nil
}

// SetBalance overwrites a balance. Test and admin helper.
func (m *MemoryService) SetBalance(playerID string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[playerID] = balance
}

func (m *MemoryService) RecordHand(_ context.Context, rec HandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = append(m.hands, rec)
	return nil
}

func (m *MemoryService) ListRecentHands(_ context.Context, playerID string, limit int) ([]HandRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HandRecord, 0, limit)
	for i := len(m.hands) - 1; i >= 0 && len(out) < limit; i-- {
		rec := m.hands[i]
		for _, id := range rec.Players {
			if id == playerID {
				out = append(out, rec)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayedAt.After(out[j].PlayedAt) })
	return out, nil
}
