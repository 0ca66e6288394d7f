package lobby

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"holdem-live/apps/server/internal/config"
	"holdem-live/apps/server/internal/table"
	"holdem-live/holdem"
)

// Lobby owns every table of the process. Tables are fixed by configuration.
type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
	order  []string
	hands  map[string]int

	logger *log.Logger
}

// TableSummary is the lobby listing entry.
type TableSummary struct {
	ID          string          `json:"id"`
	GameType    holdem.GameType `json:"gameType"`
	MaxPlayers  int             `json:"maxPlayers"`
	Seated      int             `json:"seated"`
	Waiting     int             `json:"waiting"`
	BuyIn       int64           `json:"buyIn"`
	SmallBlind  int64           `json:"smallBlind"`
	BigBlind    int64           `json:"bigBlind"`
	Status      holdem.Status   `json:"status"`
	HandNumber  int             `json:"handNumber"`
	HandsPlayed int             `json:"handsPlayed"`
}

// New starts one table actor per configured table, restoring persisted
// state where it exists.
func New(ctx context.Context, tables []config.TableConfig, deps table.Deps, opts table.Options) (*Lobby, error) {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	l := &Lobby{
		tables: make(map[string]*table.Table, len(tables)),
		hands:  make(map[string]int, len(tables)),
		logger: deps.Logger.WithPrefix("lobby"),
	}
	for _, tc := range tables {
		cfg, err := tc.Engine()
		if err != nil {
			l.Close()
			return nil, err
		}
		if _, dup := l.tables[tc.ID]; dup {
			l.Close()
			return nil, fmt.Errorf("duplicate table %q", tc.ID)
		}
		t, err := table.New(ctx, tc.ID, cfg, deps, opts)
		if err != nil {
			l.Close()
			return nil, err
		}
		t.AddHandEndHook(l.countHand)
		l.tables[tc.ID] = t
		l.order = append(l.order, tc.ID)
	}
	l.logger.Info("tables ready", "count", len(l.order))
	return l, nil
}

func (l *Lobby) countHand(info table.HandEndInfo) {
	l.mu.Lock()
	l.hands[info.TableID]++
	l.mu.Unlock()
}

// GetTable returns a table by ID
func (l *Lobby) GetTable(tableID string) *table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables[tableID]
}

// ListTables returns the summaries in configuration order.
func (l *Lobby) ListTables() []TableSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]TableSummary, 0, len(l.order))
	for _, id := range l.order {
		snap := l.tables[id].Snapshot()
		out = append(out, TableSummary{
			ID:          id,
			GameType:    snap.GameType,
			MaxPlayers:  snap.MaxPlayers,
			Seated:      len(snap.SeatedPlayers),
			Waiting:     len(snap.WaitingPlayers),
			BuyIn:       snap.BuyIn,
			SmallBlind:  snap.SmallBlind,
			BigBlind:    snap.BigBlind,
			Status:      snap.Status,
			HandNumber:  snap.HandNumber,
			HandsPlayed: l.hands[id],
		})
	}
	return out
}

// TablesOf returns the tables playerID has joined, sorted by id.
func (l *Lobby) TablesOf(playerID string) []*table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*table.Table
	for _, t := range l.tables {
		if t.IsMember(playerID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close stops every table actor.
func (l *Lobby) Close() {
	l.mu.RLock()
	tables := make([]*table.Table, 0, len(l.tables))
	for _, t := range l.tables {
		tables = append(tables, t)
	}
	l.mu.RUnlock()
	for _, t := range tables {
		t.Stop()
	}
}
