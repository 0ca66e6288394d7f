package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-live/apps/server/internal/auth"
)

func backends(t *testing.T) map[string]Service {
	t.Helper()
	lite, err := NewSQLiteService(":memory:", 1000)
	require.NoError(t, err)
	file, err := NewSQLiteService(filepath.Join(t.TempDir(), "nested", "ledger.db"), 1000)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = lite.Close()
		_ = file.Close()
	})
	return map[string]Service{
		"memory":      NewMemoryService(1000),
		"sqlite":      lite,
		"sqlite-file": file,
	}
}

func TestService_StartingBalanceAndApply(t *testing.T) {
	ctx := context.Background()
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			b, err := svc.Balance(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, int64(1000), b)

			b, err = svc.Apply(ctx, "alice", -400, "buy-in")
			require.NoError(t, err)
			assert.Equal(t, int64(600), b)

			b, err = svc.Apply(ctx, "alice", 250, "cash-out")
			require.NoError(t, err)
			assert.Equal(t, int64(850), b)

			// first touch through Apply also creates the account
			b, err = svc.Apply(ctx, "bob", -1000, "buy-in")
			require.NoError(t, err)
			assert.Equal(t, int64(0), b)
		})
	}
}

func TestService_InsufficientBalanceLeavesBalance(t *testing.T) {
	ctx := context.Background()
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Apply(ctx, "alice", -1001, "buy-in")
			require.ErrorIs(t, err, ErrInsufficientBalance)

			b, err := svc.Balance(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, int64(1000), b)

			_, err = svc.Apply(ctx, "", 10, "x")
			assert.ErrorIs(t, err, ErrInvalidPlayer)
		})
	}
}

func TestService_RecordAndListHands(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i, players := range [][]string{{"a", "b"}, {"a", "c"}, {"b", "c"}} {
				require.NoError(t, svc.RecordHand(ctx, HandRecord{
					HandID:     "h" + string(rune('1'+i)),
					TableID:    "t1",
					HandNumber: i + 1,
					Players:    players,
					Winners:    []HandWinner{{PlayerID: players[0], ChipsWon: 20}},
					PlayedAt:   base.Add(time.Duration(i) * time.Minute),
				}))
			}

			got, err := svc.ListRecentHands(ctx, "a", 10)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "h2", got[0].HandID)
			assert.Equal(t, "h1", got[1].HandID)
			assert.Equal(t, int64(20), got[0].Winners[0].ChipsWon)

			got, err = svc.ListRecentHands(ctx, "c", 1)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "h3", got[0].HandID)
		})
	}
}

func TestSQLiteService_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := NewSQLiteService(path, 500)
	require.NoError(t, err)
	_, err = s.Apply(ctx, "alice", -120, "buy-in")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteService(path, 500)
	require.NoError(t, err)
	defer s.Close()
	b, err := s.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(380), b)
}

func TestRebind(t *testing.T) {
	pg := &sqlService{dialect: dialectPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))
	lite := &sqlService{dialect: dialectSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestNewService_Modes(t *testing.T) {
	svc, mode, err := NewService(Options{})
	require.NoError(t, err)
	assert.Equal(t, "memory", mode)
	b, err := svc.Balance(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, DefaultStartingBalance, b)

	svc, mode, err = NewService(Options{Mode: "sqlite", SQLitePath: ":memory:", StartingBalance: 7})
	require.NoError(t, err)
	defer svc.Close()
	assert.Equal(t, "sqlite", mode)

	_, _, err = NewService(Options{Mode: "mongo"})
	assert.Error(t, err)
}

func TestHTTPHandler_BalanceAndRecent(t *testing.T) {
	mem := NewMemoryService(300)
	require.NoError(t, mem.RecordHand(context.Background(), HandRecord{HandID: "h1", Players: []string{"dana"}}))
	mux := http.NewServeMux()
	NewHTTPHandler(auth.DevService{}, mem).RegisterRoutes(mux)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/ledger/balance", nil)
	r.Header.Set("Authorization", "Bearer dana")
	mux.ServeHTTP(w, r)
	require.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"player_id":"dana","balance":300}`, w.Body.String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/ledger/hands/recent?token=dana&limit=5", nil))
	require.Equal(t, 200, w.Code)
	var body struct {
		Items []HandRecord `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "h1", body.Items[0].HandID)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/ledger/hands/recent?token=erin", nil))
	require.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/ledger/balance", nil))
	assert.Equal(t, 401, w.Code)
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, defaultPageSize, pageSize(""))
	assert.Equal(t, defaultPageSize, pageSize("abc"))
	assert.Equal(t, defaultPageSize, pageSize("-3"))
	assert.Equal(t, 7, pageSize("7"))
	assert.Equal(t, maxPageSize, pageSize("5000"))
}
