package ledger

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"holdem-live/apps/server/internal/auth"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	queryTimeout    = 5 * time.Second
)

// HTTPHandler exposes the caller's own account: balance and hand history.
type HTTPHandler struct {
	sessions auth.Service
	ledger   Service
}

type balanceResponse struct {
	PlayerID string `json:"player_id"`
	Balance  int64  `json:"balance"`
}

type recentHandsResponse struct {
	Items []HandRecord `json:"items"`
}

func NewHTTPHandler(sessions auth.Service, ledgerService Service) *HTTPHandler {
	return &HTTPHandler{sessions: sessions, ledger: ledgerService}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/ledger/balance", auth.WithPlayer(h.sessions, h.balance))
	mux.HandleFunc("/api/ledger/hands/recent", auth.WithPlayer(h.sessions, h.recentHands))
}

func (h *HTTPHandler) balance(w http.ResponseWriter, r *http.Request, playerID string) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	balance, err := h.ledger.Balance(ctx, playerID)
	if err != nil {
		auth.WriteError(w, http.StatusInternalServerError, "query balance failed")
		return
	}
	auth.WriteJSON(w, http.StatusOK, balanceResponse{PlayerID: playerID, Balance: balance})
}

func (h *HTTPHandler) recentHands(w http.ResponseWriter, r *http.Request, playerID string) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	items, err := h.ledger.ListRecentHands(ctx, playerID, pageSize(r.URL.Query().Get("limit")))
	if err != nil {
		auth.WriteError(w, http.StatusInternalServerError, "query recent hands failed")
		return
	}
	if items == nil {
		items = []HandRecord{}
	}
	auth.WriteJSON(w, http.StatusOK, recentHandsResponse{Items: items})
}

// pageSize clamps ?limit= to [1, maxPageSize].
func pageSize(raw string) int {
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil || n <= 0:
		return defaultPageSize
	case n > maxPageSize:
		return maxPageSize
	default:
		return n
	}
}
