package lobby

import (
	"net/http"

	"holdem-live/apps/server/internal/auth"
)

// RegisterRoutes mounts the public table listing.
func (l *Lobby) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/tables", l.handleList)
}

func (l *Lobby) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		auth.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	auth.WriteJSON(w, http.StatusOK, struct {
		Tables []TableSummary `json:"tables"`
	}{Tables: l.ListTables()})
}
