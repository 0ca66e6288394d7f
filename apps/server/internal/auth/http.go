package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// PlayerHandler serves a request already bound to an authenticated player.
type PlayerHandler func(w http.ResponseWriter, r *http.Request, playerID string)

type HTTPHandler struct {
	sessions Service
}

func NewHTTPHandler(sessions Service) *HTTPHandler {
	return &HTTPHandler{sessions: sessions}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/me", WithPlayer(h.sessions, func(w http.ResponseWriter, _ *http.Request, playerID string) {
		WriteJSON(w, http.StatusOK, map[string]string{"player_id": playerID})
	}))
}

// WithPlayer guards a read-only endpoint: GET only, and the request must
// carry a token that resolves to a player.
func WithPlayer(sessions Service, next PlayerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		token := TokenFromRequest(r)
		if token == "" {
			WriteError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		playerID, ok := sessions.ResolveSession(token)
		if !ok {
			WriteError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		next(w, r, playerID)
	}
}

// TokenFromRequest reads the bearer header, falling back to the token
// query parameter for browser WebSocket clients that cannot set headers.
func TokenFromRequest(r *http.Request) string {
	const prefix = "Bearer "
	if raw := r.Header.Get("Authorization"); strings.HasPrefix(raw, prefix) {
		if token := strings.TrimSpace(raw[len(prefix):]); token != "" {
			return token
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
