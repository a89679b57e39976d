// internal/handlers/status.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/relay/internal/lobby"
	"github.com/sirupsen/logrus"
)

type healthResponse struct {
	Status      string `json:"status"`
	Lobbies     int    `json:"lobbies"`
	Connections int    `json:"connections"`
}

// HealthHandler reports liveness with the current lobby and identity counts.
func HealthHandler(m *lobby.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		lobbies, identities := m.Stats()
		writeJSON(w, http.StatusOK, healthResponse{
			Status:      "ok",
			Lobbies:     lobbies,
			Connections: identities,
		})
	}
}

// ListLobbiesHandler returns a snapshot of every live lobby ordered by code.
func ListLobbiesHandler(m *lobby.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, m.Lobbies())
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}
