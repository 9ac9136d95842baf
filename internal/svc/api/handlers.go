// If you are AI: This file implements HTTP API handlers.
// All handlers are fast, allocation-light, and never block media paths.

package api

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// ServerResponse represents the /api/server response.
type ServerResponse struct {
	Version   string `json:"version"`
	Uptime    int64  `json:"uptime"` // seconds
	GoVersion string `json:"go_version"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleServer handles GET /api/server.
// Returns server version, uptime, and the Go runtime version.
// Allocation: JSON encoding only, no per-request heap churn.
func (s *Service) handleServer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	response := ServerResponse{
		Version:   "1.0.0",
		Uptime:    getCurrentTime() - s.startTime,
		GoVersion: runtime.Version(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleBot handles GET /api/bot.
// Returns the current bot instance state: configured, current frame id.
func (s *Service) handleBot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.bot == nil {
		s.writeJSON(w, http.StatusOK, BotStatus{Enabled: false})
		return
	}
	s.writeJSON(w, http.StatusOK, s.bot.BotStatus())
}

// handleSource handles GET /api/source.
// Returns the current video source connection state.
func (s *Service) handleSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.source == nil {
		s.writeJSON(w, http.StatusOK, SourceStatus{})
		return
	}
	s.writeJSON(w, http.StatusOK, s.source.SourceStatus())
}

// writeJSON writes a JSON response.
func (s *Service) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
