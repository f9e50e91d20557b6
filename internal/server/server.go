// Package server exposes the capture service over HTTP for remote control.
// A WebSocket channel pushes live status so clients do not need to poll.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/audiolibrelab/duocap/internal/service"
	"github.com/audiolibrelab/duocap/internal/session"
)

// statusPushInterval is how often the WebSocket channel emits a snapshot.
const statusPushInterval = 1 * time.Second

// Server represents the web server for controlling DuoCap
type Server struct {
	service  service.Service
	port     string
	upgrader websocket.Upgrader
}

// StatusResponse represents the JSON response for status endpoint
type StatusResponse struct {
	State     session.State `json:"state"`
	Session   *session.Info `json:"session,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

// StopResponse represents the JSON response for the stop endpoint
type StopResponse struct {
	Recorded   bool   `json:"recorded"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	SizeBytes  int    `json:"size_bytes,omitempty"`
}

// SourcesResponse represents the JSON response for sources endpoint
type SourcesResponse struct {
	Sources []SourceInfo `json:"sources"`
}

// SourceInfo contains information about a capture source
type SourceInfo struct {
	Name      string `json:"name"`
	IsMonitor bool   `json:"is_monitor"`
}

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a new web server instance
func NewServer(svc service.Service, port string) *Server {
	return &Server{
		service: svc,
		port:    port,
		upgrader: websocket.Upgrader{
			// Local control surface; the CLI has the same reach.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start starts the web server and blocks until the listener fails
func (s *Server) Start() error {
	http.HandleFunc("/api/status", s.handleStatus)
	http.HandleFunc("/api/start", s.handleStart)
	http.HandleFunc("/api/stop", s.handleStop)
	http.HandleFunc("/api/config", s.handleConfig)
	http.HandleFunc("/api/sources", s.handleSources)
	http.HandleFunc("/ws", s.handleWebSocket)

	slog.Info("Control server listening", "port", s.port)
	return http.ListenAndServe(":"+s.port, nil)
}

func (s *Server) statusSnapshot() StatusResponse {
	state, info := s.service.Status()
	return StatusResponse{
		State:     state,
		Session:   info,
		LastError: s.service.GetLastError(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.statusSnapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.service.StartRecording(r.Context()); err != nil {
		s.writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, s.statusSnapshot())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.service.StopRecording(r.Context())
	if err != nil {
		// Not a transport failure; the session simply produced nothing usable.
		s.writeJSON(w, http.StatusOK, StopResponse{Recorded: false, Message: err.Error()})
		return
	}
	if result == nil {
		s.writeJSON(w, http.StatusOK, StopResponse{Recorded: false, Message: "not recording"})
		return
	}

	s.writeJSON(w, http.StatusOK, StopResponse{
		Recorded:   true,
		DurationMs: result.Duration.Milliseconds(),
		SampleRate: result.SampleRate,
		SizeBytes:  len(result.Container),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.service.GetConfig())
	case http.MethodPut:
		s.handleUpdateConfig(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	if err := s.service.UpdateConfig(updates); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.GetConfig())
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sources, err := s.service.ListSources()
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := SourcesResponse{Sources: make([]SourceInfo, 0, len(sources))}
	for _, src := range sources {
		resp.Sources = append(resp.Sources, SourceInfo{Name: src.Name, IsMonitor: src.IsMonitor})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleWebSocket streams status snapshots until the client disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	slog.Debug("WebSocket client connected", "remote", conn.RemoteAddr())

	ticker := time.NewTicker(statusPushInterval)
	defer ticker.Stop()

	if err := conn.WriteJSON(s.statusSnapshot()); err != nil {
		return
	}
	for range ticker.C {
		if err := conn.WriteJSON(s.statusSnapshot()); err != nil {
			slog.Debug("WebSocket client disconnected", "remote", conn.RemoteAddr())
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Debug("Failed to encode response", "error", err)
	}
}
