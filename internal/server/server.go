// Package server provides the HTTP dashboard of the mudra controller.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/telemetry"
)

// Pauser is implemented by the control loop to suspend dispatching.
type Pauser interface {
	Paused() bool
	SetPaused(paused bool)
}

// Config holds the server configuration. Routes whose dependency is nil
// are not registered.
type Config struct {
	Logger    *slog.Logger
	StaticDir string
	SessionID string
	Store     *store.Store
	Latest    *telemetry.Latest
	Hub       *Hub
	Preview   *Preview
	Pauser    Pauser
}

// Server represents the HTTP server for the dashboard.
type Server struct {
	config Config
	logger *slog.Logger
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		config: config,
		logger: logger,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Latest != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
	}

	if s.config.Store != nil {
		events := api.NewEventsHandler(s.config.Store)
		s.mux.Handle("/api/events", events)
		s.mux.Handle("/api/events/", events)

		sessions := api.NewSessionsHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.Pauser != nil {
		s.mux.HandleFunc("/api/pause", s.handlePause)
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/live", s.config.Hub)
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", s.config.Preview)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

type statusResponse struct {
	Session    string                  `json:"session,omitempty"`
	Running    bool                    `json:"running"`
	Frames     uint64                  `json:"frames"`
	Gesture    gesture.Gesture         `json:"gesture"`
	Label      string                  `json:"label"`
	Cursor     cursor.Point            `json:"cursor"`
	Dragging   bool                    `json:"dragging"`
	ScrollLock control.ScrollDirection `json:"scroll_lock"`
	Paused     bool                    `json:"paused"`
	UpdatedAt  *time.Time              `json:"updated_at,omitempty"`
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := statusResponse{Session: s.config.SessionID, Gesture: gesture.None, Label: gesture.None.Label()}
	if f, ok := s.config.Latest.Get(); ok {
		resp.Running = true
		resp.Frames = f.Seq
		resp.Gesture = f.Gesture
		resp.Label = f.Label
		resp.Cursor = f.State.Cursor
		resp.Dragging = f.State.Dragging
		resp.ScrollLock = f.State.ScrollLock
		resp.Paused = f.Paused
		resp.UpdatedAt = &f.Time
	}
	if s.config.Pauser != nil {
		resp.Paused = s.config.Pauser.Paused()
	}

	writeJSON(w, http.StatusOK, resp)
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

// handlePause reports the pause state on GET and changes it on POST.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req pauseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
			return
		}
		s.config.Pauser.SetPaused(req.Paused)
		s.logger.Info("pause changed from dashboard", "paused", req.Paused)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, pauseRequest{Paused: s.config.Pauser.Paused()})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
