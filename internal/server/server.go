// Package server provides the HTTP display server for HandSpeak.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/handspeak/internal/app"
	"github.com/ayusman/handspeak/internal/capture"
	"github.com/ayusman/handspeak/internal/server/api"
	"github.com/ayusman/handspeak/internal/symbol"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	// App may be nil, in which case only health and static files are served.
	App *app.App
	// StreamInterval is the MJPEG frame period; defaults to the camera rate.
	StreamInterval time.Duration
	Logger         logrus.FieldLogger
}

// Server represents the HTTP server for the HandSpeak application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    logrus.FieldLogger

	mu  sync.Mutex
	srv *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	if config.StreamInterval <= 0 {
		config.StreamInterval = time.Second / capture.DefaultFPS
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    config.Logger.WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if a := s.config.App; a != nil {
		labels := api.NewLabelHandler(a, s.config.Logger)
		s.mux.Handle("/api/labels", labels)
		s.mux.Handle("/api/labels/", labels)

		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/mode", s.handleMode)
		s.mux.Handle("/api/stream", NewStreamHandler(a, s.config.StreamInterval))
		s.mux.Handle("/api/events", NewEventsHandler(a, s.config.Logger))
	}

	// Serve static files if StaticDir is configured
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

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["running"] = a.Running()
		response["camera"] = a.Health()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleState handles GET requests to /api/state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.config.App.Latest())
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type modeResponse struct {
	Mode      string `json:"mode"`
	ModeLabel string `json:"mode_label"`
	Changed   bool   `json:"changed"`
}

// handleMode handles /api/mode. GET reports the mode; POST with
// {"mode": "..."} selects one and POST with an empty body toggles.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	a := s.config.App

	switch r.Method {
	case http.MethodGet:
		mode := a.Machine().Mode()
		writeJSON(w, http.StatusOK, modeResponse{Mode: mode.String(), ModeLabel: mode.Label()})
	case http.MethodPost:
		var req modeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
			return
		}

		if strings.TrimSpace(req.Mode) == "" {
			mode := a.Toggle()
			writeJSON(w, http.StatusOK, modeResponse{Mode: mode.String(), ModeLabel: mode.Label(), Changed: true})
			return
		}

		mode, err := symbol.ParseMode(req.Mode)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		changed := a.SetMode(mode)
		writeJSON(w, http.StatusOK, modeResponse{Mode: mode.String(), ModeLabel: mode.Label(), Changed: changed})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	s.log.WithField("addr", addr).Info("HTTP server listening")

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
