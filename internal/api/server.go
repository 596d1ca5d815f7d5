package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bryanchriswhite/focusbridge/internal/logger"
	"github.com/bryanchriswhite/focusbridge/internal/status"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Server is the read-only status API
type Server struct {
	router   *mux.Router
	tracker  *status.Tracker
	upgrader websocket.Upgrader
}

// NewServer creates a status server backed by tracker
func NewServer(tracker *status.Tracker) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		tracker: tracker,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes. Keep them on the root router: a
// method mismatch on a subrouter route comes back as 404, not 405.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/foreground", s.handleForeground).Methods("GET")
	s.router.HandleFunc("/api/foreground/stream", s.handleForegroundStream)
}

// Handler returns the HTTP handler, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the API on addr until the listener fails
func (s *Server) Start(addr string) error {
	logger.WithComponent("api").Info().Str("addr", addr).Msg("Status API listening")

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithComponent("api").Debug().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.tracker.Snapshot())
}

func (s *Server) handleForeground(w http.ResponseWriter, r *http.Request) {
	fg := s.tracker.Snapshot().Foreground
	if fg == nil {
		http.Error(w, "no foreground process has been set yet", http.StatusNotFound)
		return
	}
	writeJSON(w, fg)
}

func (s *Server) handleForegroundStream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := s.tracker.Subscribe()
	defer s.tracker.Unsubscribe(updates)

	// Send the current foreground process first
	if fg := s.tracker.Snapshot().Foreground; fg != nil {
		if err := conn.WriteJSON(fg); err != nil {
			log.Debug().Err(err).Msg("WebSocket write failed")
			return
		}
	}

	// Clients only listen; a failed read means they went away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case fg, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(fg); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		}
	}
}
