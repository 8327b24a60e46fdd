// Package server exposes the coordinator over WebSocket.
//
// Each upgraded connection gets a read pump and a write pump. The read pump
// decodes frames and forwards them to the coordinator; the write pump drains
// the session queue, sends the application-level ping and writes the close
// frame when the coordinator ends the session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/pong-arena/internal/auth"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
)

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	sendBuffer      = 256
)

// Coordinator is the part of multiplayer.Coordinator the server drives.
type Coordinator interface {
	Send(msg multiplayer.CoordinatorMessage)
	Stats(ctx context.Context) (multiplayer.Stats, error)
}

// Config holds listener and liveness settings.
type Config struct {
	Address         string
	MaxMessageBytes int64
	PingInterval    time.Duration // how often the server pings each client
	PongTimeout     time.Duration // close after this long without inbound traffic
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Address:         ":8080",
		MaxMessageBytes: 4096,
		PingInterval:    5 * time.Second,
		PongTimeout:     15 * time.Second,
	}
}

// Server accepts WebSocket connections and hands them to the coordinator.
type Server struct {
	cfg      Config
	coord    Coordinator
	auth     auth.Authenticator
	log      *log.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	conns sync.WaitGroup
}

// New creates a server. Zero config values fall back to DefaultConfig.
func New(cfg Config, coord Coordinator, authn auth.Authenticator, logger *log.Logger) *Server {
	def := DefaultConfig()
	if cfg.Address == "" {
		cfg.Address = def.Address
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = def.MaxMessageBytes
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = def.PongTimeout
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:   cfg,
		coord: coord,
		auth:  authn,
		log:   logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients are served from another origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /ws/game/{id}", s.serveWS(multiplayer.RouteGame))
	s.mux.HandleFunc("GET /ws/lobby/{id}", s.serveWS(multiplayer.RouteLobby))
	s.mux.HandleFunc("GET /ws/tournament", s.serveWS(multiplayer.RouteTournament))
	s.mux.HandleFunc("GET /healthz", s.serveHealth)
	return s
}

// Handler returns the HTTP handler with every route registered.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run listens until ctx is cancelled, then shuts the listener down and
// waits a bounded time for open connections to finish.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}

	// Hijacked WebSocket connections are not tracked by http.Server.
	waited := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-shutdownCtx.Done():
		s.log.Warn("connections still open after shutdown timeout")
	}
	return nil
}

func (s *Server) serveWS(route multiplayer.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		identity, err := s.auth.Authenticate(r)
		if err != nil {
			s.log.Debug("rejected upgrade", "path", r.URL.Path, "err", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ws, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("websocket upgrade failed", "path", r.URL.Path, "err", err)
			return
		}

		sess := multiplayer.NewChannelSession(multiplayer.SessionID(uuid.NewString()), identity, sendBuffer)
		c := newConn(ws, sess, s.coord, s.cfg, s.log)
		s.log.Debug("connection opened", "session", sess.ID(), "player", identity.ID, "route", route, "id", id)

		s.conns.Add(1)
		defer s.conns.Done()

		s.coord.Send(multiplayer.ConnectMsg{Session: sess, Route: route, ID: id})
		go c.writePump()
		c.readPump()
	}
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.coord.Stats(r.Context())
	if err != nil {
		http.Error(w, "coordinator unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.log.Warn("write health response", "err", err)
	}
}
