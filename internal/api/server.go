// Package api is the host bridge: an HTTP and websocket surface through
// which a desktop front-end feeds pointer, click and window signals into the
// companion and receives its notifications.
//
// Every call into the companion is marshalled onto the event loop with
// Runner.Do; handlers never touch component state directly.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/talgya/desk-pet/internal/persistence"
	"github.com/talgya/desk-pet/internal/pet"
)

// Runner executes fn on the event loop and waits. engine.Loop satisfies it.
type Runner interface {
	Do(fn func()) error
}

// HistoryReader serves and clears stat history. persistence.DB satisfies it.
type HistoryReader interface {
	RecentStatEvents(ctx context.Context, limit int) ([]persistence.StatEvent, error)
	ClearStatEvents(ctx context.Context) error
}

// Server serves the companion over HTTP.
type Server struct {
	Pet  *pet.Companion
	Loop Runner
	DB   HistoryReader // nil = history endpoint unavailable
	Port int

	hub     *Hub
	limiter *RateLimiter
	unsub   func()
}

// NewServer subscribes the websocket hub to the companion's notifications.
func NewServer(p *pet.Companion, loop Runner, db HistoryReader, port int) (*Server, error) {
	s := &Server{
		Pet:     p,
		Loop:    loop,
		DB:      db,
		Port:    port,
		hub:     NewHub(),
		limiter: NewRateLimiter(30, time.Minute),
	}
	err := loop.Do(func() {
		s.unsub = p.Subscribe(s.broadcast)
	})
	if err != nil {
		s.limiter.Stop()
		return nil, fmt.Errorf("subscribe companion: %w", err)
	}
	return s, nil
}

func (s *Server) broadcast(n pet.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		slog.Warn("encode notification failed", "kind", n.Kind, "error", err)
		return
	}
	s.hub.Broadcast(data)
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Observation.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/needs", s.handleNeeds)
	mux.HandleFunc("GET /api/v1/needs/history", s.handleNeedsHistory)
	mux.HandleFunc("GET /api/v1/items", s.handleItems)
	mux.HandleFunc("GET /api/v1/effects", s.handleEffects)

	// Host signals.
	mux.HandleFunc("POST /api/v1/click", s.handleClick)
	mux.HandleFunc("POST /api/v1/hover", s.handleHover)
	mux.HandleFunc("POST /api/v1/pointer", s.handlePointer)
	mux.HandleFunc("POST /api/v1/window", s.handleWindow)
	mux.HandleFunc("POST /api/v1/state", s.handleState)
	mux.HandleFunc("POST /api/v1/emotion", s.handleEmotion)
	mux.HandleFunc("POST /api/v1/items/{id}/use", limitItemUse(s.limiter, s.handleUseItem))
	mux.HandleFunc("POST /api/v1/items/{id}/reset", s.handleResetItem)
	mux.HandleFunc("POST /api/v1/reset", s.handleReset)

	// Notification stream.
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	return corsMiddleware(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	slog.Info("HTTP API starting", "addr", ln.Addr().String())

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	err = srv.Shutdown(shutdownCtx)
	s.Close()
	slog.Info("HTTP API stopped")
	return err
}

// Close detaches from the companion and disconnects stream clients.
func (s *Server) Close() {
	s.limiter.Stop()
	s.hub.Close()
	if s.unsub != nil {
		unsub := s.unsub
		s.unsub = nil
		if err := s.Loop.Do(unsub); err != nil {
			slog.Debug("unsubscribe after loop stop", "error", err)
		}
	}
}

// corsMiddleware adds CORS headers for allowed front-end origins.
// Set PETD_CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
		"tauri://localhost":     true,
	}
	if env := os.Getenv("PETD_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// onLoop runs fn on the event loop, answering 503 if the loop is gone.
func (s *Server) onLoop(w http.ResponseWriter, fn func()) bool {
	if err := s.Loop.Do(fn); err != nil {
		http.Error(w, "pet is shutting down", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
