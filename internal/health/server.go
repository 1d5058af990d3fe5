// Package health exposes a liveness endpoint for container orchestration.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// SessionCounter reports how many chat sessions are alive.
type SessionCounter interface {
	Len() int
}

type status struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func NewRouter(sessions SessionCounter) http.Handler {
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status{Status: "ok", Sessions: sessions.Len()})
	})

	return r
}

type Server struct {
	srv *http.Server
	log *slog.Logger
}

func New(addr string, sessions SessionCounter, log *slog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(sessions),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log: log,
	}
}

// Start serves until Stop is called.
func (s *Server) Start(ctx context.Context) {
	s.log.InfoContext(ctx, "Health server is listening",
		"addr", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.ErrorContext(ctx, "Health server failed",
			"error", err,
			"addr", s.srv.Addr)
	}
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.ErrorContext(ctx, "Failed to stop health server",
			"error", err)
	}
}
