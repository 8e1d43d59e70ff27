// Package api exposes the OreQuest engine over HTTP. It is operational
// glue only: handlers translate JSON requests into engine calls and
// engine sentinel errors into status codes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/orequest/oreq/internal/engine"
	"github.com/orequest/oreq/pkg/log"
)

// Server serves the engine facade over HTTP
type Server struct {
	engine *engine.Engine
	logger *log.Logger
	router *mux.Router
	srv    *http.Server
}

// Config holds HTTP server configuration
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer creates a new API server
func NewServer(eng *engine.Engine, logger *log.Logger, cfg *Config) *Server {
	s := &Server{
		engine: eng,
		logger: logger.WithComponent("api"),
		router: mux.NewRouter(),
	}

	s.routes()

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/sessions", s.handleStartSession).Methods(http.MethodPost)
	s.router.HandleFunc("/api/sessions/{id:[0-9]+}", s.handleGetSession).Methods(http.MethodGet)
	s.router.HandleFunc("/api/sessions/{id:[0-9]+}/mine", s.handleRecordMiningEvent).Methods(http.MethodPost)
	s.router.HandleFunc("/api/sessions/{id:[0-9]+}/end", s.handleEndSession).Methods(http.MethodPost)
	s.router.HandleFunc("/api/sessions/{id:[0-9]+}/claims", s.handleCreateClaim).Methods(http.MethodPost)
	s.router.HandleFunc("/api/claims/{id:[0-9]+}", s.handleGetClaim).Methods(http.MethodGet)
	s.router.HandleFunc("/api/claims/{id:[0-9]+}/reveal", s.handleRevealClaim).Methods(http.MethodPost)
	s.router.HandleFunc("/api/miners/{miner}/stats", s.handleGetStats).Methods(http.MethodGet)
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the routing handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving. Blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.srv.Shutdown(ctx)
}
