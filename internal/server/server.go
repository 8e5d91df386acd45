// Package server exposes the portfolio views and refresh operations as a
// JSON REST API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
)

// Server wraps the HTTP server and the services it fronts.
type Server struct {
	config    *common.Config
	logger    *common.Logger
	server    *http.Server
	ingest    interfaces.IngestService
	market    interfaces.MarketDataService
	portfolio interfaces.PortfolioService
}

// NewServer creates a new HTTP REST API server.
func NewServer(
	config *common.Config,
	logger *common.Logger,
	ingest interfaces.IngestService,
	market interfaces.MarketDataService,
	portfolio interfaces.PortfolioService,
) *Server {
	s := &Server{
		config:    config,
		logger:    logger,
		ingest:    ingest,
		market:    market,
		portfolio: portfolio,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/portfolio/balance", s.handlePortfolioBalance)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
