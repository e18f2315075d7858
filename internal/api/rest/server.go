package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/stintstats/internal/platform/metrics"
)

// Options configures the REST server beyond its handlers.
type Options struct {
	Port        string
	CORSOrigins []string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	// UpdateGauges runs before each /metrics scrape.
	UpdateGauges func()
}

// Server represents the REST API server
type Server struct {
	port    string
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new REST API server. backfillSvc may be nil when no
// database is configured.
func NewServer(opts Options, deps Dependencies, backfillSvc BackfillService) *Server {
	handler := NewHandler(deps)
	backfillHandler := NewBackfillHandler(backfillSvc)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	if opts.Logger != nil {
		router.Use(LoggingMiddleware(opts.Logger))
	}
	if opts.Metrics != nil {
		router.Use(metrics.RequestMiddleware(opts.Metrics))
	}

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics.Handler(opts.UpdateGauges)).Methods("GET")
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Games
	api.HandleFunc("/games", handler.GetGames).Methods("GET")
	api.HandleFunc("/games/{gameID}", handler.GetGame).Methods("GET")
	api.HandleFunc("/games/{gameID}/stints", handler.GetGameStints).Methods("GET")
	api.HandleFunc("/games/{gameID}/stint-stats", handler.GetGameStintStats).Methods("GET")
	api.HandleFunc("/games/{gameID}/players", handler.GetGameBoxScore).Methods("GET")
	api.HandleFunc("/games/{gameID}/lineups", handler.GetGameLineups).Methods("GET")
	api.HandleFunc("/games/{gameID}/reconciliation", handler.GetGameReconciliation).Methods("GET")
	api.HandleFunc("/games/{gameID}/process", handler.ProcessGame).Methods("POST")
	api.HandleFunc("/reconciliation/mismatches", handler.GetMismatchedGames).Methods("GET")

	// Teams
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")

	// Players
	api.HandleFunc("/players/{name}/games", handler.GetPlayerGames).Methods("GET")
	api.HandleFunc("/players/{name}/stints", handler.GetPlayerStints).Methods("GET")
	api.HandleFunc("/players/{name}/trend", handler.GetPlayerPerformanceTrend).Methods("GET")

	// Backfill operations
	api.HandleFunc("/backfill", backfillHandler.HandleBackfillRequest).Methods("POST")
	api.HandleFunc("/backfill/status", backfillHandler.HandleBackfillStatus).Methods("GET")
	api.HandleFunc("/backfill/jobs/{jobID}", backfillHandler.HandleBackfillJob).Methods("GET")

	// CORS wraps the router so preflight requests are answered before
	// method matching.
	root := CORSMiddleware(opts.CORSOrigins)(router)

	return &Server{
		port:    opts.Port,
		handler: root,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", opts.Port),
			Handler:           root,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
