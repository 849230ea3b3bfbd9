// Package server provides the HTTP server and routing for Kassa.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/kassaflow/kassa/internal/auth"
	"github.com/kassaflow/kassa/internal/config"
	"github.com/kassaflow/kassa/internal/database"
	"github.com/kassaflow/kassa/internal/modules/backup"
	"github.com/kassaflow/kassa/internal/modules/currencies"
	"github.com/kassaflow/kassa/internal/modules/entries"
	"github.com/kassaflow/kassa/internal/modules/reports"
	"github.com/kassaflow/kassa/internal/modules/transactions"
)

// Config holds the server wiring.
type Config struct {
	Log          zerolog.Logger
	DB           *database.DB
	Config       *config.Config
	Whitelist    *auth.Whitelist
	Currencies   *currencies.Handler
	Entries      *entries.Handler
	Transactions *transactions.Handler
	Reports      *reports.Handler
	Backup       *backup.Handler
	JobNames     func() []string
}

// Server is the HTTP front end for the web app and operations tooling.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	db       *database.DB
	cfg      *config.Config
	jobNames func() []string
	startup  time.Time
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		db:       cfg.DB,
		cfg:      cfg.Config,
		jobNames: cfg.JobNames,
		startup:  time.Now(),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Telegram-Init-Data"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes. Everything under /api except the
// system status requires Telegram init-data auth once a whitelist or
// the enforce flag is configured.
func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/system/status", s.handleSystemStatus)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAPIAuth(s.cfg.TelegramBotToken, cfg.Whitelist, s.cfg.WebAppEnforce, s.log))

			r.Get("/currencies", cfg.Currencies.HandleList)

			r.Route("/entries", func(r chi.Router) {
				r.Post("/", cfg.Entries.HandleCreate)
				r.Get("/", cfg.Entries.HandleList)
				r.Delete("/{id}", cfg.Entries.HandleDelete)
			})
			r.Get("/balances", cfg.Entries.HandleBalances)
			r.Get("/debts", cfg.Entries.HandleDebts)

			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", cfg.Transactions.HandleCreate)
				r.Post("/confirm", cfg.Transactions.HandleConfirmDeal)
				r.Get("/", cfg.Transactions.HandleList)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/profit", cfg.Reports.HandleProfit)
				r.Get("/daily", cfg.Reports.HandleDaily)
				r.Get("/monthly", cfg.Reports.HandleMonthly)
			})

			r.Post("/backup/run", cfg.Backup.HandleRun)
		})
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
