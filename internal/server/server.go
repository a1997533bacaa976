// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects the store, services,
// handlers, middleware, and routes. It decides:
// - Which snapshot backend persists the store
// - Which token scheme authenticates bearer tokens
// - Which URL patterns map to which handler functions
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and passes it to New, which builds:
//
//	SnapshotStore (jsonfile | sqlite) → store.Store → AuthService / SetService → handlers
//
// This is the "composition root" pattern: all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/flipit/internal/auth"
	"github.com/sakif/flipit/internal/config"
	"github.com/sakif/flipit/internal/handler"
	"github.com/sakif/flipit/internal/middleware"
	"github.com/sakif/flipit/internal/repository"
	"github.com/sakif/flipit/internal/repository/jsonfile"
	sqliteRepo "github.com/sakif/flipit/internal/repository/sqlite"
	"github.com/sakif/flipit/internal/service"
	"github.com/sakif/flipit/internal/store"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the snapshot backend. When the server shuts down we close
// it, which for SQLite flushes the WAL and releases the file lock.
type Server struct {
	router    *chi.Mux
	config    config.Config
	logger    *slog.Logger
	snapshots repository.SnapshotStore
	store     *store.Store
	tokens    auth.TokenScheme
}

// New creates a new Server from a validated config.
//
// WIRING ORDER:
//  1. Open the snapshot backend named by STORE_BACKEND
//  2. Load the entity store from it (a corrupt snapshot starts empty,
//     an unreadable one fails New)
//  3. Build the password verifier and the token scheme
//  4. Build services and handlers, then wire routes
//
// Extra store options (for example store.WithIDFunc) are passed through.
func New(cfg config.Config, logger *slog.Logger, opts ...store.Option) (*Server, error) {
	snapshots, err := openSnapshots(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(context.Background(), snapshots, logger, opts...)
	if err != nil {
		snapshots.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		snapshots.Close()
		return nil, fmt.Errorf("creating password service: %w", err)
	}

	tokens, err := newTokenScheme(cfg, st)
	if err != nil {
		snapshots.Close()
		return nil, fmt.Errorf("creating token scheme: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		snapshots: snapshots,
		store:     st,
		tokens:    tokens,
	}
	s.setupRoutes(passwords)

	return s, nil
}

// openSnapshots picks the persistence backend.
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func openSnapshots(cfg config.Config) (repository.SnapshotStore, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return db, nil
	case config.BackendJSON, "":
		fs, err := jsonfile.New(cfg.DataPath)
		if err != nil {
			return nil, fmt.Errorf("opening json store: %w", err)
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newTokenScheme(cfg config.Config, users auth.UserDirectory) (auth.TokenScheme, error) {
	switch cfg.TokenScheme {
	case config.SchemeJWT:
		return auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL, users)
	case config.SchemeUserID, "":
		return auth.NewUserIDTokens(users), nil
	default:
		return nil, fmt.Errorf("unknown token scheme %q", cfg.TokenScheme)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                              → liveness
// POST   /api/register                         → create account
// POST   /api/login                            → check credentials
// GET    /api/sets                             → list own sets       [bearer]
// POST   /api/sets                             → create set          [bearer]
// GET    /api/sets/{setID}                     → get set with cards  [bearer]
// PUT    /api/sets/{setID}                     → update set          [bearer]
// DELETE /api/sets/{setID}                     → delete set          [bearer]
// POST   /api/sets/{setID}/cards               → add card            [bearer]
// PUT    /api/sets/{setID}/cards/{cardID}      → update card         [bearer]
// DELETE /api/sets/{setID}/cards/{cardID}      → delete card         [bearer]
// POST   /api/stats                            → 501                 [bearer]
// OPTIONS *                                    → 200, answered by the CORS middleware
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. CORS: stamps Allow-Origin on everything, answers OPTIONS
// 5. Recoverer: catches panics and returns 500 instead of crashing
func (s *Server) setupRoutes(passwords auth.PasswordVerifier) {
	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS())
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500

	// DEPENDENCY CHAIN:
	//   s.store implements service.UserStore, service.SetStore and auth.UserDirectory
	//   services receive the store behind those interfaces
	//   handlers receive the services
	authService := service.NewAuthService(s.store, s.tokens, passwords, s.logger)
	setService := service.NewSetService(s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	setHandler := handler.NewSetHandler(setService, s.logger)

	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireBearer(s.tokens))

			r.Get("/sets", setHandler.HandleList)
			r.Post("/sets", setHandler.HandleCreate)
			r.Get("/sets/{setID}", setHandler.HandleGet)
			r.Put("/sets/{setID}", setHandler.HandleUpdate)
			r.Delete("/sets/{setID}", setHandler.HandleDelete)

			r.Post("/sets/{setID}/cards", setHandler.HandleAddCard)
			r.Put("/sets/{setID}/cards/{cardID}", setHandler.HandleUpdateCard)
			r.Delete("/sets/{setID}/cards/{cardID}", setHandler.HandleDeleteCard)

			r.Post("/stats", handler.HandleStats)
		})
	})
}

// Handler exposes the fully wired router, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the snapshot backend. Start calls it on shutdown; tests
// that never call Start call it directly.
func (s *Server) Close() error {
	return s.snapshots.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (SHUTDOWN_TIMEOUT)
// 3. Close the snapshot backend
//
// Every mutation is flushed before its response is written, so once step 2
// completes there is nothing left to persist.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("backend", s.config.StoreBackend),
			slog.String("token_scheme", s.config.TokenScheme),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
