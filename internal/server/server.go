// Package server wires the dependency graph and the route table. It is the
// composition root: main.go hands it a Config and it assembles database,
// services, session manager, providers, and handlers in one place.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dodontommy/what-the-game/internal/auth"
	"github.com/dodontommy/what-the-game/internal/config"
	"github.com/dodontommy/what-the-game/internal/handler"
	"github.com/dodontommy/what-the-game/internal/middleware"
	sqliteRepo "github.com/dodontommy/what-the-game/internal/repository/sqlite"
	"github.com/dodontommy/what-the-game/internal/service"
	"github.com/dodontommy/what-the-game/internal/session"
)

// Server owns the router, the database connection, and the HTTP lifecycle.
// The database is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency chain assembled.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the services, and maps routes.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	sessions := session.NewManager(tokens, s.config.SecureCookies)

	providers := auth.Registry{}
	if s.config.GoogleClientID != "" {
		google := auth.NewGoogleProvider(
			s.config.GoogleClientID,
			s.config.GoogleClientSecret,
			s.config.CallbackURL("google"),
		)
		providers[google.Name()] = google
	}
	if s.config.FacebookClientID != "" {
		facebook := auth.NewFacebookProvider(
			s.config.FacebookClientID,
			s.config.FacebookClientSecret,
			s.config.CallbackURL("facebook"),
		)
		providers[facebook.Name()] = facebook
	}
	if s.config.GOGClientID != "" {
		gog := auth.NewGOGProvider(
			s.config.GOGClientID,
			s.config.GOGClientSecret,
			s.config.CallbackURL("gog"),
		)
		providers[gog.Name()] = gog
	}
	if len(providers) == 0 {
		s.logger.Warn("no OAuth providers configured, login routes will 404")
	}

	authService := service.NewAuthService(
		s.db.Users(),
		s.db.Identities(),
		auth.NewPasswordService(),
		s.logger,
	)
	libraryService := service.NewLibraryService(
		s.db.Games(),
		s.db.Library(),
		s.db.Services(),
		s.logger,
	)
	recService := service.NewRecommendationService(s.db.Recommendations(), s.logger)

	homeHandler := handler.NewHomeHandler(sessions)
	authHandler := handler.NewAuthHandler(providers, authService, sessions, s.logger)
	libraryHandler := handler.NewLibraryHandler(libraryService, recService, s.logger)

	s.router.Get("/", homeHandler.HandleHome)

	s.router.Get("/auth/failure", authHandler.HandleFailure)
	s.router.Get("/auth/{provider}/login", authHandler.HandleLogin)
	s.router.Get("/auth/{provider}/callback", authHandler.HandleCallback)
	s.router.Post("/logout", authHandler.HandleLogout)

	s.router.Route("/api", func(r chi.Router) {
		// Public catalog reads.
		r.Get("/games", libraryHandler.HandleListGames)
		r.Get("/games/{id}", libraryHandler.HandleGetGame)

		// Everything else needs a session.
		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireAuth)

			r.Get("/me", authHandler.HandleMe)
			r.Post("/games", libraryHandler.HandleCreateGame)
			r.Get("/library", libraryHandler.HandleListLibrary)
			r.Post("/library", libraryHandler.HandleAddToLibrary)
			r.Put("/library/{id}", libraryHandler.HandleUpdateLibraryEntry)
			r.Get("/services", libraryHandler.HandleListServices)
			r.Put("/services", libraryHandler.HandleLinkService)
			r.Get("/services/{name}/library", libraryHandler.HandleServiceLibrary)
			r.Get("/recommendations", libraryHandler.HandleRecommendations)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.BaseURL),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Router exposes the assembled router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
