// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: New receives the opened store and session
// store and wires repositories → services → handlers → routes in one place.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/espresso-self/internal/auth"
	"github.com/sakif/espresso-self/internal/config"
	"github.com/sakif/espresso-self/internal/handler"
	"github.com/sakif/espresso-self/internal/middleware"
	"github.com/sakif/espresso-self/internal/service"
	"github.com/sakif/espresso-self/internal/session"
	"github.com/sakif/espresso-self/internal/storage"
	"github.com/sakif/espresso-self/web"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store and the session store once New succeeds, and
// closes both when Start returns.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	store    *storage.Store
	sessions session.Store
}

// New builds the router. cfg should already be validated.
func New(cfg *config.Config, store *storage.Store, sessions session.Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		store:    store,
		sessions: sessions,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// sessionSecret returns the configured secret, or a random one. A random
// secret logs everybody out whenever the process restarts.
func (s *Server) sessionSecret() (string, error) {
	if s.config.Session.Secret != "" {
		return s.config.Session.Secret, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	s.logger.Warn("SESSION_SECRET not set, using a random secret; sessions end on restart")
	return hex.EncodeToString(b), nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	public                               logged in (session.Require)
//	GET  /  /body_home_nouser            GET  /body_home_user
//	GET  /search_cafe       POST same    GET  /search_cafe_user   POST same
//	GET  /cafe1                          GET  /cafe1_user
//	POST /search_review                  POST /search_review_user
//	GET  /profile_user                   GET  /add_review  /edit_review
//	GET  /login  /register               POST /submitReview  /submitEditedReview
//	POST /submitForm                     POST /delete/{id}
//	POST /body_home_user (login)         GET  /edit_profile  POST /submitEditUser
//	POST /logout                         POST /helpful  /submitResponse
//	GET  /auth/github/*  (if configured)
//	GET  /healthz  /static/*
//
// MIDDLEWARE ORDER MATTERS:
// RequestID and RealIP run before Logger so it can log both, Recoverer
// turns panics into 500s, and sessions.Load resolves the cookie for every
// route after that.
func (s *Server) setupRoutes() error {
	secret, err := s.sessionSecret()
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(secret, s.config.Session.TTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	sessions := session.NewManager(s.sessions, tokens, s.config.Session.SecureCookie, s.logger)

	render, err := handler.NewRenderer(web.FS, s.logger)
	if err != nil {
		return err
	}

	// === Services ===
	passwords := auth.NewPasswordService(s.config.Password.Cost)
	authService := service.NewAuthService(s.store.Users, passwords, s.logger)
	catalog := service.NewCatalogService(s.store.Users, s.store.Cafes, s.store.Reviews, s.logger)
	reviews := service.NewReviewService(s.store.Users, s.store.Cafes, s.store.Reviews, s.logger)
	profiles := service.NewProfileService(s.store.Users, passwords, s.logger)

	// === Handlers ===
	var github *auth.GitHubProvider
	if gh := s.config.GitHub; gh.Enabled() {
		github = auth.NewGitHubProvider(gh.ClientID, gh.ClientSecret, gh.CallbackURL)
	}
	authHandler := handler.NewAuthHandler(authService, sessions, github, render, s.logger)
	cafeHandler := handler.NewCafeHandler(catalog, render, s.logger)
	reviewHandler := handler.NewReviewHandler(reviews, catalog, render, s.logger)
	profileHandler := handler.NewProfileHandler(catalog, profiles, render, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(sessions.Load)

	// === Static Files ===
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return fmt.Errorf("opening static assets: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	s.router.Get("/healthz", handler.HandleHealth(s.store, s.logger))

	// === Public Routes ===
	s.router.Get("/", cafeHandler.HandleHome(false))
	s.router.Get("/body_home_nouser", cafeHandler.HandleHome(false))
	s.router.Get("/search_cafe", cafeHandler.HandleSearch(false))
	s.router.Post("/search_cafe", cafeHandler.HandleSearchSubmit(false))
	s.router.Get("/cafe1", cafeHandler.HandleCafe(false))
	s.router.Post("/search_review", cafeHandler.HandleSearchReview(false))
	s.router.Get("/profile_user", profileHandler.HandleProfile)

	s.router.Get("/login", authHandler.HandleLoginPage)
	s.router.Get("/register", authHandler.HandleRegisterPage)
	s.router.Post("/submitForm", authHandler.HandleRegister)
	s.router.Post("/body_home_user", authHandler.HandleLogin)
	s.router.Post("/logout", authHandler.HandleLogout)

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	// === Logged-in Routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(session.Require)

		r.Get("/body_home_user", cafeHandler.HandleHome(true))
		r.Get("/search_cafe_user", cafeHandler.HandleSearch(true))
		r.Post("/search_cafe_user", cafeHandler.HandleSearchSubmit(true))
		r.Get("/cafe1_user", cafeHandler.HandleCafe(true))
		r.Post("/search_review_user", cafeHandler.HandleSearchReview(true))

		r.Get("/add_review", reviewHandler.HandleAddReview)
		r.Get("/edit_review", reviewHandler.HandleEditReview)
		r.Post("/submitReview", reviewHandler.HandleSubmitReview)
		r.Post("/submitEditedReview", reviewHandler.HandleSubmitEditedReview)
		r.Post("/delete/{id}", reviewHandler.HandleDelete)
		r.Post("/helpful", reviewHandler.HandleHelpful)
		r.Post("/submitResponse", reviewHandler.HandleRespond)

		r.Get("/edit_profile", profileHandler.HandleEditProfile)
		r.Post("/submitEditUser", profileHandler.HandleSubmitEditUser)
	})

	return nil
}

// Start serves until SIGINT/SIGTERM or ctx is cancelled, then shuts down
// gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Close the session store and the document store
func (s *Server) Start(ctx context.Context) error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.store.Driver),
			slog.String("sessions", s.config.Session.Store),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) close() {
	if err := s.sessions.Close(); err != nil {
		s.logger.Error("closing session store", slog.String("error", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Close(ctx); err != nil {
		s.logger.Error("closing store", slog.String("error", err.Error()))
	}
}
