// Package server wires the application together: router, middleware, route
// table, and graceful shutdown. It is the composition root — every
// dependency chain (DB → store → service → handler) is assembled here and
// nowhere else.
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

	"github.com/sakif/gift-registry/internal/auth"
	"github.com/sakif/gift-registry/internal/handler"
	"github.com/sakif/gift-registry/internal/middleware"
	sqliteRepo "github.com/sakif/gift-registry/internal/repository/sqlite"
	"github.com/sakif/gift-registry/internal/service"
)

// Config holds everything the server needs from the environment. main.go
// fills it in; nothing below this layer reads env vars.
type Config struct {
	Port int

	// DBPath is the SQLite database file, or ":memory:" for tests.
	DBPath string

	// JWTSecret signs admin tokens. Minimum 16 characters.
	JWTSecret string

	// AdminPasswordHash is the bcrypt hash of the admin password, produced
	// by cmd/hashpw.
	AdminPasswordHash string
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed and the file lock
// released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the server: it opens the database, builds the token and
// password services, and wires the route table.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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

// setupRoutes configures middleware and the full route table.
//
// Public:
//
//	GET    /api/gifts                          list (?status=available|taken)
//	GET    /api/gifts/{id}                     one gift
//	POST   /api/gifts/{id}/reserve             reserve
//	POST   /api/gifts/{id}/unreserve           self-service release
//	GET    /api/big-gifts                      list
//	GET    /api/big-gifts/{id}                 one big gift
//	POST   /api/big-gifts/{id}/contributions   contribute
//	POST   /api/admin/login                    password → session cookie
//	POST   /api/admin/logout                   clear cookie
//
// Admin (RequireAdmin):
//
//	GET    /api/admin/me
//	POST   /api/admin/tokens
//	GET/POST        /api/admin/gifts
//	GET/PUT/DELETE  /api/admin/gifts/{id}
//	POST            /api/admin/gifts/{id}/unreserve
//	GET/POST        /api/admin/big-gifts
//	GET/PUT/DELETE  /api/admin/big-gifts/{id}
func (s *Server) setupRoutes() error {
	// Middleware order: request ID first so everything downstream can log
	// it, Recoverer last so a panic still produces a logged 500.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	giftService := service.NewGiftService(s.db.Gifts, s.logger)
	bigGiftService := service.NewBigGiftService(s.db.BigGifts, s.logger)

	giftHandler := handler.NewGiftHandler(giftService)
	bigGiftHandler := handler.NewBigGiftHandler(bigGiftService)
	authHandler := handler.NewAuthHandler(tokens, passwords, s.config.AdminPasswordHash, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/gifts", giftHandler.HandleList)
		r.Get("/gifts/{id}", giftHandler.HandleGet)
		r.Post("/gifts/{id}/reserve", giftHandler.HandleReserve)
		r.Post("/gifts/{id}/unreserve", giftHandler.HandleUnreserveSelf)

		r.Get("/big-gifts", bigGiftHandler.HandleList)
		r.Get("/big-gifts/{id}", bigGiftHandler.HandleGet)
		r.Post("/big-gifts/{id}/contributions", bigGiftHandler.HandleAddContribution)

		r.Route("/admin", func(r chi.Router) {
			// Login and logout stay outside the gate: login is how a
			// session comes to exist, and logout must work with an
			// expired one.
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin(tokens))

				r.Get("/me", authHandler.HandleMe)
				r.Post("/tokens", authHandler.HandleCreateToken)

				r.Get("/gifts", giftHandler.HandleAdminList)
				r.Post("/gifts", giftHandler.HandleCreate)
				r.Get("/gifts/{id}", giftHandler.HandleAdminGet)
				r.Put("/gifts/{id}", giftHandler.HandleUpdate)
				r.Delete("/gifts/{id}", giftHandler.HandleDelete)
				r.Post("/gifts/{id}/unreserve", giftHandler.HandleAdminUnreserve)

				r.Get("/big-gifts", bigGiftHandler.HandleAdminList)
				r.Post("/big-gifts", bigGiftHandler.HandleCreate)
				r.Get("/big-gifts/{id}", bigGiftHandler.HandleAdminGet)
				r.Put("/big-gifts/{id}", bigGiftHandler.HandleUpdate)
				r.Delete("/big-gifts/{id}", bigGiftHandler.HandleDelete)
			})
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
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
