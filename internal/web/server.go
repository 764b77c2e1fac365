package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/kiosk"
	"github.com/classgate/kiosk/internal/notify"
	"github.com/classgate/kiosk/internal/recognizer"
	"github.com/classgate/kiosk/internal/web/middleware"
)

// Server represents the kiosk web server.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	session    *kiosk.Session
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// NewServer creates the web server around an existing kiosk session.
func NewServer(cfg *config.Config, session *kiosk.Session, client *recognizer.Client, notes *notify.Center) *Server {
	r := chi.NewRouter()

	baseCtx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:     cfg,
		router:     r,
		session:    session,
		baseCtx:    baseCtx,
		cancelBase: cancel,
	}

	// Middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes(client, notes)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long timeout for SSE
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Info("starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and the kiosk session.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down web server")

	s.cancelBase()
	if err := s.session.Close(); err != nil {
		slog.Warn("session close failed", "error", err)
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
