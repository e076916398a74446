package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/CLillis357/VigilantIE/internal/api/handlers/http/admin"
	"github.com/CLillis357/VigilantIE/internal/api/handlers/http/public"
	"github.com/CLillis357/VigilantIE/internal/api/handlers/http/system"
	"github.com/CLillis357/VigilantIE/internal/config"
	"github.com/CLillis357/VigilantIE/internal/middleware"
)

type Handlers struct {
	Admin  *admin.Handler
	Public *public.Handler
	System *system.Handler
}

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, h Handlers, tokens middleware.TokenValidator) *Server {
	return &Server{
		logger: logger,
		router: InitRouter(ctx, cfg, h, tokens, logger),
		cfg:    *cfg,
	}
}

func InitRouter(ctx context.Context, cfg *config.Config, h Handlers, tokens middleware.TokenValidator, logger *slog.Logger) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	rl := cfg.RateLimit

	r.Route("/api/v1", func(api chi.Router) {
		// ADMIN
		api.Route("/admin", func(ar chi.Router) {
			ar.Use(middleware.APIKeyMiddleware(cfg.APIKey))
			ar.Use(middleware.Limit(ctx, rl.AdminRPS, rl.AdminBurst, rl.VisitorTTL, logger))

			ar.Get("/stats", h.Admin.AdminStats)
			ar.Post("/alerts/recompute", h.Admin.AdminRecompute)
			ar.Post("/reports/refresh", h.Admin.AdminRefresh)
		})

		// PUBLIC
		api.Group(func(pr chi.Router) {
			pr.Use(middleware.Limit(ctx, rl.PublicRPS, rl.PublicBurst, rl.VisitorTTL, logger))
			pr.Use(middleware.Auth(tokens, logger))

			pr.Get("/crime-types", h.Public.CrimeTypes)
			pr.Get("/assistance", h.Public.Assistance)

			pr.Route("/reports", func(rr chi.Router) {
				rr.Get("/", h.Public.ListReports)
				rr.Post("/", middleware.BindJSON(h.Public.CreateReport))
				rr.Delete("/{id}", h.Public.DeleteReport)
			})

			pr.With(middleware.RequireUser).Post("/positions", middleware.BindJSON(h.Public.UpdatePosition))
			pr.Get("/alerts/ws", h.Public.AlertStream)
		})

		// SYSTEM
		api.Get("/health", h.System.SystemHealth)
		api.Get("/ready", h.System.SystemReady)
	})

	return r
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("🚀 Starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("🛑 Shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
