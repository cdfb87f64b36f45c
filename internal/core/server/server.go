package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/hexview/internal/core/config"
	"github.com/mohammed-shakir/hexview/internal/core/health"
	middleware "github.com/mohammed-shakir/hexview/internal/core/middleware"
	"github.com/mohammed-shakir/hexview/internal/core/router"
)

// NewHandler builds the full route tree. ready lists the dependencies
// probed by /readyz.
func NewHandler(cfg config.Config, logger *slog.Logger, deps router.Deps, ready map[string]health.Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(ready, cfg.Cache.OpTimeout))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	deps.Logger = logger
	router.Routes(r, deps, middleware.RateLimit(cfg.LocateRPS, cfg.LocateBurst))
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, deps router.Deps, ready map[string]health.Pinger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg, logger, deps, ready),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
