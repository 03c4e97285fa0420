package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/handler"
	"github.com/boqueria/training-api/internal/logger"
	"github.com/boqueria/training-api/internal/router"
	"github.com/boqueria/training-api/internal/service"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Dur("upstream_timeout", cfg.ProxyTimeout).
		Msg("Starting quiz API proxy")

	if cfg.GASWebAppURL == "" {
		log.Fatal().Msg("GAS_WEB_APP_URL is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Initialize Services & Handlers ───────────────────────────────
	authService := service.NewAuthService(cfg)
	proxyService := service.NewProxyService(cfg.GASWebAppURL, cfg.GASAPIKey, cfg.ProxyTimeout, log)

	r := router.SetupProxyRouter(ctx,
		handler.NewProxyHandler(authService, proxyService, log),
		handler.NewSystemHandler(nil, log),
		cfg,
	)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Proxy listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// In-flight requests may wait on the upstream for the full proxy timeout.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ProxyTimeout+5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
