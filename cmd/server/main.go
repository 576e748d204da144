// Command server runs the 10x Cards HTTP API.
//
// Startup order:
//  1. Load .env (best effort) and environment configuration.
//  2. Configure zerolog (level, optional pretty console output).
//  3. Initialize OpenTelemetry tracing (no-op unless OTEL_ENABLED).
//  4. Open the SQLite database and run migrations.
//  5. Select the proposal provider: OpenRouter when an API key is configured,
//     the deterministic mock otherwise.
//  6. Build the Gin engine, register routes, and serve until SIGINT/SIGTERM,
//     then drain connections gracefully.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dmanix/damix-10x-cards-sub000/internal/config"
	httpapi "github.com/dmanix/damix-10x-cards-sub000/internal/http"
	"github.com/dmanix/damix-10x-cards-sub000/internal/observability"
	"github.com/dmanix/damix-10x-cards-sub000/internal/proposals"
	"github.com/dmanix/damix-10x-cards-sub000/internal/repo"
	"github.com/dmanix/damix-10x-cards-sub000/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	// Local development convenience; missing .env files are fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger := log.With().Str("service", cfg.OTEL.ServiceName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			logger.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}

	provider := selectProvider(cfg, &logger)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, provider, &logger, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("base_path", cfg.APIBasePath).
			Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	logger.Info().Msg("server stopped")
}

// selectProvider picks the proposal provider once, at wiring time. An
// OPENROUTER_API_KEY selects the real client; otherwise the deterministic
// mock serves proposals, with its low-quality threshold derived from the
// configured minimum input length.
func selectProvider(cfg config.Config, logger *zerolog.Logger) proposals.Provider {
	if cfg.OpenRouter.APIKey != "" {
		p, err := proposals.NewOpenRouterProvider(cfg.OpenRouter.APIKey, cfg.OpenRouter.Model, cfg.OpenRouter.Timeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("openrouter provider setup failed")
		}
		logger.Info().Str("provider", p.Name()).Str("model", cfg.OpenRouter.Model).Msg("proposal provider selected")
		return p
	}
	p := proposals.NewMockProvider(cfg.GenerationMinLength + 200)
	logger.Info().Str("provider", p.Name()).Msg("proposal provider selected")
	return p
}
