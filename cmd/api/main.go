package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jhonattanreales21/rutasalud/internal/api/handlers"
	"github.com/jhonattanreales21/rutasalud/internal/api/routes"
	"github.com/jhonattanreales21/rutasalud/internal/bootstrap"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	"github.com/jhonattanreales21/rutasalud/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	core, err := bootstrap.Build(ctx, cfg, metrics, bootstrap.Options{
		WithGeocoding:   true,
		WithSharedCache: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire recommendation core")
	}
	defer core.Close()

	// Build the default table up front so bad source data fails the
	// deployment instead of the first request.
	if _, err := core.Correspondence.BuildTable(ctx, bootstrap.DefaultParams(cfg)); err != nil {
		log.Fatal().Err(err).Msg("Failed to build default correspondence table")
	}

	checks := map[string]handlers.HealthCheck{}
	if core.Redis != nil {
		checks["redis"] = core.Redis.Ping
	}
	if core.Postgres != nil {
		checks["postgres"] = core.Postgres.Ping
	}

	var geolocationHandler *handlers.GeolocationHandler
	var geocoder handlers.Geocoder
	if core.Geocoding != nil {
		geocoder = core.Geocoding
		geolocationHandler = handlers.NewGeolocationHandler(core.Geocoding)
	}

	router := routes.NewRouter(
		handlers.NewHealthHandler(cfg.OTEL.ServiceVersion, checks),
		handlers.NewCorrespondenceHandler(core.Correspondence, bootstrap.DefaultParams(cfg)),
		handlers.NewRecommendationHandler(core.Recommendation, geocoder),
		geolocationHandler,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
