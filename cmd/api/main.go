// Package main provides the entrypoint for the NutriWeek API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/nutriweek/nutriweek/internal/account"
	"github.com/nutriweek/nutriweek/internal/api"
	"github.com/nutriweek/nutriweek/internal/api/handler"
	"github.com/nutriweek/nutriweek/internal/api/middleware"
	"github.com/nutriweek/nutriweek/internal/auth"
	"github.com/nutriweek/nutriweek/internal/database"
	"github.com/nutriweek/nutriweek/internal/featureflags"
	"github.com/nutriweek/nutriweek/internal/flow"
	"github.com/nutriweek/nutriweek/internal/nutrition"
	"github.com/nutriweek/nutriweek/internal/nutrition/gemini"
	"github.com/nutriweek/nutriweek/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "nutriweek-api"

	// Load .env for local development; ignored when absent.
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting NutriWeek API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize account repositories and facade
	stateRepo := account.NewPostgresStateRepository(pool)
	accountService := account.NewService(account.ServiceConfig{
		States: stateRepo,
		Logs:   account.NewPostgresLogRepository(pool),
		Plans:  account.NewPostgresSavedPlanRepository(pool),
		Logger: log,
	})
	log.Info().Msg("account service initialized")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
	})

	authService := auth.NewService(auth.ServiceConfig{
		JWTService:  jwtService,
		UserRepo:    auth.NewPostgresUserRepository(pool),
		RefreshRepo: auth.NewPostgresRefreshTokenRepository(pool),
		Bootstrap:   stateRepo,
		Logger:      log,
	})
	log.Info().Msg("auth service initialized")

	// Initialize the generation gateway. Without an API key the service
	// runs degraded: flow endpoints that need generation return 503.
	var generator nutrition.Generator
	var breakerState func() string
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		client := gemini.NewClient(gemini.ClientConfig{
			APIKey: apiKey,
			Model:  os.Getenv("GEMINI_MODEL"),
			Logger: log,
		})
		generator = client
		breakerState = func() string { return client.BreakerState().String() }
		log.Info().Msg("generation gateway initialized")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set - plan generation disabled")
	}
	nutritionService := nutrition.NewService(nutrition.ServiceConfig{
		Generator: generator,
		Logger:    log,
	})

	// Initialize feature flags repository and service
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Initialize the flow session registry
	registry := flow.NewRegistry(flow.RegistryConfig{
		Generator: nutritionService,
		Store:     accountService,
		Logger:    log,
	})
	log.Info().Msg("flow registry initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		AuthService:        authService,
		FlowRegistry:       registry,
		FeatureFlagService: ffService,
		Ops: handler.OpsConfig{
			DB:           pool,
			Generator:    nutritionService,
			BreakerState: breakerState,
		},
	})

	// Create HTTP server. Plan generation holds the request open for the
	// whole upstream retry ladder in the worst case, so the write timeout
	// must sit above that budget or the caller sees a dropped connection
	// instead of the mapped error.
	generationBudget := nutrition.DefaultRetryPolicy(log).MaxElapsed(gemini.DefaultTimeout)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: generationBudget + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
