// Package api provides the HTTP API for NutriWeek.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nutriweek/nutriweek/internal/api/handler"
	"github.com/nutriweek/nutriweek/internal/api/middleware"
	"github.com/nutriweek/nutriweek/internal/auth"
	"github.com/nutriweek/nutriweek/internal/featureflags"
	"github.com/nutriweek/nutriweek/internal/flow"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	AuthService        *auth.Service
	FlowRegistry       *flow.Registry
	FeatureFlagService *featureflags.Service
	Ops                handler.OpsConfig
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "nutriweek-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsCfg := cfg.Ops
	opsCfg.Version = cfg.Version
	opsCfg.BuildTime = cfg.BuildTime
	opsCfg.Flags = cfg.FeatureFlagService
	opsHandler := handler.NewOpsHandler(opsCfg)
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.FlowRegistry)
	meHandler := handler.NewMeHandler(cfg.FlowRegistry, cfg.AuthService)
	flowHandler := handler.NewFlowHandler(cfg.FlowRegistry, cfg.AuthService, cfg.FeatureFlagService)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)               // 10 req/min
	expensiveRateLimit := middleware.RateLimitByUser(middleware.ExpensiveRateLimit)   // 30 req/min
	standardUserRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit) // 100 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)       // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
			// logout-all requires authentication
			r.With(authMiddleware).Post("/logout-all", authHandler.LogoutAll)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Me endpoints (authenticated) - user-based rate limiting
		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardUserRateLimit)
			r.Get("/", meHandler.GetMe)

			// Body metric logs
			r.Get("/logs", meHandler.ListLogs)
			r.Post("/logs", meHandler.AddLog)

			// Saved plans
			r.Get("/plans", meHandler.ListSavedPlans)
		})

		// Flow endpoints (authenticated) - the planning state machine.
		// Generation-triggering actions get the stricter expensive limit.
		r.Route("/flow", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardUserRateLimit)

			r.Get("/", flowHandler.GetState)

			r.With(expensiveRateLimit).Post("/profile", flowHandler.SubmitProfile)
			r.With(expensiveRateLimit).Post("/shopping-list:confirm", flowHandler.ConfirmList)
			r.With(expensiveRateLimit).Post("/shopping-list:consolidate", flowHandler.Consolidate)
			r.With(expensiveRateLimit).Post("/shopping-list/item:substitute", flowHandler.SubstituteItem)
			r.With(expensiveRateLimit).Post("/plan/food:substitute", flowHandler.SubstituteFood)

			r.Post("/shopping-list/item:toggle", flowHandler.ToggleItem)
			r.Post("/plans", flowHandler.SavePlan)
			r.Post("/plans/{planID}:activate", flowHandler.ActivatePlan)
			r.Delete("/plans/{planID}", flowHandler.DeletePlan)
			r.Post("/navigate", flowHandler.Navigate)
			r.Post("/reset", flowHandler.Reset)
			r.Post("/error:ack", flowHandler.AcknowledgeError)
		})

		// Admin endpoints (authenticated) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)

			// Feature flags management
			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
