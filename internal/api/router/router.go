package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pratik-mahalle/leafdoctor/internal/api/handlers"
	"github.com/pratik-mahalle/leafdoctor/internal/api/middleware"
	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/metrics"
)

type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Diagnosis *handlers.DiagnosisHandler
	Trial     *handlers.TrialHandler
	Analytics *handlers.AnalyticsHandler
	Assistant *handlers.AssistantHandler
	Billing   *handlers.BillingHandler
	Uploads   *handlers.UploadHandler
}

// Limiters holds the request budgets. API applies to every request by
// client address, Diagnose to diagnosis uploads per user.
type Limiters struct {
	API      middleware.Limiter
	Diagnose middleware.Limiter
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers, limiters Limiters) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(metrics.Middleware)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL, cfg.Server.IsDevelopment()))
	r.Use(middleware.RateLimit("api", limiters.API, middleware.IPKey, log))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Handle("/metrics", metrics.Handler())

		// Health checks
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)

		r.Post("/api/register", h.Auth.Register)
		r.Post("/api/login", h.Auth.Login)
		r.Post("/api/auth/register", h.Auth.Register)
		r.Post("/api/auth/login", h.Auth.Login)
		r.Post("/api/auth/refresh", h.Auth.RefreshToken)

		// Stripe authenticates with its signature header
		r.Post("/api/webhook", h.Billing.Webhook)
	})

	// Logout works with or without a valid session
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuthMiddleware(cfg.Auth.JWTSecret))

		r.Post("/api/logout", h.Auth.Logout)
		r.Post("/api/auth/logout", h.Auth.Logout)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
		r.Use(middleware.SecurityHeaders)

		r.Get("/api/user", h.Auth.Me)
		r.Get("/api/auth/me", h.Auth.Me)

		// Diagnoses
		r.With(middleware.RateLimit("diagnose", limiters.Diagnose, middleware.UserKey, log)).
			Post("/api/diagnose", h.Diagnosis.Diagnose)
		r.Route("/api/diagnoses", func(r chi.Router) {
			r.Get("/", h.Diagnosis.List)
			r.Get("/recent", h.Diagnosis.Recent)
			r.Get("/{id}", h.Diagnosis.Get)
		})
		r.Get("/uploads/{name}", h.Uploads.Serve)

		// Trial
		r.Post("/api/trial/start", h.Trial.Start)
		r.Get("/api/trial/status", h.Trial.Status)

		// Analytics
		r.Route("/api/analytics", func(r chi.Router) {
			r.Get("/usage", h.Analytics.Usage)
			r.Get("/metrics", h.Analytics.Usage)
			r.Get("/disease-stats", h.Analytics.DiseaseStats)
			r.Get("/top-diseases", h.Analytics.DiseaseStats)
			r.Get("/activities", h.Analytics.Activities)
			r.Post("/log-activity", h.Analytics.LogActivity)
		})

		r.Post("/api/voice-assistant", h.Assistant.Ask)
		r.Post("/api/subscription/confirm", h.Billing.ConfirmSubscription)
	})

	return r
}
