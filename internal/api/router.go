package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devpad-platform/devpad/internal/database"
	"github.com/devpad-platform/devpad/internal/events"
	mw "github.com/devpad-platform/devpad/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Auth handlers
	Register http.HandlerFunc
	Login    http.HandlerFunc
	Refresh  http.HandlerFunc
	Logout   http.HandlerFunc

	// Project and file handlers
	CreateProject       http.HandlerFunc
	ListProjects        http.HandlerFunc
	GetProject          http.HandlerFunc
	SaveFile            http.HandlerFunc
	ListFiles           http.HandlerFunc
	GetFile             http.HandlerFunc
	DeleteFile          http.HandlerFunc
	OwnershipMiddleware func(http.Handler) http.Handler

	// Assistant handlers
	Ask            http.HandlerFunc
	AskInProject   http.HandlerFunc
	GetUsage       http.HandlerFunc
	GetUserStats   http.HandlerFunc
	ProjectHistory http.HandlerFunc

	// Audit handlers
	ListAuditLogs http.HandlerFunc

	// Auth middleware
	AuthMiddleware func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	AuthRateLimiter    func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, eventsClient *events.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe — always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe — checks DB and NATS
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"nats":     "healthy",
		}

		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if eventsClient != nil && !eventsClient.Healthy() {
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if eventsClient == nil {
			health["nats"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public) — optionally rate-limited
		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthRateLimiter != nil {
				r.Use(cfg.AuthRateLimiter)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)
				r.Post("/logout", h.Logout)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			// Project routes
			r.Route("/projects", func(r chi.Router) {
				r.Post("/", h.CreateProject)
				r.Get("/", h.ListProjects)

				r.Route("/{projectID}", func(r chi.Router) {
					r.Use(h.OwnershipMiddleware)
					r.Get("/", h.GetProject)

					r.Route("/files", func(r chi.Router) {
						r.Put("/", h.SaveFile)
						r.Get("/", h.ListFiles)
						r.Get("/{filename}", h.GetFile)
						r.Delete("/{filename}", h.DeleteFile)
					})

					// Project-scoped assistant call and history
					r.Post("/assistant", h.AskInProject)
					r.Get("/assistant/history", h.ProjectHistory)
				})
			})

			// Assistant routes without project context
			r.Route("/assistant", func(r chi.Router) {
				r.Post("/ask", h.Ask)
				r.Get("/usage", h.GetUsage)
				r.Get("/stats", h.GetUserStats)
			})

			// Audit trail
			r.Get("/audit", h.ListAuditLogs)
		})
	})

	return r
}
