package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/campus-eats/app"
	"github.com/upb/campus-eats/internal/observability"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.AccessLog(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(deps.Metrics.Middleware)

	// The frontend sends the session cookie cross-origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health and metrics
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)
	if deps.Config.Observability.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// OpenID Connect login flow
	r.Get("/login", deps.AuthHandler.HandleLogin)
	r.Get("/auth/openid/return", deps.AuthHandler.HandleCallback)
	r.Post("/auth/openid/return", deps.AuthHandler.HandleCallback)
	r.Get("/logout", deps.AuthHandler.HandleLogout)
	r.Get("/login-failed", deps.UserHandler.HandleLoginFailed)

	// Session-gated API
	r.Route("/api", func(r chi.Router) {
		r.Use(deps.SessionMiddleware.RequireSession)

		r.Get("/user", deps.UserHandler.HandleCurrentUser)
		r.Get("/restaurants", deps.CatalogHandler.HandleListRestaurants)
		r.Get("/restaurants/{id}", deps.CatalogHandler.HandleGetRestaurant)
		r.Get("/orders", deps.CatalogHandler.HandleListOrders)
		r.Get("/orders/{id}", deps.CatalogHandler.HandleGetOrder)

		// Staff-only liveness
		r.With(deps.SessionMiddleware.RequireRole(models.RoleStaff, models.RoleAdmin)).
			Get("/staff/ping", func(w http.ResponseWriter, r *http.Request) {
				_ = utils.WriteOK(w, map[string]string{"status": "ok"})
			})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
