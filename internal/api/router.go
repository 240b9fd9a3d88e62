package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/api/handler"
	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/auth"
	"github.com/rallyops/designops/internal/session"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	// DBPinger is nil when no store is configured.
	DBPinger    handler.Pinger
	Version     string
	OpenAPISpec []byte

	Sessions *session.Manager
	Records  access.Repository
	Tokens   *auth.TokenService
	// Keys is nil when no store is configured.
	Keys *auth.KeyService
	// Provider is nil when sign-in is not configured.
	Provider handler.IdentityProvider

	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string
	// AllowedOrigins enables CORS for a dashboard served from another
	// origin. Empty disables CORS.
	AllowedOrigins []string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", middleware.CSRFHeader, middleware.APIKeyHeader, "X-Request-ID"},
			ExposedHeaders:   []string{middleware.CSRFHeader, "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	authHandler := handler.NewAuthHandler(deps.Provider, deps.Sessions, deps.Tokens, deps.SecureCookies)
	r.Get("/auth/login", authHandler.Login)
	r.Get("/auth/callback", authHandler.Callback)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(deps.Sessions, deps.Tokens, deps.Keys))
		r.Use(middleware.CSRF(deps.CSRFKey, deps.SecureCookies, deps.TrustedOrigins))

		r.Get("/auth/csrf", authHandler.CSRFToken)
		r.Post("/auth/logout", authHandler.Logout)

		r.Route("/api", func(r chi.Router) {
			leagueHandler := handler.NewLeagueHandler()
			teamHandler := handler.NewTeamHandler()
			productHandler := handler.NewProductHandler()
			adminHandler := handler.NewAdminHandler(deps.Records, deps.Sessions)
			keyHandler := handler.NewKeyHandler(deps.Keys)

			// Identity and machine export
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(access.Viewer))
				r.Get("/me", handler.Me)
				r.Get("/v1/export", handler.Export)
			})

			// Catalog screens
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(access.Editor))
				r.Get("/leagues", leagueHandler.List)
				r.Get("/teams", teamHandler.List)
				r.Get("/products", productHandler.List)
				r.Post("/leagues", leagueHandler.Create)
				r.Patch("/leagues/{id}", leagueHandler.Update)
				r.Delete("/leagues/{id}", leagueHandler.Delete)
				r.Post("/teams", teamHandler.Create)
				r.Patch("/teams/{id}", teamHandler.Update)
				r.Delete("/teams/{id}", teamHandler.Delete)
				r.Post("/products", productHandler.Create)
				r.Patch("/products/{id}", productHandler.Update)
				r.Delete("/products/{id}", productHandler.Delete)
			})

			// Access management
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(access.Admin))
				r.Get("/admins", adminHandler.List)
				r.Put("/admins/{uid}", adminHandler.Put)
				r.Delete("/admins/{uid}", adminHandler.Delete)
				r.Get("/keys", keyHandler.List)
				r.Post("/keys", keyHandler.Create)
				r.Delete("/keys/{id}", keyHandler.Revoke)
			})
		})
	})

	return r
}
