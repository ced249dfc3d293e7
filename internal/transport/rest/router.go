package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/access-control/internal/transport/middleware"
	"github.com/go-chi/chi"
)

// AdminRole guards the administrative routes.
const AdminRole = "admin"

type Handlers struct {
	Health *HealthHandler
	Auth   *AuthHandler
	Access *AccessHandler
}

// RegisterAllRoutes mounts every route under /api/v1.
func RegisterAllRoutes(router *chi.Mux, h Handlers, authz middleware.Authorizer, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.SessionContext)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Get("/access", h.Access.Check)

		r.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireRoles(authz, AdminRole))
			ar.Get("/admin/roles", h.Access.ListRoles)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
}
