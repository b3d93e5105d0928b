package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"

	"github.com/viaviktor/rfisys/internal/accessrequest"
	"github.com/viaviktor/rfisys/internal/auth"
	"github.com/viaviktor/rfisys/internal/registration"
	"github.com/viaviktor/rfisys/internal/stakeholder"
	"github.com/viaviktor/rfisys/internal/transport/middleware"
)

// Handlers bundles the feature handlers the router mounts.
type Handlers struct {
	Auth          *auth.Handler
	AccessRequest *accessrequest.Handler
	Registration  *registration.Handler
	Stakeholder   *stakeholder.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
		})

		// public: access-request submission and token-gated registration
		r.Post("/access-requests", h.AccessRequest.Submit)
		r.Get("/register/validate", h.Registration.ValidateToken)
		r.Post("/register", h.Registration.Register)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.Middleware)

			pr.Group(func(ar chi.Router) {
				ar.Use(middleware.RequireAdmin(logger))
				ar.Get("/access-requests", h.AccessRequest.List)
				ar.Post("/access-requests/{id}/approve", h.AccessRequest.Approve)
				ar.Post("/access-requests/{id}/reject", h.AccessRequest.Reject)
			})

			pr.Route("/projects/{id}/stakeholders", func(sr chi.Router) {
				sr.Get("/", h.Stakeholder.List)

				sr.Group(func(ir chi.Router) {
					ir.Use(middleware.RequireInviter(logger))
					ir.Post("/", h.Stakeholder.Add)
					ir.Delete("/{contactID}", h.Stakeholder.Remove)
				})
			})

			pr.Group(func(ir chi.Router) {
				ir.Use(middleware.RequireInviter(logger))
				ir.Post("/registration-tokens", h.Registration.Issue)
			})
		})
	})
}
