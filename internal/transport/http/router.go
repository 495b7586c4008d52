package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vanshavali/internal/platform/middleware"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Registrations *RegistrationHandler
	Members       *MemberHandler
	Rejections    *RejectedHandler
	Audit         *AuditHandler
	Validator     middleware.TokenValidator
	Logger        *slog.Logger
	Health        func(ctx context.Context) error
}

// NewRouter builds the full route tree. Form submission and parent search
// are public (the registration form runs unauthenticated); everything else
// under /api/family requires an admin token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(req.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/family", func(r chi.Router) {
		r.Post("/", deps.Registrations.Submit)
		r.Get("/search-parents", deps.Members.SearchParents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
			r.Use(middleware.RequireAdmin(deps.Logger))

			r.Get("/registrations", deps.Registrations.List)
			r.Get("/registrations/{id}", deps.Registrations.Get)
			r.Patch("/registrations/{id}/status", deps.Registrations.UpdateStatus)
			r.Post("/registrations/bulk-status", deps.Registrations.BulkUpdateStatus)

			r.Get("/all", deps.Members.List)
			r.Get("/members/{id}", deps.Members.Get)
			r.Put("/members/{id}", deps.Members.Update)
			r.Delete("/members/{id}", deps.Members.Delete)

			r.Get("/rejected", deps.Rejections.List)
			r.Delete("/rejected/{id}", deps.Rejections.Delete)
			r.Delete("/rejected", deps.Rejections.Clear)

			r.Get("/audit", deps.Audit.List)
		})
	})

	return r
}
