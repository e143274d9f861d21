package roles

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the upgrade-request endpoints. The session and admin
// middlewares are injected so this package stays free of middleware wiring.
func SetupRoutes(h *Handler, session, admin func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(session)
		r.Post("/upgrade-requests", h.RequestUpgradeHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(session)
		r.Use(admin)
		r.Get("/upgrade-requests", h.ListRequestsHandler)
		r.Post("/upgrade-requests/{id}/process", h.ProcessRequestHandler)
		r.Post("/upgrade-requests/sweep", h.SweepHandler)
	})

	return r
}
