package twofactor

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the two-factor endpoints behind the injected session
// middleware.
func SetupRoutes(h *Handler, session func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(session)
		r.Post("/setup", h.SetupHandler)
		r.Post("/verify", h.VerifyHandler)
		r.Post("/cancel", h.CancelHandler)
	})

	return r
}
