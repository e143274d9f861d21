package moderation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the moderation endpoints. Everything here is
// admin-only; the session and admin middlewares are injected.
func SetupRoutes(h *Handler, session, admin func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(session)
		r.Use(admin)
		r.Get("/words", h.ListWordsHandler)
		r.Post("/words", h.AddWordHandler)
		r.Delete("/words/{word}", h.DeleteWordHandler)
		r.Post("/auto-check", h.AutoCheckHandler)
		r.Post("/ai-check/{id}", h.AICheckHandler)
	})

	return r
}
