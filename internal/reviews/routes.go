package reviews

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler, session func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.ListHandler)

	r.Group(func(r chi.Router) {
		r.Use(session)
		r.Post("/", h.CreateHandler)
		r.Post("/{id}/flag", h.FlagHandler)
	})

	return r
}
