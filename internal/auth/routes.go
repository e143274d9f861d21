package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the authentication endpoints. The session, admin and
// login rate-limit middlewares are injected so this package stays free of
// middleware wiring.
func SetupRoutes(h *Handler, session, admin, loginLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/register", h.RegisterHandler)
	r.With(loginLimit).Post("/login", h.LoginHandler)

	r.Get("/oauth/{provider}/login", h.OAuthStartHandler)
	r.Get("/oauth/{provider}/callback", h.OAuthCallbackHandler)

	r.Group(func(r chi.Router) {
		r.Use(session)
		r.Post("/logout", h.LogoutHandler)
		r.Get("/me", h.MeHandler)
		r.Post("/update-password", h.UpdatePasswordHandler)
		r.Post("/appeal", h.AppealHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(session)
		r.Use(admin)
		r.Post("/users/{id}/ban", h.BanHandler)
		r.Post("/users/{id}/unban", h.UnbanHandler)
	})

	return r
}
