package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BrewReview/BR-Backend/internal/store"
	"github.com/BrewReview/BR-Backend/internal/utils"
)

// Handler carries the orchestrator plus the user store for profile reads.
type Handler struct {
	svc   *Service
	users UserStore
}

func NewHandler(svc *Service, users UserStore) *Handler {
	return &Handler{svc: svc, users: users}
}

const oauthExchangeTimeout = 15 * time.Second

// sessionCookie builds the session cookie. Local dev (no APP_ENV) runs over
// plain HTTP, so Secure is only set in production.
func sessionCookie(value string, expires time.Time) *http.Cookie {
	secure := os.Getenv("APP_ENV") == "production"
	return &http.Cookie{
		Name:     "session_id",
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Register(body.Username, body.Password, body.Email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidArgument):
			http.Error(w, "Username and password are required", http.StatusBadRequest)
		case errors.Is(err, store.ErrConflict):
			http.Error(w, "Username already taken", http.StatusConflict)
		default:
			http.Error(w, "Failed to register user", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"user_id":  user.UserID,
		"username": user.Username,
	})
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid Data", http.StatusBadRequest)
		return
	}

	resp, err := h.svc.PasswordLogin(body.Username, body.Password)
	if err != nil {
		// Unknown user and wrong password are distinct errors internally,
		// but the response body must not reveal which one happened.
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrUnauthenticated) {
			http.Error(w, "Invalid Credentials", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, sessionCookie(resp.SessionID, time.Now().Add(DefaultSessionTTL)))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// OAuthStartHandler redirects the browser to the provider's consent page.
// The state nonce round-trips in a short-lived cookie.
func (h *Handler) OAuthStartHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	provider, ok := h.svc.Provider(name)
	if !ok {
		http.Error(w, "Unknown provider", http.StatusNotFound)
		return
	}

	state := utils.GenerateUUID()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) OAuthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusUnauthorized)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), oauthExchangeTimeout)
	defer cancel()

	resp, err := h.svc.OAuthLogin(ctx, name, code)
	if err != nil {
		// Provider trouble becomes a failed login response, never a crash;
		// the cause stays in the server log.
		log.Printf("[auth] oauth login via %s failed: %v", name, err)
		status := http.StatusUnauthorized
		if errors.Is(err, store.ErrUpstreamFailure) {
			status = http.StatusBadGateway
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
		return
	}
	if !resp.AuthenticationSuccessful {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(resp)
		return
	}

	http.SetCookie(w, sessionCookie(resp.SessionID, time.Now().Add(DefaultSessionTTL)))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session_id")
	if err != nil {
		http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
		return
	}

	if _, err := h.svc.Logout(cookie.Value); err != nil {
		http.Error(w, "Failed to log out", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "session_id",
		Value:  "",
		MaxAge: -1,
		Path:   "/",
	})

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Logout successful")
}

func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}
	user.HashedPassword = ""

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *Handler) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Current and new password are required", http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdatePassword(userID, body.CurrentPassword, body.NewPassword); err != nil {
		switch {
		case errors.Is(err, store.ErrUnauthenticated):
			http.Error(w, "Invalid current password", http.StatusUnauthorized)
		case errors.Is(err, store.ErrInvalidArgument):
			http.Error(w, "Current and new password are required", http.StatusBadRequest)
		default:
			http.Error(w, "Failed to update password", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Password updated")
}

func (h *Handler) BanHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Ban(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to ban user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "User banned")
}

func (h *Handler) UnbanHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Unban(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to unban user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "User unbanned")
}

func (h *Handler) AppealHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	if err := h.svc.SubmitAppeal(userID); err != nil {
		if errors.Is(err, store.ErrInvalidArgument) {
			http.Error(w, "Only banned users can appeal", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to submit appeal", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Appeal submitted")
}
