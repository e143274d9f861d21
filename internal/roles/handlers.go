package roles

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BrewReview/BR-Backend/internal/store"
	"github.com/BrewReview/BR-Backend/internal/utils"
)

// Handler exposes the upgrade-request endpoints. Creation is open to any
// signed-in user; listing, processing and sweeping are gated to admins by
// the route setup.
type Handler struct {
	requests  RequestStore
	processor *Processor
}

func NewHandler(requests RequestStore, processor *Processor) *Handler {
	return &Handler{requests: requests, processor: processor}
}

func (h *Handler) RequestUpgradeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	req := UpgradeRequest{
		ID:          utils.GenerateUUID(),
		UserID:      userID,
		DisplayName: body.DisplayName,
	}
	if err := h.requests.Create(req); err != nil {
		if errors.Is(err, store.ErrInvalidArgument) {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create upgrade request", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(req)
}

func (h *Handler) ListRequestsHandler(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.requests.ListAll()
	if err != nil {
		http.Error(w, "Failed to list upgrade requests", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reqs)
}

func (h *Handler) ProcessRequestHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing request id", http.StatusBadRequest)
		return
	}

	var body struct {
		Accept bool `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	if err := h.processor.Process(body.Accept, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "Upgrade request not found", http.StatusNotFound)
		case errors.Is(err, ErrNoHigherRole):
			http.Error(w, "User already holds the highest role", http.StatusConflict)
		case errors.Is(err, ErrInvalidRole):
			http.Error(w, "User has an invalid role", http.StatusConflict)
		default:
			http.Error(w, "Failed to process upgrade request", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"accepted": body.Accept})
}

func (h *Handler) SweepHandler(w http.ResponseWriter, r *http.Request) {
	removed, err := h.processor.SweepBanned()
	if err != nil {
		http.Error(w, "Sweep finished with errors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"removed": removed})
}
