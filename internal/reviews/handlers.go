package reviews

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BrewReview/BR-Backend/internal/store"
	"github.com/BrewReview/BR-Backend/internal/utils"
)

type Handler struct {
	store *Store
	// Reviews flagged at least this many times are hidden pending review.
	flagHideThreshold int
}

func NewHandler(s *Store, flagHideThreshold int) *Handler {
	return &Handler{store: s, flagHideThreshold: flagHideThreshold}
}

func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	var body struct {
		Rating  int    `json:"rating"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	review := Review{
		ID:      utils.GenerateUUID(),
		UserID:  userID,
		Rating:  body.Rating,
		Content: body.Content,
	}
	if err := h.store.Create(review); err != nil {
		http.Error(w, "Failed to create review", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(review)
}

func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListVisible()
	if err != nil {
		http.Error(w, "Failed to list reviews", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (h *Handler) FlagHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	count, err := h.store.Flag(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Review not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to flag review", http.StatusInternalServerError)
		return
	}

	if h.flagHideThreshold > 0 && count >= h.flagHideThreshold {
		if err := h.store.SetHidden(id, true); err != nil {
			http.Error(w, "Failed to hide review", http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Review flagged")
}
