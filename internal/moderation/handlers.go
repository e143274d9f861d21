package moderation

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/BrewReview/BR-Backend/internal/reviews"
	"github.com/BrewReview/BR-Backend/internal/store"
)

// ReviewLister feeds the auto-check batch endpoint.
type ReviewLister interface {
	ListAll() ([]reviews.Review, error)
}

type Handler struct {
	engine *Engine
	lister ReviewLister
}

func NewHandler(engine *Engine, lister ReviewLister) *Handler {
	return &Handler{engine: engine, lister: lister}
}

func (h *Handler) ListWordsHandler(w http.ResponseWriter, r *http.Request) {
	words := h.engine.Words()
	sort.Strings(words)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"words": words})
}

func (h *Handler) AddWordHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	if err := h.engine.AddWord(body.Word); err != nil {
		http.Error(w, "Failed to add word", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteWordHandler(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	if word == "" {
		http.Error(w, "Missing word", http.StatusBadRequest)
		return
	}

	if err := h.engine.DeleteWord(word); err != nil {
		http.Error(w, "Failed to delete word", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AutoCheckHandler runs the keyword screen over every stored review and
// returns one message per review.
func (h *Handler) AutoCheckHandler(w http.ResponseWriter, r *http.Request) {
	batch, err := h.lister.ListAll()
	if err != nil {
		http.Error(w, "Failed to load reviews", http.StatusInternalServerError)
		return
	}

	messages := h.engine.RunAutoCheck(r.Context(), batch)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"messages": messages})
}

// AICheckHandler runs the external classifier over a single review.
func (h *Handler) AICheckHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing review id", http.StatusBadRequest)
		return
	}

	var target *reviews.Review
	review, err := h.engine.reviews.GetByID(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Leave target nil; the engine reports not-found.
	case err != nil:
		http.Error(w, "Failed to load review", http.StatusInternalServerError)
		return
	default:
		target = &review
	}

	message, err := h.engine.AICheckReview(r.Context(), target)
	if err != nil {
		if errors.Is(err, store.ErrUpstreamFailure) {
			http.Error(w, "Classifier unavailable", http.StatusBadGateway)
			return
		}
		http.Error(w, "Failed to run AI check", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
