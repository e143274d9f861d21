package twofactor

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/BrewReview/BR-Backend/internal/store"
	"github.com/BrewReview/BR-Backend/internal/utils"
)

// Handler exposes the setup flow over HTTP. One in-flight flow is kept per
// user; starting again replaces (and cancels) the previous one.
type Handler struct {
	engine *Engine
	users  UserDirectory

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewHandler(engine *Engine, users UserDirectory) *Handler {
	return &Handler{engine: engine, users: users, flows: map[string]*Flow{}}
}

func (h *Handler) flowFor(userID string) (*Flow, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.flows[userID]
	return f, ok
}

func (h *Handler) startFlow(userID string) (*Flow, error) {
	h.mu.Lock()
	if old, ok := h.flows[userID]; ok {
		old.Cancel()
	}
	f := NewFlow(h.engine, h.users, userID)
	h.flows[userID] = f
	h.mu.Unlock()

	if err := f.Start(); err != nil {
		h.dropFlow(userID, f)
		return nil, err
	}
	return f, nil
}

func (h *Handler) dropFlow(userID string, f *Flow) {
	h.mu.Lock()
	if h.flows[userID] == f {
		delete(h.flows, userID)
	}
	h.mu.Unlock()
}

func (h *Handler) SetupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	flow, err := h.startFlow(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Couldn't find user", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to start two-factor setup", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"first_time":       flow.FirstTime(),
		"provisioning_uri": flow.ProvisioningURI(),
	})
}

func (h *Handler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	flow, ok := h.flowFor(userID)
	if !ok {
		http.Error(w, "No two-factor setup in progress", http.StatusNotFound)
		return
	}

	var body struct {
		Digits [6]string `json:"digits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	accepted, err := flow.Submit(body.Digits)
	if err != nil {
		if errors.Is(err, store.ErrInvalidArgument) {
			// Re-arm so the next submit can proceed.
			_ = flow.Retry()
			http.Error(w, "Each slot must hold one digit", http.StatusBadRequest)
			return
		}
		// Secret persist failures are fatal for this flow.
		h.dropFlow(userID, flow)
		http.Error(w, "Failed to save two-factor secret", http.StatusInternalServerError)
		return
	}

	if accepted {
		h.dropFlow(userID, flow)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"accepted": true})
		return
	}

	// Rejected; arm the retry affordance so the next submit can proceed.
	if err := flow.Retry(); err != nil {
		h.dropFlow(userID, flow)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]bool{"accepted": false})
}

func (h *Handler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	if flow, ok := h.flowFor(userID); ok {
		flow.Cancel()
		h.dropFlow(userID, flow)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"accepted": false})
}
