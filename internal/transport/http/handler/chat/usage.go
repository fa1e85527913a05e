package chat

import (
	"encoding/json"
	"net/http"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware/auth"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/types"
)

// GetUsage returns the user's current token budget cycle (GET /api/usage).
// Reading rolls an expired cycle forward.
func (h *Handlers) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		types.WriteError(w, http.StatusUnauthorized, types.ErrAuthentication("authentication required"))
		return
	}

	rec, err := h.Ledger.LoadOrInit(r.Context(), userID)
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to load usage"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}

// GetSubscription returns the user's plan and request budget period
// (GET /api/subscription).
func (h *Handlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		types.WriteError(w, http.StatusUnauthorized, types.ErrAuthentication("authentication required"))
		return
	}

	rec, err := h.Subscriptions.LoadOrInit(r.Context(), userID)
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to load subscription"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}
