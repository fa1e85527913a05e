package chat

import (
	"encoding/json"
	"net/http"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/blob"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware/auth"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/types"
)

// ListSessions returns the user's sessions, newest first (GET /api/sessions).
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		types.WriteError(w, http.StatusUnauthorized, types.ErrAuthentication("authentication required"))
		return
	}

	sessions, err := h.Sessions.ListSessions(r.Context(), userID)
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to list sessions"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"sessions": sessions})
}

// GetSession returns one session document (GET /api/sessions/{id}).
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		types.WriteError(w, http.StatusUnauthorized, types.ErrAuthentication("authentication required"))
		return
	}

	doc, err := h.Sessions.LoadSession(r.Context(), userID, r.PathValue("id"))
	if err == blob.ErrNotFound {
		types.WriteError(w, http.StatusNotFound, types.ErrNotFound("session not found"))
		return
	}
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to load session"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// DeleteSession removes a session (DELETE /api/sessions/{id}).
// Deleting a session that does not exist succeeds.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		types.WriteError(w, http.StatusUnauthorized, types.ErrAuthentication("authentication required"))
		return
	}

	if err := h.Sessions.DeleteSession(r.Context(), userID, r.PathValue("id")); err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to delete session"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
