// Package admin serves the operator API for issuing client keys.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/types"
)

// Handlers holds the dependencies for admin HTTP handlers.
type Handlers struct {
	Storage storage.Storage
}

// New creates a new instance of admin handlers.
func New(store storage.Storage) *Handlers {
	return &Handlers{Storage: store}
}

// createAPIKeyRequest is the POST /api/admin/apikeys body.
type createAPIKeyRequest struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	RateLimit int    `json:"rate_limit,omitempty"`
	ExpiresIn *int   `json:"expires_in,omitempty"` // seconds
}

// createAPIKeyResponse returns the plaintext key exactly once.
type createAPIKeyResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Key       string     `json:"key"`
	KeyPrefix string     `json:"key_prefix"`
	RateLimit int        `json:"rate_limit"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateAPIKey issues a new client API key (POST /api/admin/apikeys).
func (h *Handlers) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req createAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("invalid request body"))
		return
	}

	if req.UserID == "" {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("user_id is required"))
		return
	}
	if req.Name == "" {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("name is required"))
		return
	}

	plainKey, err := storage.GenerateAPIKey()
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to generate key"))
		return
	}

	hash, err := storage.HashSecret(plainKey, storage.DefaultArgon2Params())
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to hash key"))
		return
	}

	var expiresAt *time.Time
	if req.ExpiresIn != nil && *req.ExpiresIn > 0 {
		t := time.Now().Add(time.Duration(*req.ExpiresIn) * time.Second)
		expiresAt = &t
	}

	apiKey := &storage.ClientAPIKey{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Name:      req.Name,
		KeyHash:   hash,
		KeyPrefix: storage.ExtractKeyPrefix(plainKey),
		RateLimit: req.RateLimit,
		IsActive:  true,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}

	if err := h.Storage.CreateAPIKey(apiKey); err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to create key"))
		return
	}

	// Plaintext key is shown only once
	resp := createAPIKeyResponse{
		ID:        apiKey.ID,
		UserID:    apiKey.UserID,
		Name:      apiKey.Name,
		Key:       plainKey,
		KeyPrefix: apiKey.KeyPrefix,
		RateLimit: apiKey.RateLimit,
		IsActive:  apiKey.IsActive,
		CreatedAt: apiKey.CreatedAt,
		ExpiresAt: apiKey.ExpiresAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}

// ListAPIKeys returns issued keys without hashes (GET /api/admin/apikeys).
func (h *Handlers) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Storage.ListAPIKeys()
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to list keys"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"keys": keys})
}

// DeleteAPIKey revokes a key (DELETE /api/admin/apikeys/{id}).
func (h *Handlers) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	err := h.Storage.DeleteAPIKey(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		types.WriteError(w, http.StatusNotFound, types.ErrNotFound("key not found"))
		return
	}
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to delete key"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
