// Package impersonate implements the generic model-impersonation proxy:
// a single POST endpoint that forwards a prompt (and optional images) to
// an arbitrary backend model and streams the answer back as plain text.
package impersonate

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/provider"
)

// Handler serves the impersonation proxy endpoint. It is self-contained:
// it answers its own CORS preflight and method checks so it can also be
// deployed standalone.
type Handler struct {
	Streamer provider.ImageStreamer
	// APIKey is the server-side upstream credential. Requests fail with
	// 500 when it is missing.
	APIKey string
	Logger *slog.Logger
}

// New creates the impersonation proxy handler.
func New(streamer provider.ImageStreamer, apiKey string, logger *slog.Logger) *Handler {
	return &Handler{Streamer: streamer, APIKey: apiKey, Logger: logger}
}

// request is the proxy's JSON body.
type request struct {
	Prompt    string   `json:"prompt"`
	ModelName string   `json:"modelName"`
	Images    []string `json:"images,omitempty"`
}

// ServeHTTP handles OPTIONS preflight and POST proxy requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" && len(req.Images) == 0 {
		http.Error(w, "prompt or images required", http.StatusBadRequest)
		return
	}
	if req.ModelName == "" {
		http.Error(w, "modelName required", http.StatusBadRequest)
		return
	}
	if h.APIKey == "" {
		http.Error(w, "server credential not configured", http.StatusInternalServerError)
		return
	}

	stream, err := h.Streamer.ChatStreamImages(r.Context(), req.Prompt, req.Images, req.ModelName)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("impersonation upstream failed", "model", req.ModelName, "error", err)
		}
		// Never leak upstream internals to the caller.
		http.Error(w, "upstream model unavailable, retry later", http.StatusServiceUnavailable)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	flusher, _ := w.(http.Flusher)

	for {
		frag, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			// Headers are already sent; nothing to do but stop.
			if h.Logger != nil {
				h.Logger.Warn("impersonation stream interrupted", "model", req.ModelName, "error", err)
			}
			return
		}
		if frag.Text == "" {
			continue
		}
		if _, err := io.WriteString(w, frag.Text); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
