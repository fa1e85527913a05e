// Package infra provides infrastructure endpoints (status, health).
package infra

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/version"
)

// Handlers holds the dependencies for infrastructure HTTP handlers.
type Handlers struct {
	StartTime time.Time
}

// New creates a new instance of infrastructure handlers.
func New(startTime time.Time) *Handlers {
	return &Handlers{StartTime: startTime}
}

// RootStatus returns JSON status and version information at /.
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"name":    "bestluck",
		"version": version.Version,
		"status":  "running",
		"api":     "/api",
		"admin":   "/api/admin",
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HealthCheck handler returns the application health status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":         "active",
		"app":            "bestluck",
		"uptime_seconds": int(time.Since(h.StartTime).Seconds()),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
