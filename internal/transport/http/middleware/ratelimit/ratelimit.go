// Package ratelimit enforces per-key request budgets with token buckets.
package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware/auth"
)

// bucket holds one key's remaining budget.
type bucket struct {
	tokens   float64
	lastFill time.Time
	mu       sync.Mutex
}

// Limiter tracks one token bucket per issued API key. Each key carries its
// own budget (the RateLimit stored with the key); the refill window is
// shared and comes from the server's limits configuration.
type Limiter struct {
	window  time.Duration
	buckets sync.Map // map[keyID]*bucket
}

// New creates a limiter whose buckets refill their full budget over the
// given window. A non-positive window falls back to one minute.
func New(window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{window: window}
}

// Allow consumes one request from the key's bucket. limit is the key's
// budget per window; 0 means unlimited.
func (l *Limiter) Allow(keyID string, limit int) bool {
	if limit <= 0 {
		return true
	}

	val, _ := l.buckets.LoadOrStore(keyID, &bucket{
		tokens:   float64(limit),
		lastFill: time.Now(),
	})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	refillPerSecond := float64(limit) / l.window.Seconds()
	b.tokens += now.Sub(b.lastFill).Seconds() * refillPerSecond
	if b.tokens > float64(limit) {
		b.tokens = float64(limit)
	}
	b.lastFill = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}

// Middleware returns an HTTP middleware that enforces rate limits.
// Must be used after APIKeyAuth middleware (needs key in context).
func Middleware(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := auth.GetAPIKey(r.Context())
			if key == nil {
				// No key in context = not authenticated, let handler decide
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(key.ID, key.RateLimit) {
				writeTooManyRequests(w, limiter.window)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeTooManyRequests writes a JSON 429 response.
func writeTooManyRequests(w http.ResponseWriter, window time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"message": "rate limit exceeded",
			"type":    "rate_limit_error",
		},
	})
}
