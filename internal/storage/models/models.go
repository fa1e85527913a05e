// Package models defines the storage layer's data types.
package models

import "time"

// ClientAPIKey is an issued API key. Each key is bound to the user whose
// chat documents and budgets it scopes.
type ClientAPIKey struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	KeyPrefix  string     `json:"key_prefix"`
	RateLimit  int        `json:"rate_limit"` // requests per minute, 0 = unlimited
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the key has passed its expiry.
func (k *ClientAPIKey) IsExpired() bool {
	return k.ExpiresAt != nil && time.Now().After(*k.ExpiresAt)
}

// RequestLog records one dispatch round or proxy call.
type RequestLog struct {
	ID               string    `json:"id"`
	RequestID        string    `json:"request_id"`
	UserID           string    `json:"user_id"`
	SessionID        string    `json:"session_id,omitempty"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	LimitHit         bool      `json:"limit_hit"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	DurationMs       int64     `json:"duration_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// DailyUsage is the aggregated usage of one (date, user, model) cell.
// Token counts are character-based estimates.
type DailyUsage struct {
	Date         string `json:"date"` // YYYY-MM-DD
	UserID       string `json:"user_id"`
	Model        string `json:"model"`
	RequestCount int    `json:"request_count"`
	TotalTokens  int    `json:"total_tokens"`
	ErrorCount   int    `json:"error_count"`
}

// UsageStats aggregates usage over a filter window.
type UsageStats struct {
	TotalRequests  int                    `json:"total_requests"`
	TotalTokens    int                    `json:"total_tokens"`
	ErrorCount     int                    `json:"error_count"`
	ModelBreakdown map[string]*ModelStats `json:"models,omitempty"`
}

// ModelStats is the usage of a single model within UsageStats.
type ModelStats struct {
	Model        string `json:"model"`
	RequestCount int    `json:"request_count"`
	TotalTokens  int    `json:"total_tokens"`
	ErrorCount   int    `json:"error_count"`
}
