package config

import (
	"os"
	"strconv"
)

// Config holds application configuration loaded from environment and file.
// Priority: Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":8080")
	ServerPort string

	// AdminToken protects the admin API. Empty disables admin auth
	// (localhost-first design).
	AdminToken string

	// Limits controls token and request budgets.
	Limits Limits

	// BlobStore selects the document store backend. An empty BaseURL
	// means documents are kept on the local filesystem under DataDir.
	BlobStore BlobStore

	// Payment holds the payment gateway credentials.
	Payment Payment

	// Upstream holds the chat backend endpoint and credential.
	Upstream Upstream

	// Models lists the chat models users can dispatch to.
	Models []Model
}

// Limits holds token and request budget settings.
type Limits struct {
	// RequestTokenCeiling caps the estimated tokens (prompt + output)
	// of a single per-model request. Streams are truncated once the
	// ceiling is reached.
	RequestTokenCeiling int `toml:"request_token_ceiling"`

	// MonthlyTokenLimit is the default per-user token budget per cycle.
	MonthlyTokenLimit int `toml:"monthly_token_limit"`

	// MonthlyRequestLimit is the default per-user request budget per
	// subscription period.
	MonthlyRequestLimit int `toml:"monthly_request_limit"`

	// RateLimitWindowSeconds is the refill window for per-key request
	// rate limits. Each key's budget (its stored rate_limit) refills
	// over this window.
	RateLimitWindowSeconds int `toml:"rate_limit_window_seconds"`
}

// EnabledModels returns the models users may dispatch to.
func (c *Config) EnabledModels() []Model {
	out := make([]Model, 0, len(c.Models))
	for _, m := range c.Models {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out
}

// FindModel returns the enabled model with the given name, or nil.
func (c *Config) FindModel(name string) *Model {
	for i := range c.Models {
		if c.Models[i].Name == name && c.Models[i].Enabled {
			return &c.Models[i]
		}
	}
	return nil
}

// Load reads configuration from file and environment variables.
// Environment variables override file config values.
func Load() *Config {
	fileConfig, _ := LoadFile() // Ignore error, use defaults

	return &Config{
		ServerPort: getEnvOrFile("SERVER_PORT", fileConfig.ServerPort, ":8080"),
		AdminToken: getEnvOrFile("ADMIN_TOKEN", fileConfig.AdminToken, ""),
		Limits: Limits{
			RequestTokenCeiling: getEnvIntOrFile("REQUEST_TOKEN_CEILING", fileConfig.Limits.RequestTokenCeiling, 1000),
			MonthlyTokenLimit:   getEnvIntOrFile("MONTHLY_TOKEN_LIMIT", fileConfig.Limits.MonthlyTokenLimit, 100000),
			MonthlyRequestLimit: getEnvIntOrFile("MONTHLY_REQUEST_LIMIT", fileConfig.Limits.MonthlyRequestLimit, 500),

			RateLimitWindowSeconds: getEnvIntOrFile("RATE_LIMIT_WINDOW_SECONDS", fileConfig.Limits.RateLimitWindowSeconds, 60),
		},
		BlobStore: BlobStore{
			BaseURL:      getEnvOrFile("BLOBSTORE_BASE_URL", fileConfig.BlobStore.BaseURL, ""),
			RefreshToken: getEnvOrFile("BLOBSTORE_REFRESH_TOKEN", fileConfig.BlobStore.RefreshToken, ""),
		},
		Payment: Payment{
			BaseURL:     getEnvOrFile("PAYMENT_BASE_URL", fileConfig.Payment.BaseURL, "https://api.razorpay.com"),
			KeyID:       getEnvOrFile("PAYMENT_KEY_ID", fileConfig.Payment.KeyID, ""),
			KeySecret:   getEnvOrFile("PAYMENT_KEY_SECRET", fileConfig.Payment.KeySecret, ""),
			OrderAmount: getEnvIntOrFile("PAYMENT_ORDER_AMOUNT", fileConfig.Payment.OrderAmount, 799900),
			Currency:    getEnvOrFile("PAYMENT_CURRENCY", fileConfig.Payment.Currency, "INR"),
		},
		Upstream: Upstream{
			BaseURL: getEnvOrFile("UPSTREAM_BASE_URL", fileConfig.Upstream.BaseURL, "https://openrouter.ai/api/v1/chat/completions"),
			APIKey:  getEnvOrFile("UPSTREAM_API_KEY", fileConfig.Upstream.APIKey, ""),
		},
		Models: fileConfig.Models,
	}
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvIntOrFile returns env int, file int, or default (in priority order)
func getEnvIntOrFile(key string, fileValue int, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}
