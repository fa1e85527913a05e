package app

import (
	"log/slog"
	"net/http"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware/auth"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware/ratelimit"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	Logger      *slog.Logger
	Storage     storage.Storage
	APIKeyCache *ristretto.Cache[string, *auth.CachedAPIKey]
	AdminToken  string
	RateLimiter *ratelimit.Limiter
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth)
	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)
	mux.HandleFunc("GET /", repo.Infra.RootStatus)

	// Chat routes (require API key auth, rate limited)
	apiKeyAuth := auth.APIKeyAuth(opts.Storage, opts.APIKeyCache)
	limited := ratelimit.Middleware(opts.RateLimiter)
	protect := func(h http.HandlerFunc) http.Handler {
		return apiKeyAuth(limited(h))
	}

	mux.Handle("POST /api/chat", protect(repo.Chat.Chat))
	mux.Handle("GET /api/sessions", protect(repo.Chat.ListSessions))
	mux.Handle("GET /api/sessions/{id}", protect(repo.Chat.GetSession))
	mux.Handle("DELETE /api/sessions/{id}", protect(repo.Chat.DeleteSession))
	mux.Handle("GET /api/usage", protect(repo.Chat.GetUsage))
	mux.Handle("GET /api/subscription", protect(repo.Chat.GetSubscription))

	// Impersonation proxy handles its own CORS and method checks
	mux.Handle("/v1/impersonate", repo.Impersonate)

	// Payment routes (no API key; signature verification is the gate)
	mux.HandleFunc("POST /api/payment/create-order", repo.Payment.CreateOrder)
	mux.HandleFunc("POST /api/payment/verify-payment", repo.Payment.VerifyPayment)

	// Admin API routes (require admin token)
	registerAdminRoutes(mux, repo, opts)

	// Apply middleware chain (order: outer to inner)
	var h http.Handler = mux

	// Request logging (if logger provided)
	if opts.Logger != nil {
		h = middleware.RequestLogger(opts.Logger)(h)
	}

	// Request ID (always applied)
	h = middleware.RequestID(h)

	// CORS (always applied; the UI is served from another origin)
	h = middleware.CORS(h)

	return h
}

// registerAdminRoutes adds all admin API routes to the router.
func registerAdminRoutes(mux *http.ServeMux, repo *handler.Repo, opts *RouterOptions) {
	adminAuth := middleware.AdminAuth(opts.AdminToken)

	withAuth := func(h http.HandlerFunc) http.Handler {
		return adminAuth(h)
	}

	mux.Handle("POST /api/admin/apikeys", withAuth(repo.Admin.CreateAPIKey))
	mux.Handle("GET /api/admin/apikeys", withAuth(repo.Admin.ListAPIKeys))
	mux.Handle("DELETE /api/admin/apikeys/{id}", withAuth(repo.Admin.DeleteAPIKey))
}
