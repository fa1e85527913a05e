package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/app"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/blob"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/chatstore"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/config"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/dispatch"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/ledger"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/payment"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/provider/openrouter"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler/admin"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler/chat"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler/impersonate"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler/infra"
	paymenthandler "github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler/payment"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware/auth"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware/ratelimit"
)

func main() {
	logger := setupLogger()

	if err := config.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	if err := config.EnsureConfigFile(); err != nil {
		logger.Warn("could not write default config file", "error", err)
	}

	cfg := config.Load()

	// Document store: remote when configured, local disk otherwise.
	var blobs blob.Store
	if cfg.BlobStore.BaseURL != "" {
		blobs = blob.NewRemote(cfg.BlobStore.BaseURL, &blob.StaticTokenSource{
			BaseURL:      cfg.BlobStore.BaseURL,
			RefreshToken: cfg.BlobStore.RefreshToken,
		})
		logger.Info("using remote document store", "base_url", cfg.BlobStore.BaseURL)
	} else {
		blobs = blob.NewFS(config.BlobDir())
		logger.Info("using local document store", "dir", config.BlobDir())
	}

	store, err := storage.NewSQLiteStorage(config.DBPath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	led := ledger.New(blobs, cfg.Limits.MonthlyTokenLimit)
	subs := ledger.NewSubscriptions(blobs, cfg.Limits.MonthlyRequestLimit)
	sessions := chatstore.New(blobs)

	upstream := openrouter.New(cfg.Upstream.BaseURL, cfg.Upstream.APIKey)
	dispatcher := dispatch.New(upstream, led, cfg.Limits.RequestTokenCeiling, logger)

	payClient := payment.New(cfg.Payment.BaseURL, cfg.Payment.KeyID, cfg.Payment.KeySecret)

	// API key cache shared across requests
	apiKeyCache, err := ristretto.NewCache(&ristretto.Config[string, *auth.CachedAPIKey]{
		NumCounters: 1e7,     // number of keys to track frequency of
		MaxCost:     1 << 30, // maximum cost of cache (1GB)
		BufferItems: 64,      // number of keys per Get buffer
	})
	if err != nil {
		log.Fatalf("Failed to create API key cache: %v", err)
	}
	defer apiKeyCache.Close()

	repo := &handler.Repo{
		Infra:       infra.New(time.Now()),
		Chat:        chat.New(dispatcher, sessions, led, subs, store, cfg, logger),
		Impersonate: impersonate.New(upstream, cfg.Upstream.APIKey, logger),
		Payment:     paymenthandler.New(payClient, cfg.Payment.OrderAmount, cfg.Payment.Currency, logger),
		Admin:       admin.New(store),
	}

	router := app.NewRouter(repo, &app.RouterOptions{
		Logger:      logger,
		Storage:     store,
		APIKeyCache: apiKeyCache,
		AdminToken:  cfg.AdminToken,
		RateLimiter: ratelimit.New(time.Duration(cfg.Limits.RateLimitWindowSeconds) * time.Second),
	})

	printStartupBanner(cfg)

	srv := app.NewServer(cfg, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}
