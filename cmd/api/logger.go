package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/config"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/version"
)

func setupLogger() *slog.Logger {
	// Use sensible defaults: info level, text format
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

func printStartupBanner(cfg *config.Config) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Bestluck %s - Multi-Model Chat Backend\n", version.Version)
	fmt.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "Chat API:   http://localhost%s/api/chat\n", cfg.ServerPort)
	fmt.Fprintf(os.Stderr, "Proxy:      http://localhost%s/v1/impersonate\n", cfg.ServerPort)
	fmt.Fprintf(os.Stderr, "Admin API:  http://localhost%s/api/admin/\n", cfg.ServerPort)
	fmt.Fprintf(os.Stderr, "Models:     %d configured\n", len(cfg.EnabledModels()))
	fmt.Fprintf(os.Stderr, "Data:       %s\n", config.DataDir())
	fmt.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "\n")
}
