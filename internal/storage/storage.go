// Package storage provides the storage interface and implementations.
package storage

import (
	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage/models"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage/sqlite"
)

// Re-export types from models package for convenience
type (
	ClientAPIKey = models.ClientAPIKey
	RequestLog   = models.RequestLog
	DailyUsage   = models.DailyUsage
	UsageStats   = models.UsageStats
	ModelStats   = models.ModelStats
)

// Re-export errors from sqlite package
var (
	ErrNotFound      = sqlite.ErrNotFound
	ErrDuplicateKey  = sqlite.ErrDuplicateKey
	ErrStorageClosed = sqlite.ErrStorageClosed
)

// Storage defines the interface for operational data storage: issued API
// keys, per-round request logs and daily usage aggregates. The canonical
// per-user budget documents live on the blob store, not here.
type Storage interface {
	// Client API key operations
	CreateAPIKey(key *models.ClientAPIKey) error
	GetAPIKeyByPrefix(prefix string) ([]*models.ClientAPIKey, error)
	ListAPIKeys() ([]*models.ClientAPIKey, error)
	DeleteAPIKey(id string) error
	UpdateAPIKeyLastUsed(id string) error

	// Request logging operations
	LogRequest(log *models.RequestLog) error
	GetRequestLogs(userID string, limit int) ([]*models.RequestLog, error)

	// Usage aggregate operations
	UpdateDailyUsage(usage *models.DailyUsage) error
	GetDailyUsage(startDate, endDate string) ([]*models.DailyUsage, error)
	GetUsageStats(userID string) (*models.UsageStats, error)

	// Maintenance operations
	Close() error
}

// NewSQLiteStorage creates a new SQLite storage instance
// This is the main factory function for creating storage
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.New(dbPath)
}
