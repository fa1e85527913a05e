// Package blob provides the document store used for per-user JSON records.
//
// Paths are slash-separated keys, not OS paths. Documents are opaque byte
// blobs; callers own the schema. There are no transactions: writes to two
// documents are independently durable and can interleave.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a path has no document or directory.
var ErrNotFound = errors.New("blob: not found")

// Entry describes one child of a directory.
type Entry struct {
	Name string `json:"name"`
}

// Store is the capability interface for the document store backend.
// Implementations must make Mkdir idempotent on an existing directory and
// Delete idempotent on a missing document.
type Store interface {
	// Mkdir creates a directory and any missing parents.
	Mkdir(ctx context.Context, path string) error

	// ReadDir lists the entries of a directory.
	ReadDir(ctx context.Context, path string) ([]Entry, error)

	// Read returns the content of a document, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores a document, replacing any previous content.
	Write(ctx context.Context, path string, data []byte) error

	// Delete removes a document. Deleting a missing document is a no-op.
	Delete(ctx context.Context, path string) error
}

// UserChatsDir returns the directory holding a user's chat documents.
func UserChatsDir(userID string) string {
	return "users/" + userID + "/chats"
}

// UserSettingsDir returns the directory holding a user's settings documents.
func UserSettingsDir(userID string) string {
	return "users/" + userID + "/settings"
}
