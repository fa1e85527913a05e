package blob

import (
	"context"
	"os"
	"path/filepath"
)

// FS is a filesystem-backed Store rooted at a local directory.
// It is the default backend when no remote store is configured.
type FS struct {
	root string
}

// NewFS creates a filesystem store rooted at dir.
func NewFS(dir string) *FS {
	return &FS{root: dir}
}

// resolve maps a slash-separated blob path to an OS path under the root.
func (s *FS) resolve(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// Mkdir creates a directory and any missing parents.
func (s *FS) Mkdir(ctx context.Context, path string) error {
	return os.MkdirAll(s.resolve(path), 0700)
}

// ReadDir lists the entries of a directory.
func (s *FS) ReadDir(ctx context.Context, path string) ([]Entry, error) {
	entries, err := os.ReadDir(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{Name: e.Name()})
	}
	return out, nil
}

// Read returns the content of a document, or ErrNotFound.
func (s *FS) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Write stores a document, creating parent directories as needed.
func (s *FS) Write(ctx context.Context, path string, data []byte) error {
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0700); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0600)
}

// Delete removes a document. Deleting a missing document is a no-op.
func (s *FS) Delete(ctx context.Context, path string) error {
	err := os.Remove(s.resolve(path))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
