package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the path to the Bestluck data directory.
// - Windows: %APPDATA%\bestluck
// - Other OS: ~/.bestluck
func DataDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "bestluck")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".bestluck"
	}
	return filepath.Join(home, ".bestluck")
}

// DBPath returns the path to the SQLite database file.
func DBPath() string {
	return filepath.Join(DataDir(), "bestluck.db")
}

// BlobDir returns the root directory of the filesystem blob store.
func BlobDir() string {
	return filepath.Join(DataDir(), "blobs")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
