package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
type FileConfig struct {
	ServerPort string    `toml:"server_port"`
	AdminToken string    `toml:"admin_token"`
	Limits     Limits    `toml:"limits"`
	BlobStore  BlobStore `toml:"blobstore"`
	Payment    Payment   `toml:"payment"`
	Upstream   Upstream  `toml:"upstream"`
	Models     []Model   `toml:"models"`
}

// Model describes one chat backend users can dispatch to.
type Model struct {
	// Name is the user-facing model name (unique).
	Name string `toml:"name"`
	// Backend is the upstream model identifier sent to the provider.
	Backend string `toml:"backend"`
	// Enabled controls whether the model is offered for dispatch.
	Enabled bool `toml:"enabled"`
}

// BlobStore configures the remote document store. Empty BaseURL selects
// the local filesystem store.
type BlobStore struct {
	BaseURL      string `toml:"base_url"`
	RefreshToken string `toml:"refresh_token"`
}

// Payment configures the payment gateway client.
type Payment struct {
	BaseURL     string `toml:"base_url"`
	KeyID       string `toml:"key_id"`
	KeySecret   string `toml:"key_secret"`
	OrderAmount int    `toml:"order_amount"`
	Currency    string `toml:"currency"`
}

// Upstream configures the chat streaming backend.
type Upstream struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// ConfigPath returns the path to the config file (~/.bestluck/config.toml).
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile() (*FileConfig, error) {
	cfg := &FileConfig{}

	path := ConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile() error {
	path := ConfigPath()

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Ensure directory exists
	if err := EnsureDataDir(); err != nil {
		return err
	}

	defaultConfig := `# Bestluck Configuration
# server_port = ":8080"
# admin_token = ""

# [limits]
# request_token_ceiling = 1000
# monthly_token_limit = 100000
# monthly_request_limit = 500
# rate_limit_window_seconds = 60

# Remote document store. Leave base_url empty to keep documents on disk.
# [blobstore]
# base_url = ""
# refresh_token = ""

# [payment]
# key_id = ""
# key_secret = ""
# order_amount = 799900
# currency = "INR"

# [upstream]
# base_url = "https://openrouter.ai/api/v1/chat/completions"
# api_key = ""

# Chat models offered in the dispatch panel
# [[models]]
# name = "gpt"
# backend = "openai/gpt-4o"
# enabled = true

# [[models]]
# name = "claude"
# backend = "anthropic/claude-3.5-sonnet"
# enabled = true
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
