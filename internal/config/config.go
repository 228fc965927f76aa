// Package config manages global nbview configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SFTPSettings configures the remote document source.
type SFTPSettings struct {
	User               string `yaml:"user,omitempty"`
	KeyPath            string `yaml:"key_path,omitempty"`
	KnownHostsPath     string `yaml:"known_hosts_path,omitempty"`
	DialTimeoutSeconds int    `yaml:"dial_timeout_seconds,omitempty"`
}

// Config is the persisted application configuration.
type Config struct {
	// PoolMaxIdle bounds how many warm widgets the pool keeps.
	PoolMaxIdle int `yaml:"pool_max_idle"`
	// DefaultViewType is used when a document's type cannot be guessed.
	DefaultViewType string `yaml:"default_view_type"`
	// PersistViewState controls the sqlite-backed store.
	PersistViewState bool `yaml:"persist_view_state"`
	// WatchDocuments enables reload-on-change for local documents.
	WatchDocuments bool `yaml:"watch_documents"`

	SFTP SFTPSettings `yaml:"sftp,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		PoolMaxIdle:      4,
		DefaultViewType:  "plaintext",
		PersistViewState: true,
		WatchDocuments:   true,
	}
}

// Path resolves the config file location. NBVIEW_HOME wins, then
// XDG_CONFIG_HOME, then the home directory.
func Path() string {
	if home := os.Getenv("NBVIEW_HOME"); home != "" {
		return filepath.Join(home, "config.yaml")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nbview", "config.yaml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".nbview", "config.yaml")
	}
	return filepath.Join(homeDir, ".config", "nbview", "config.yaml")
}

// Load reads the config file at the default path. A missing file yields the
// defaults without error.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a specific config file.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.PoolMaxIdle <= 0 {
		cfg.PoolMaxIdle = DefaultConfig().PoolMaxIdle
	}
	if cfg.DefaultViewType == "" {
		cfg.DefaultViewType = DefaultConfig().DefaultViewType
	}
	return cfg, nil
}

// Save writes the config to the default path, creating directories as needed.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
