// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/siteassist/siteassist-widgets/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete widget client configuration.
type Config struct {
	// APIKey identifies the embedded project. Required.
	APIKey string `toml:"api_key"`

	// ExternalID optionally links the visitor to the host site's own
	// user id.
	ExternalID string `toml:"external_id"`

	// Theme is "light", "dark" or "auto".
	Theme string `toml:"theme"`

	// APIURL is the chat API base URL.
	APIURL string `toml:"api_url"`

	// WSURL is the live-update WebSocket base URL. Empty derives it
	// from APIURL.
	WSURL string `toml:"ws_url"`

	// PageURL is the page the widget reports as its context when no
	// host bridge supplies one.
	PageURL string `toml:"page_url"`

	// Bridge enables the host-page messaging channel. The host passes
	// a pipe pair on file descriptors 3 (inbound) and 4 (outbound).
	Bridge bool `toml:"bridge"`

	// NoColor disables ANSI colors irrespective of theme.
	NoColor bool `toml:"no_color"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Theme:  "auto",
		APIURL: "https://chat-api.siteassist.io",
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the widget's config directory (~/.siteassist).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".siteassist"), nil
}

// ConfigPath returns the TOML config file location.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "widget.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file when present, then applies environment
// overrides and validates. A missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads a specific config file with env overrides and
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables: SA_API_KEY, SA_EXTERNAL_ID, SA_THEME,
// SA_API_URL, SA_WS_URL, SA_PAGE_URL, NO_COLOR.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SA_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("SA_EXTERNAL_ID"); v != "" {
		c.ExternalID = v
	}
	if v := os.Getenv("SA_THEME"); v != "" {
		c.Theme = v
	}
	if v := os.Getenv("SA_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("SA_WS_URL"); v != "" {
		c.WSURL = v
	}
	if v := os.Getenv("SA_PAGE_URL"); v != "" {
		c.PageURL = v
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.NoColor = true
	}
}

// SetDefaults normalizes empty and out-of-range values.
func (c *Config) SetDefaults() {
	if c.APIURL == "" {
		c.APIURL = "https://chat-api.siteassist.io"
	}
	c.APIURL = strings.TrimSuffix(c.APIURL, "/")

	switch c.Theme {
	case "light", "dark":
	default:
		c.Theme = "auto"
	}

	if c.WSURL == "" {
		c.WSURL = deriveWSURL(c.APIURL)
	}
	c.WSURL = strings.TrimSuffix(c.WSURL, "/")
}

// deriveWSURL maps an HTTP API base to its WebSocket sibling.
func deriveWSURL(apiURL string) string {
	switch {
	case strings.HasPrefix(apiURL, "https://"):
		return "wss://" + strings.TrimPrefix(apiURL, "https://")
	case strings.HasPrefix(apiURL, "http://"):
		return "ws://" + strings.TrimPrefix(apiURL, "http://")
	default:
		return apiURL
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required (set SA_API_KEY or api_key in widget.toml)")
	}
	if _, err := url.Parse(c.APIURL); err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if c.WSURL != "" {
		u, err := url.Parse(c.WSURL)
		if err != nil {
			return fmt.Errorf("ws_url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("ws_url: scheme must be ws or wss, got %q", u.Scheme)
		}
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file atomically, so a
// crash mid-save cannot leave a half-written config behind.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}
