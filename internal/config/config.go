package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all synthia configuration.
type Config struct {
	Gmail   GmailConfig   `toml:"gmail"`
	OpenAI  OpenAIConfig  `toml:"openai"`
	Fetch   FetchConfig   `toml:"fetch"`
	Web     WebConfig     `toml:"web"`
	Storage StorageConfig `toml:"storage"`
}

// GmailConfig holds Gmail OAuth credentials.
// Users can override the values via config file or env vars.
type GmailConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// OpenAIConfig holds sender classification settings.
type OpenAIConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// FetchConfig holds mailbox polling settings.
type FetchConfig struct {
	Interval     string `toml:"interval"`
	WindowDays   int    `toml:"window_days"`
	RateLimitRPS int    `toml:"rate_limit_rps"`
}

// WebConfig holds dashboard API settings.
type WebConfig struct {
	Addr string `toml:"addr"`
}

// StorageConfig holds database location settings.
type StorageConfig struct {
	Path string `toml:"path"`
}

func defaults() Config {
	return Config{
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Fetch: FetchConfig{
			Interval:     "10m",
			WindowDays:   1,
			RateLimitRPS: 5,
		},
		Web: WebConfig{
			Addr: ":8099",
		},
	}
}

// Load reads config from path. If path is empty, returns defaults.
// Env vars SYNTHIA_GMAIL_CLIENT_ID, SYNTHIA_GMAIL_CLIENT_SECRET and
// SYNTHIA_OPENAI_API_KEY take precedence over file values.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if v := os.Getenv("SYNTHIA_GMAIL_CLIENT_ID"); v != "" {
		cfg.Gmail.ClientID = v
	}
	if v := os.Getenv("SYNTHIA_GMAIL_CLIENT_SECRET"); v != "" {
		cfg.Gmail.ClientSecret = v
	}
	if v := os.Getenv("SYNTHIA_OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	return &cfg, nil
}

// DatabasePath returns the configured database path, or the default
// under DataDir when unset.
func (c *Config) DatabasePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(DataDir(), "synthia.db")
}

// ConfigDir returns the synthia config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "synthia")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "synthia")
}

// DataDir returns the synthia data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "synthia")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "synthia")
}
