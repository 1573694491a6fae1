// Package config provides configuration loading for groove.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultServerURL    = "http://localhost:5000"
	DefaultPollInterval = time.Second
	DefaultSeekPath     = "/api/set_position"
	DefaultLogLevel     = "info"

	// EnvServer overrides server_url.
	EnvServer = "GROOVE_SERVER"
	// EnvConfig overrides the config file location.
	EnvConfig = "GROOVE_CONFIG"
)

// Config represents the groove configuration file structure.
type Config struct {
	ServerURL      string              `json:"server_url,omitempty"`
	PollIntervalMs int                 `json:"poll_interval_ms,omitempty"`
	SeekPath       string              `json:"seek_path,omitempty"`
	HTTPTimeoutMs  int                 `json:"http_timeout_ms,omitempty"`
	Audio          *AudioConfig        `json:"audio,omitempty"`
	Notifications  *NotificationConfig `json:"notifications,omitempty"`
	Log            *LogConfig          `json:"log,omitempty"`
}

// AudioConfig controls local playback of the server's tracks.
type AudioConfig struct {
	Enabled bool `json:"enabled"`
}

// NotificationConfig holds settings for OS notifications.
type NotificationConfig struct {
	Enabled         bool `json:"enabled"`
	OnTrackChange   bool `json:"on_track_change"`
	CooldownSeconds int  `json:"cooldown_seconds,omitempty"`
}

type LogConfig struct {
	Level string `json:"level,omitempty"`
	File  string `json:"file,omitempty"` // empty means the default under the cache dir
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      DefaultServerURL,
		PollIntervalMs: int(DefaultPollInterval / time.Millisecond),
		SeekPath:       DefaultSeekPath,
		Audio:          &AudioConfig{Enabled: false},
		Notifications: &NotificationConfig{
			Enabled:         false,
			OnTrackChange:   false,
			CooldownSeconds: 10,
		},
		Log: &LogConfig{Level: DefaultLogLevel},
	}
}

// Dir returns the groove config directory (~/.groove).
func Dir() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return filepath.Dir(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".groove")
}

// Path returns the path to the config file, ~/.groove/config.json unless
// GROOVE_CONFIG says otherwise.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.json")
}

// Load loads the config from Path and applies environment overrides.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	cfg, err := LoadFrom(Path())
	if err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(os.Getenv(EnvServer)); s != "" {
		cfg.ServerURL = s
	}
	return cfg, nil
}

// LoadFrom loads the config at path, filling in defaults for missing fields.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.ServerURL == "" {
		c.ServerURL = def.ServerURL
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = def.PollIntervalMs
	}
	if c.SeekPath == "" {
		c.SeekPath = def.SeekPath
	}
	if c.HTTPTimeoutMs < 0 {
		c.HTTPTimeoutMs = 0
	}
	if c.Audio == nil {
		c.Audio = def.Audio
	}
	if c.Notifications == nil {
		c.Notifications = def.Notifications
	} else if c.Notifications.CooldownSeconds == 0 {
		c.Notifications.CooldownSeconds = def.Notifications.CooldownSeconds
	}
	if c.Log == nil {
		c.Log = def.Log
	} else if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Save saves the config to Path.
func Save(config *Config) error {
	return SaveTo(Path(), config)
}

func SaveTo(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0644)
}

// PollInterval is the reconciliation cadence.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// HTTPTimeout is the per-request timeout; zero leaves it to the transport.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMs) * time.Millisecond
}

func (c *Config) AudioEnabled() bool {
	return c.Audio != nil && c.Audio.Enabled
}

func (c *Config) NotificationsEnabled() bool {
	return c.Notifications != nil && c.Notifications.Enabled
}
