package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, time.Second, cfg.PollInterval())
	assert.Zero(t, cfg.HTTPTimeout())
}

func TestLoadFrom_FillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_url": "http://music.lan:8080",
		"http_timeout_ms": 2500,
		"notifications": {"enabled": true},
		"log": {"file": "/tmp/g.log"}
	}`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "http://music.lan:8080", cfg.ServerURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.HTTPTimeout())
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
	assert.Equal(t, DefaultSeekPath, cfg.SeekPath)
	assert.True(t, cfg.NotificationsEnabled())
	assert.Equal(t, 10, cfg.Notifications.CooldownSeconds)
	assert.False(t, cfg.AudioEnabled())
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, "/tmp/g.log", cfg.Log.File)
}

func TestLoadFrom_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url": `), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.ServerURL = "http://10.0.0.2:5000"
	cfg.PollIntervalMs = 500
	cfg.Audio.Enabled = true

	require.NoError(t, SaveTo(path, cfg))
	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Equal(t, 500*time.Millisecond, got.PollInterval())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvServer, "http://from-env:9000")

	assert.Equal(t, path, Path())
	assert.Equal(t, filepath.Dir(path), Dir())

	require.NoError(t, Save(&Config{ServerURL: "http://from-file:5000"}))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9000", cfg.ServerURL)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, SaveTo(path, DefaultConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			select {
			case got <- c:
			default:
			}
		})
	}()

	updated := DefaultConfig()
	updated.ServerURL = "http://changed:5000"
	// The watcher may not be registered yet; keep writing until a reload lands.
	require.Eventually(t, func() bool {
		if err := SaveTo(path, updated); err != nil {
			return false
		}
		select {
		case c := <-got:
			return c.ServerURL == "http://changed:5000"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not return after cancel")
	}
}
