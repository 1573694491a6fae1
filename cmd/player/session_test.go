package player

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gigurra/groove/cmd/common/config"
	"github.com/gigurra/groove/cmd/player/api/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, filepath.Join(dir, "config.json"))
	t.Setenv(config.EnvServer, "")
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func TestOpen_ServerPrecedence(t *testing.T) {
	dir := isolate(t)
	cfg := config.DefaultConfig()
	cfg.ServerURL = "http://from-config:5000"
	require.NoError(t, config.SaveTo(filepath.Join(dir, "config.json"), cfg))

	s, err := Open(Options{})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "http://from-config:5000", s.Client.BaseURL())

	t.Setenv(config.EnvServer, "http://from-env:5000")
	s2, err := Open(Options{})
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, "http://from-env:5000", s2.Client.BaseURL())

	s3, err := Open(Options{Server: "http://from-flag:5000"})
	require.NoError(t, err)
	defer s3.Close()
	assert.Equal(t, "http://from-flag:5000", s3.Client.BaseURL())
}

func TestOpen_MalformedConfig(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, writeFile(filepath.Join(dir, "config.json"), "{nope"))

	_, err := Open(Options{})
	assert.ErrorContains(t, err, "loading config")
}

func TestNotifyOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notifications.Enabled = true
	cfg.Notifications.OnTrackChange = true
	cfg.Notifications.CooldownSeconds = 3

	opts := NotifyOptions(cfg)
	assert.True(t, opts.Enabled)
	assert.True(t, opts.OnTrackChange)
	assert.Equal(t, 3*time.Second, opts.Cooldown)

	cfg.Notifications = nil
	assert.False(t, NotifyOptions(cfg).Enabled)
}

func TestController_TalksToServer(t *testing.T) {
	isolate(t)
	srv := apitest.New(map[string][]string{
		"rock": {"songs/rock/a.mp3", "songs/rock/b.mp3"},
	})
	url := srv.Start(t)

	s, err := Open(Options{Server: url, UserAgent: "groove/test"})
	require.NoError(t, err)
	defer s.Close()

	ctrl := s.Controller(nil)
	defer ctrl.Close()

	ctx := context.Background()
	require.NoError(t, ctrl.Attach(ctx))
	require.NoError(t, ctrl.SelectSong(ctx, 1))

	v := ctrl.View()
	assert.Equal(t, "b.mp3", v.SongLabel)
	assert.Equal(t, url+"/api/music/b.mp3", v.TrackURL)
	assert.Equal(t, 1, srv.Current())
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
