// Package player wires configuration, logging, the API client and the
// playback controller together for the groove commands.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gigurra/groove/cmd/common/config"
	"github.com/gigurra/groove/cmd/common/logging"
	"github.com/gigurra/groove/cmd/player/api"
	"github.com/gigurra/groove/cmd/player/audio"
	"github.com/gigurra/groove/cmd/player/notify"
	"github.com/gigurra/groove/cmd/player/playback"
)

// Options are the flags every player command shares.
type Options struct {
	Server    string
	Verbose   bool
	UserAgent string
	// Interactive keeps log output off the terminal and allows local audio,
	// which only makes sense for a session that outlives one request.
	Interactive bool
}

// Session is one command invocation's view of the playback server.
type Session struct {
	Config   *config.Config
	Client   *api.Client
	Logger   *slog.Logger
	Notifier *notify.Desktop

	interactive bool
	closeLog    func()
}

// Open loads config, sets up logging and connects a client to the server.
func Open(opts Options) (*Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, closeLog := logging.Setup(logging.Options{
		Level:  level,
		File:   cfg.Log.File,
		Stderr: opts.Verbose && !opts.Interactive,
	})

	server := opts.Server
	if server == "" {
		server = cfg.ServerURL
	}

	clientOpts := []api.Option{
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout()}),
		api.WithSeekPath(cfg.SeekPath),
		api.WithLogger(logger),
	}
	if opts.UserAgent != "" {
		clientOpts = append(clientOpts, api.WithUserAgent(opts.UserAgent))
	}
	client, err := api.New(server, clientOpts...)
	if err != nil {
		closeLog()
		return nil, err
	}

	logger.Debug("session opened", "server", client.BaseURL(), "session_id", client.SessionID())
	return &Session{
		Config:      cfg,
		Client:      client,
		Logger:      logger,
		Notifier:    notify.NewDesktop(NotifyOptions(cfg), logger),
		interactive: opts.Interactive,
		closeLog:    closeLog,
	}, nil
}

func (s *Session) Close() {
	if s.closeLog != nil {
		s.closeLog()
	}
}

// NotifyOptions derives desktop notification settings from config.
func NotifyOptions(cfg *config.Config) notify.Options {
	if cfg.Notifications == nil {
		return notify.Options{}
	}
	return notify.Options{
		Enabled:       cfg.Notifications.Enabled,
		OnTrackChange: cfg.Notifications.OnTrackChange,
		Cooldown:      time.Duration(cfg.Notifications.CooldownSeconds) * time.Second,
	}
}

// Controller builds a playback controller with the session's audio and
// notification settings.
func (s *Session) Controller(onChange func(playback.View)) *playback.Controller {
	opts := []playback.Option{
		playback.WithInterval(s.Config.PollInterval()),
		playback.WithLogger(s.Logger),
		playback.WithNotifier(s.Notifier),
		playback.WithOnChange(onChange),
	}
	if s.interactive && s.Config.AudioEnabled() {
		if audio.Available {
			opts = append(opts, playback.WithAudio(audio.New(s.Client, s.Logger)))
		} else {
			s.Logger.Warn("audio enabled in config but this build has no sound output")
		}
	}
	return playback.New(s.Client, opts...)
}

// WatchConfig applies notification settings from the config file as it
// changes, until ctx is done.
func (s *Session) WatchConfig(ctx context.Context) {
	go func() {
		err := config.Watch(ctx, config.Path(), func(cfg *config.Config) {
			s.Logger.Info("config reloaded")
			s.Notifier.SetOptions(NotifyOptions(cfg))
		})
		if err != nil {
			s.Logger.Warn("config watch stopped", "error", err)
		}
	}()
}
