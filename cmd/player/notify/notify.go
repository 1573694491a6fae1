// Package notify forwards playback notices to desktop notifications.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/gigurra/groove/cmd/player/playback"
)

// DefaultCooldown suppresses repeats of the same text.
const DefaultCooldown = 10 * time.Second

type Options struct {
	Enabled       bool
	OnTrackChange bool
	Cooldown      time.Duration
}

// Desktop sends warnings, errors and (optionally) track changes as OS
// notifications. Plain info notices stay in the UI.
type Desktop struct {
	opts   Options
	send   func(title, body string) error
	now    func() time.Time
	logger *slog.Logger

	mu   sync.Mutex
	last map[string]time.Time
}

func NewDesktop(opts Options, logger *slog.Logger) *Desktop {
	beeep.AppName = "groove"
	return newDesktop(opts, beeepSend, logger)
}

func newDesktop(opts Options, send func(title, body string) error, logger *slog.Logger) *Desktop {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Desktop{
		opts:   opts,
		send:   send,
		now:    time.Now,
		logger: logger,
		last:   map[string]time.Time{},
	}
}

func beeepSend(title, body string) error {
	return beeep.Notify(title, body, "")
}

// SetOptions swaps the filter settings, e.g. after a config reload.
func (d *Desktop) SetOptions(opts Options) {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opts = opts
}

// Notify implements playback.Notifier.
func (d *Desktop) Notify(n playback.Notice) {
	d.mu.Lock()
	if !d.wants(n) {
		d.mu.Unlock()
		return
	}
	now := d.now()
	if at, ok := d.last[n.Text]; ok && now.Sub(at) < d.opts.Cooldown {
		d.mu.Unlock()
		return
	}
	d.last[n.Text] = now
	d.mu.Unlock()

	if err := d.send(title(n), n.Text); err != nil {
		d.logger.Debug("desktop notification failed", "error", err)
	}
}

func (d *Desktop) wants(n playback.Notice) bool {
	if !d.opts.Enabled || n.IsZero() {
		return false
	}
	if n.TrackChange {
		return d.opts.OnTrackChange
	}
	return n.Level != playback.LevelInfo
}

func title(n playback.Notice) string {
	switch {
	case n.TrackChange:
		return "groove"
	case n.Level == playback.LevelError:
		return "groove: error"
	default:
		return "groove: warning"
	}
}
