// Package audio plays server tracks through the local sound device.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyTrack        = errors.New("track has no audio data")
)

// Format is the container of a downloaded track.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// FormatOf guesses the format from the URL path extension.
func FormatOf(rawURL string) (Format, error) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "mp3":
		return FormatMP3, nil
	case "wav":
		return FormatWAV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path.Base(p))
	}
}

// Fetcher downloads the bytes behind a playable URL. *api.Client implements it.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// output is the sound device side of the player.
type output interface {
	play(data []byte, format Format) error
	seek(d time.Duration) error
	stop()
}

// Player follows the server's track on this machine. Downloads that finish
// after a newer Play or a Stop are thrown away.
type Player struct {
	fetch  Fetcher
	out    output
	logger *slog.Logger

	mu     sync.Mutex
	id     uint64
	active bool
}

// New returns a Player on the platform's sound device.
func New(fetch Fetcher, logger *slog.Logger) *Player {
	return newPlayer(fetch, newOutput(), logger)
}

func newPlayer(fetch Fetcher, out output, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{fetch: fetch, out: out, logger: logger}
}

// Play downloads the track at url and starts it, replacing whatever was playing.
func (p *Player) Play(ctx context.Context, url string) error {
	format, err := FormatOf(url)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.id++
	id := p.id
	p.mu.Unlock()

	data, err := p.fetch.Download(ctx, url)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	if len(data) == 0 {
		return ErrEmptyTrack
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if id != p.id {
		p.logger.Debug("discarding stale track", "url", url)
		return nil
	}
	if err := p.out.play(data, format); err != nil {
		p.active = false
		return fmt.Errorf("play %s: %w", url, err)
	}
	p.active = true
	p.logger.Debug("local playback started", "url", url, "bytes", len(data))
	return nil
}

// Seek moves the local track to seconds.
func (p *Player) Seek(seconds int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return nil
	}
	return p.out.seek(time.Duration(seconds) * time.Second)
}

// Stop silences the device and invalidates pending downloads.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id++
	p.active = false
	p.out.stop()
}

// Nop is a player that stays silent.
type Nop struct{}

func (Nop) Play(context.Context, string) error { return nil }
func (Nop) Seek(int) error { return nil }
func (Nop) Stop() {}
