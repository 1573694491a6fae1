// Package playback keeps a client-side picture of the server's transport
// state in sync with what the user sees, arbitrating between the periodic
// server poll and manual seeking.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gigurra/groove/cmd/player/api"
	"github.com/samber/lo"
)

const DefaultInterval = time.Second

// Backend is the part of the playback server API the controller drives.
// *api.Client implements it.
type Backend interface {
	Genres(ctx context.Context) (api.Genres, error)
	Musics(ctx context.Context) (api.Playlist, error)
	SelectGenre(ctx context.Context, genre string) (api.Playlist, error)
	ResetPlaylist(ctx context.Context) (api.Playlist, error)
	Play(ctx context.Context, index int) (api.NowPlaying, error)
	Next(ctx context.Context) (api.NowPlaying, error)
	Previous(ctx context.Context) (api.NowPlaying, error)
	Stop(ctx context.Context) error
	Info(ctx context.Context) (api.TransportSnapshot, error)
	Seek(ctx context.Context, seconds int) (api.SeekResult, error)
	ToggleShuffle(ctx context.Context) (bool, error)
	ToggleRepeat(ctx context.Context) (bool, error)
}

// Audio plays the track behind a playable URL on this machine.
type Audio interface {
	Play(ctx context.Context, url string) error
	Seek(seconds int) error
	Stop()
}

// Notifier receives notices in addition to the View.
type Notifier interface {
	Notify(n Notice)
}

type Option func(*Controller)

// WithInterval sets the reconciliation cadence.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithAudio(a Audio) Option {
	return func(c *Controller) {
		if a != nil {
			c.audio = a
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnChange registers a callback invoked with a fresh View after every
// state or display change. It runs on the goroutine that made the change.
func WithOnChange(fn func(View)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.onChange = fn
		}
	}
}

// TrackEndAction names the policy applied when a track runs out.
type TrackEndAction string

const (
	EndReplay     TrackEndAction = "replay"
	EndShuffle    TrackEndAction = "shuffle"
	EndSequential TrackEndAction = "sequential"
)

// TrackEndPolicy picks exactly one action: repeat wins over shuffle,
// shuffle over sequential advance.
func TrackEndPolicy(s State) TrackEndAction {
	switch {
	case s.Repeat:
		return EndReplay
	case s.Shuffle:
		return EndShuffle
	default:
		return EndSequential
	}
}

// Controller is the playback sync controller for one session.
type Controller struct {
	backend  Backend
	audio    Audio
	notifier Notifier
	logger   *slog.Logger
	interval time.Duration
	onChange func(View)

	root      context.Context
	closeRoot context.CancelFunc

	mu         sync.Mutex
	state      State
	genres     []string
	genre      string
	playlist   []string
	songLabel  string
	trackURL   string
	position   int
	duration   int
	notice     Notice
	loopGen    uint64 // bumped on every loop start/stop; ticks from older generations are dropped
	cancelLoop context.CancelFunc
}

func New(backend Backend, opts ...Option) *Controller {
	root, cancel := context.WithCancel(context.Background())
	c := &Controller{
		backend:   backend,
		audio:     nopAudio{},
		notifier:  nopNotifier{},
		logger:    slog.Default(),
		interval:  DefaultInterval,
		onChange:  func(View) {},
		root:      root,
		closeRoot: cancel,
		state:     DefaultState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close cancels the reconciliation loop and silences local audio.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopLoopLocked()
	c.mu.Unlock()
	c.closeRoot()
	c.audio.Stop()
}

// View returns a snapshot of what should be on screen.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Polling reports whether a reconciliation loop is running.
func (c *Controller) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelLoop != nil
}

// Attach loads the server's current playlist and picks up a
// track that is already playing, so a new session joins a running one.
func (c *Controller) Attach(ctx context.Context) error {
	lib, err := c.backend.Musics(ctx)
	if err != nil {
		c.fail("load library", err)
		return err
	}
	c.update(func() {
		c.playlist = slices.Clone(lib)
	})

	snap, err := c.backend.Info(ctx)
	if err != nil {
		c.fail("info", err)
		return err
	}
	if !snap.Active() {
		return nil
	}

	c.update(func() {
		idx := c.indexOfLocked(snap.FullPath, snap.CurrentSong, nil)
		if idx < 0 {
			return
		}
		c.state.CurrentIndex = idx
		c.state.IsPlaying = true
		c.songLabel = snap.CurrentSong
		c.position, c.duration = snap.Elapsed(), snap.Length()
		c.startLoopLocked()
	})
	c.logger.Info("attached to running session", "song", snap.CurrentSong)
	return nil
}

// LoadGenres fetches the genre names, sorted.
func (c *Controller) LoadGenres(ctx context.Context) ([]string, error) {
	genres, err := c.backend.Genres(ctx)
	if err != nil {
		c.fail("load genres", err)
		return nil, err
	}
	names := genres.Names()
	c.update(func() {
		c.genres = names
		if len(names) == 0 {
			c.notice = Notice{Level: LevelWarn, Text: "No genres available"}
		}
	})
	return names, nil
}

// SelectGenre replaces the playlist with the genre's songs. The previous
// selection is dropped since its indices mean nothing in the new playlist.
// An empty genre leaves the "no songs" display and issues no play request.
func (c *Controller) SelectGenre(ctx context.Context, genre string) error {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		c.warn("select genre", ErrNoGenre)
		return ErrNoGenre
	}
	pl, err := c.backend.SelectGenre(ctx, genre)
	if err != nil {
		c.fail("select genre", err)
		return err
	}
	c.replacePlaylist(genre, pl)
	c.logger.Info("genre selected", "genre", genre, "songs", len(pl))
	return nil
}

// ResetPlaylist restores the server's full library as the playlist.
func (c *Controller) ResetPlaylist(ctx context.Context) error {
	pl, err := c.backend.ResetPlaylist(ctx)
	if err != nil {
		c.fail("reset playlist", err)
		return err
	}
	c.replacePlaylist("", pl)
	return nil
}

func (c *Controller) replacePlaylist(genre string, pl []string) {
	c.update(func() {
		c.stopLoopLocked()
		c.genre = genre
		c.playlist = slices.Clone(pl)
		c.state.CurrentIndex = -1
		c.state.IsPlaying = false
		c.state.Seeking = false
		c.songLabel = ""
		c.trackURL = ""
		c.position, c.duration = 0, 0
		c.notice = Notice{}
		if genre != "" && len(pl) == 0 {
			c.notice = Notice{Level: LevelWarn, Text: fmt.Sprintf("No songs available in %s", Capitalize(genre))}
		}
	})
	c.audio.Stop()
}

// PlayFirst starts the playlist from the top.
func (c *Controller) PlayFirst(ctx context.Context) error {
	return c.SelectSong(ctx, 0)
}

// SelectSong starts playback of the playlist entry at index.
func (c *Controller) SelectSong(ctx context.Context, index int) error {
	c.mu.Lock()
	n := len(c.playlist)
	c.mu.Unlock()

	if index < 0 || index >= n {
		err := fmt.Errorf("%w: %d (playlist has %d songs)", ErrInvalidIndex, index, n)
		c.warn("select song", err)
		return err
	}

	np, err := c.backend.Play(ctx, index)
	if err != nil {
		c.fail("play", err)
		return err
	}

	var stale bool
	c.update(func() {
		// The playlist may have been replaced while the request was in flight.
		if index >= len(c.playlist) {
			stale = true
			return
		}
		c.state.CurrentIndex = index
		c.state.IsPlaying = true
		c.state.Seeking = false
		c.songLabel = np.CurrentSong
		c.trackURL = np.URL
		c.position, c.duration = 0, 0
		c.notice = Notice{}
		c.startLoopLocked()
	})
	if stale {
		return fmt.Errorf("%w: playlist changed while starting %d", ErrInvalidIndex, index)
	}

	c.logger.Info("song selected", "index", index, "song", np.CurrentSong)
	c.trackStarted(np)
	return nil
}

// Stop halts playback. Local state is reset whether or not the server
// acknowledges the request.
func (c *Controller) Stop(ctx context.Context) error {
	c.update(func() {
		c.stopLoopLocked()
		c.state = DefaultState()
		c.songLabel = ""
		c.trackURL = ""
		c.position, c.duration = 0, 0
		c.notice = Notice{}
	})
	c.audio.Stop()

	if err := c.backend.Stop(ctx); err != nil {
		c.fail("stop", err)
		return err
	}
	c.logger.Info("playback stopped")
	return nil
}

// Advance moves to the adjacent track. Wraparound is the server's business;
// the local index follows whatever it reports.
func (c *Controller) Advance(ctx context.Context, dir Direction) error {
	c.mu.Lock()
	n := len(c.playlist)
	c.mu.Unlock()
	if n == 0 {
		err := fmt.Errorf("%w: load a genre first", ErrEmptyPlaylist)
		c.warn(dir.String(), err)
		return err
	}

	var np api.NowPlaying
	var err error
	if dir == Previous {
		np, err = c.backend.Previous(ctx)
	} else {
		np, err = c.backend.Next(ctx)
	}
	if err != nil {
		c.fail(dir.String(), err)
		return err
	}

	c.update(func() {
		if len(c.playlist) == 0 {
			return
		}
		idx := c.indexOfLocked("", np.CurrentSong, np.Index)
		if idx < 0 {
			idx = adjacent(c.state.CurrentIndex, dir, len(c.playlist))
		}
		c.state.CurrentIndex = idx
		c.state.IsPlaying = true
		c.state.Seeking = false
		c.songLabel = np.CurrentSong
		c.trackURL = np.URL
		c.position, c.duration = 0, 0
		c.notice = Notice{}
		c.startLoopLocked()
	})

	c.logger.Info("advanced", "direction", dir, "song", np.CurrentSong)
	c.trackStarted(np)
	return nil
}

func (c *Controller) ToggleShuffle(ctx context.Context) (bool, error) {
	on, err := c.backend.ToggleShuffle(ctx)
	if err != nil {
		c.fail("shuffle", err)
		return false, err
	}
	c.update(func() {
		c.state.Shuffle = on
		c.notice = Notice{Level: LevelInfo, Text: "Shuffle " + onOff(on)}
	})
	return on, nil
}

func (c *Controller) ToggleRepeat(ctx context.Context) (bool, error) {
	on, err := c.backend.ToggleRepeat(ctx)
	if err != nil {
		c.fail("repeat", err)
		return false, err
	}
	c.update(func() {
		c.state.Repeat = on
		c.notice = Notice{Level: LevelInfo, Text: "Repeat " + onOff(on)}
	})
	return on, nil
}

// DragStart marks the position control as held by the user. Ticks stop
// overwriting the displayed position until the drag ends.
func (c *Controller) DragStart() {
	c.update(func() {
		c.state.Seeking = true
	})
}

// DragMove previews a position while the user drags.
func (c *Controller) DragMove(seconds int) {
	c.update(func() {
		c.state.Seeking = true
		c.position = min(max(seconds, 0), c.duration)
	})
}

// DragCancel ends a drag without seeking; the next tick restores the display.
func (c *Controller) DragCancel() {
	c.update(func() {
		c.state.Seeking = false
	})
}

// DragCommit issues exactly one seek to seconds. Seeking is cleared in
// every outcome so a failed request can never leave the control stuck.
func (c *Controller) DragCommit(ctx context.Context, seconds int) error {
	c.mu.Lock()
	duration := c.duration
	c.mu.Unlock()

	if seconds < 0 || seconds > duration {
		err := fmt.Errorf("%w: %ds is outside 0..%ds", ErrInvalidTime, seconds, duration)
		c.update(func() {
			c.state.Seeking = false
		})
		c.warn("seek", err)
		return err
	}

	res, err := c.backend.Seek(ctx, seconds)
	c.update(func() {
		c.state.Seeking = false
		if err != nil {
			return
		}
		c.position = res.CurrentTime
		if res.Duration > 0 {
			c.duration = res.Duration
		}
		if c.state.IsPlaying {
			c.startLoopLocked()
		}
	})
	if err != nil {
		c.fail("seek", err)
		return err
	}

	if err := c.audio.Seek(res.CurrentTime); err != nil {
		c.logger.Debug("local audio seek failed", "error", err)
	}
	c.logger.Info("seeked", "requested", seconds, "confirmed", res.CurrentTime)
	return nil
}

// ReconciliationTick runs one poll-and-display cycle against the current loop generation.
func (c *Controller) ReconciliationTick(ctx context.Context) {
	c.mu.Lock()
	gen := c.loopGen
	c.mu.Unlock()
	c.tick(ctx, gen)
}

func (c *Controller) tick(ctx context.Context, gen uint64) {
	snap, err := c.backend.Info(ctx)

	c.mu.Lock()
	if gen != c.loopGen {
		c.mu.Unlock()
		return
	}

	if err != nil {
		// Skip this tick and keep polling; only an explicit idle report stops the loop.
		c.notice = Notice{Level: LevelWarn, Text: "Lost contact with server: " + err.Error()}
		v := c.viewLocked()
		c.mu.Unlock()
		c.logger.Warn("reconciliation tick skipped", "error", err)
		c.onChange(v)
		return
	}

	if !snap.Active() {
		c.stopLoopLocked()
		c.state.IsPlaying = false
		c.songLabel = ""
		c.trackURL = ""
		c.position, c.duration = 0, 0
		v := c.viewLocked()
		c.mu.Unlock()
		c.logger.Info("server reports nothing playing, polling stopped")
		c.audio.Stop()
		c.onChange(v)
		return
	}

	if c.notice.Level == LevelWarn && strings.HasPrefix(c.notice.Text, "Lost contact") {
		c.notice = Notice{}
	}
	if snap.CurrentSong != c.songLabel {
		// The server moved on by itself; follow it.
		if idx := c.indexOfLocked(snap.FullPath, snap.CurrentSong, nil); idx >= 0 {
			c.state.CurrentIndex = idx
		}
		c.songLabel = snap.CurrentSong
		c.trackURL = ""
	}
	if !c.state.Seeking {
		c.position = snap.Elapsed()
		c.duration = snap.Length()
	}

	var (
		// A held position control defers the end until the drag is released.
		ended  = snap.Ended() && !c.state.Seeking
		action TrackEndAction
		index  = c.state.CurrentIndex
		count  = len(c.playlist)
	)
	if ended {
		// Retire this generation so concurrent ticks observing the same end are dropped.
		c.stopLoopLocked()
		action = TrackEndPolicy(c.state)
	}
	v := c.viewLocked()
	c.mu.Unlock()

	c.onChange(v)
	if ended {
		c.onTrackEnd(c.root, action, index, count)
	}
}

// onTrackEnd starts whatever follows the finished track. If that fails the
// session is left not playing, since no loop remains to notice the end again.
func (c *Controller) onTrackEnd(ctx context.Context, action TrackEndAction, index, count int) {
	c.logger.Info("track ended", "action", action, "index", index)
	var err error
	switch {
	case action == EndReplay && index >= 0:
		err = c.SelectSong(ctx, index)
	case action == EndShuffle:
		err = c.Advance(ctx, Next)
	case count > 0:
		err = c.SelectSong(ctx, (index+1)%count)
	default:
		err = ErrEmptyPlaylist
	}
	if err == nil {
		return
	}

	c.logger.Warn("could not continue after track end", "action", action, "error", err)
	c.update(func() {
		// A track started meanwhile owns the loop again.
		if c.cancelLoop != nil {
			return
		}
		c.state.IsPlaying = false
		c.state.Seeking = false
		c.notice = Notice{Level: LevelError, Text: "Playback ended: " + err.Error()}
	})
	c.audio.Stop()
}

func (c *Controller) startLoopLocked() {
	c.stopLoopLocked()
	ctx, cancel := context.WithCancel(c.root)
	c.cancelLoop = cancel
	go c.runLoop(ctx, c.loopGen)
}

func (c *Controller) stopLoopLocked() {
	c.loopGen++
	if c.cancelLoop != nil {
		c.cancelLoop()
		c.cancelLoop = nil
	}
}

func (c *Controller) runLoop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A slow tick may still be in flight; overlapping is fine for a display.
			go c.tick(ctx, gen)
		}
	}
}

func (c *Controller) trackStarted(np api.NowPlaying) {
	c.notifier.Notify(Notice{Level: LevelInfo, Text: "Now playing: " + np.CurrentSong, TrackChange: true})
	if np.URL == "" {
		return
	}
	go func() {
		if err := c.audio.Play(c.root, np.URL); err != nil && c.root.Err() == nil {
			c.logger.Warn("local audio failed", "url", np.URL, "error", err)
			c.update(func() {
				c.notice = Notice{Level: LevelWarn, Text: "Audio: " + err.Error()}
			})
		}
	}()
}

// indexOfLocked resolves a server-reported song to a playlist index.
// An explicit index wins, then an exact path, then the file name.
func (c *Controller) indexOfLocked(fullPath, song string, explicit *int) int {
	if explicit != nil && *explicit >= 0 && *explicit < len(c.playlist) {
		return *explicit
	}
	if fullPath != "" {
		if i := slices.Index(c.playlist, fullPath); i >= 0 {
			return i
		}
	}
	_, i, found := lo.FindIndexOf(c.playlist, func(p string) bool {
		return p == song || baseName(p) == song
	})
	if !found {
		return -1
	}
	return i
}

func (c *Controller) update(fn func()) View {
	c.mu.Lock()
	fn()
	v := c.viewLocked()
	c.mu.Unlock()
	c.onChange(v)
	return v
}

func (c *Controller) viewLocked() View {
	return View{
		Genres:    slices.Clone(c.genres),
		Genre:     c.genre,
		Playlist:  slices.Clone(c.playlist),
		SongLabel: c.songLabel,
		TrackURL:  c.trackURL,
		Position:  c.position,
		Duration:  c.duration,
		State:     c.state,
		Notice:    c.notice,
	}
}

// fail reports a backend or transport failure.
func (c *Controller) fail(op string, err error) {
	c.logger.Warn("playback operation failed", "op", op, "error", err)
	c.report(Notice{Level: LevelError, Text: op + ": " + err.Error()})
}

// warn reports rejected user input.
func (c *Controller) warn(op string, err error) {
	c.logger.Info("playback input rejected", "op", op, "error", err)
	c.report(Notice{Level: LevelWarn, Text: op + ": " + err.Error()})
}

func (c *Controller) report(n Notice) {
	if errors.Is(c.root.Err(), context.Canceled) {
		return
	}
	c.update(func() {
		c.notice = n
	})
	c.notifier.Notify(n)
}

// adjacent mirrors the server's wraparound when the response cannot be
// matched against the playlist.
func adjacent(current int, dir Direction, n int) int {
	if dir == Previous {
		if current <= 0 {
			return n - 1
		}
		return current - 1
	}
	if current+1 >= n {
		return 0
	}
	return current + 1
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

type nopAudio struct{}

func (nopAudio) Play(context.Context, string) error { return nil }
func (nopAudio) Seek(int) error { return nil }
func (nopAudio) Stop() {}

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
