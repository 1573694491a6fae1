// Package playbacktest provides in-memory fakes for driving a playback
// controller in tests.
package playbacktest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/gigurra/groove/cmd/player/api"
)

// Call is one recorded backend invocation.
type Call struct {
	Method string
	Arg    any
}

// Backend models a playback server: a library, genres, a current playlist
// with a server-side cursor, and mode flags. Every call is recorded.
type Backend struct {
	mu sync.Mutex

	Library  api.Playlist
	ByGenre  api.Genres
	Snapshot api.TransportSnapshot
	// SeekDuration is reported back from Seek; zero means ack-only.
	SeekDuration int

	// InfoHook, when set, replaces the Info result.
	InfoHook func(ctx context.Context) (api.TransportSnapshot, error)

	playlist api.Playlist
	cursor   int
	shuffle  bool
	repeat   bool
	errs     map[string]error
	calls    []Call
}

// NewBackend returns a backend whose library and current playlist are songs.
func NewBackend(songs ...string) *Backend {
	return &Backend{
		Library:  slices.Clone(songs),
		ByGenre:  api.Genres{},
		playlist: slices.Clone(songs),
		cursor:   -1,
		errs:     map[string]error{},
	}
}

// FailOn makes method return err until cleared with a nil err.
func (b *Backend) FailOn(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.errs, method)
		return
	}
	b.errs[method] = err
}

func (b *Backend) SetSnapshot(s api.TransportSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Snapshot = s
}

// Calls returns the recorded calls, optionally filtered by method.
func (b *Backend) Calls(methods ...string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(methods) == 0 {
		return slices.Clone(b.calls)
	}
	var out []Call
	for _, c := range b.calls {
		if slices.Contains(methods, c.Method) {
			out = append(out, c)
		}
	}
	return out
}

func (b *Backend) Count(method string) int {
	return len(b.Calls(method))
}

func (b *Backend) record(method string, arg any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Method: method, Arg: arg})
	return b.errs[method]
}

func (b *Backend) Genres(context.Context) (api.Genres, error) {
	if err := b.record("Genres", nil); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := api.Genres{}
	for k, v := range b.ByGenre {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

func (b *Backend) Musics(context.Context) (api.Playlist, error) {
	if err := b.record("Musics", nil); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Library), nil
}

func (b *Backend) SelectGenre(_ context.Context, genre string) (api.Playlist, error) {
	if err := b.record("SelectGenre", genre); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	songs, ok := b.ByGenre[genre]
	if !ok {
		return nil, &api.StatusError{Method: http.MethodPost, Path: "/api/select_genre", Status: http.StatusBadRequest, Message: "Gênero inválido"}
	}
	b.playlist = slices.Clone(songs)
	b.cursor = -1
	return slices.Clone(b.playlist), nil
}

func (b *Backend) ResetPlaylist(context.Context) (api.Playlist, error) {
	if err := b.record("ResetPlaylist", nil); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playlist = slices.Clone(b.Library)
	b.cursor = -1
	return slices.Clone(b.playlist), nil
}

func (b *Backend) Play(_ context.Context, index int) (api.NowPlaying, error) {
	if err := b.record("Play", index); err != nil {
		return api.NowPlaying{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.playlist) {
		return api.NowPlaying{}, &api.StatusError{Method: http.MethodPost, Path: "/api/play", Status: http.StatusBadRequest, Message: fmt.Sprintf("Índice inválido: %d", index)}
	}
	b.cursor = index
	return b.nowPlayingLocked(), nil
}

func (b *Backend) Next(context.Context) (api.NowPlaying, error) {
	if err := b.record("Next", nil); err != nil {
		return api.NowPlaying{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.playlist) == 0 {
		return api.NowPlaying{}, &api.StatusError{Method: http.MethodPost, Path: "/api/next", Status: http.StatusBadRequest, Message: "Playlist vazia"}
	}
	b.cursor = (b.cursor + 1) % len(b.playlist)
	return b.nowPlayingLocked(), nil
}

func (b *Backend) Previous(context.Context) (api.NowPlaying, error) {
	if err := b.record("Previous", nil); err != nil {
		return api.NowPlaying{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.playlist) == 0 {
		return api.NowPlaying{}, &api.StatusError{Method: http.MethodPost, Path: "/api/previous", Status: http.StatusBadRequest, Message: "Playlist vazia"}
	}
	if b.cursor <= 0 {
		b.cursor = len(b.playlist) - 1
	} else {
		b.cursor--
	}
	return b.nowPlayingLocked(), nil
}

func (b *Backend) Stop(context.Context) error {
	if err := b.record("Stop", nil); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = -1
	return nil
}

func (b *Backend) Info(ctx context.Context) (api.TransportSnapshot, error) {
	if err := b.record("Info", nil); err != nil {
		return api.TransportSnapshot{}, err
	}
	b.mu.Lock()
	hook, snap := b.InfoHook, b.Snapshot
	b.mu.Unlock()
	if hook != nil {
		return hook(ctx)
	}
	return snap, nil
}

func (b *Backend) Seek(_ context.Context, seconds int) (api.SeekResult, error) {
	if err := b.record("Seek", seconds); err != nil {
		return api.SeekResult{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return api.SeekResult{CurrentTime: seconds, Duration: b.SeekDuration, Confirmed: b.SeekDuration > 0}, nil
}

func (b *Backend) ToggleShuffle(context.Context) (bool, error) {
	if err := b.record("ToggleShuffle", nil); err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shuffle = !b.shuffle
	return b.shuffle, nil
}

func (b *Backend) ToggleRepeat(context.Context) (bool, error) {
	if err := b.record("ToggleRepeat", nil); err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.repeat = !b.repeat
	return b.repeat, nil
}

func (b *Backend) nowPlayingLocked() api.NowPlaying {
	song := b.playlist[b.cursor]
	if i := strings.LastIndexAny(song, `/\`); i >= 0 {
		song = song[i+1:]
	}
	return api.NowPlaying{CurrentSong: song, URL: "http://fake/api/music/" + song}
}
