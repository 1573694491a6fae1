package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/gigurra/groove/cmd/player/playback"
	"github.com/stretchr/testify/assert"
)

type sent struct{ title, body string }

func newRecorder(opts Options) (*Desktop, *[]sent, *time.Time) {
	var out []sent
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := newDesktop(opts, func(title, body string) error {
		out = append(out, sent{title, body})
		return nil
	}, nil)
	d.now = func() time.Time { return clock }
	return d, &out, &clock
}

func TestDesktop_Filtering(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		notice playback.Notice
		want   []sent
	}{
		{
			name:   "disabled sends nothing",
			opts:   Options{},
			notice: playback.Notice{Level: playback.LevelError, Text: "play: boom"},
		},
		{
			name:   "error",
			opts:   Options{Enabled: true},
			notice: playback.Notice{Level: playback.LevelError, Text: "play: boom"},
			want:   []sent{{"groove: error", "play: boom"}},
		},
		{
			name:   "warning",
			opts:   Options{Enabled: true},
			notice: playback.Notice{Level: playback.LevelWarn, Text: "No songs available in Jazz"},
			want:   []sent{{"groove: warning", "No songs available in Jazz"}},
		},
		{
			name:   "info stays in the ui",
			opts:   Options{Enabled: true},
			notice: playback.Notice{Level: playback.LevelInfo, Text: "Shuffle on"},
		},
		{
			name:   "track change off",
			opts:   Options{Enabled: true},
			notice: playback.Notice{Level: playback.LevelInfo, Text: "Now playing: a.mp3", TrackChange: true},
		},
		{
			name:   "track change on",
			opts:   Options{Enabled: true, OnTrackChange: true},
			notice: playback.Notice{Level: playback.LevelInfo, Text: "Now playing: a.mp3", TrackChange: true},
			want:   []sent{{"groove", "Now playing: a.mp3"}},
		},
		{
			name: "empty",
			opts: Options{Enabled: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, out, _ := newRecorder(tt.opts)
			d.Notify(tt.notice)
			assert.Equal(t, tt.want, *out)
		})
	}
}

func TestDesktop_Cooldown(t *testing.T) {
	d, out, clock := newRecorder(Options{Enabled: true, Cooldown: 5 * time.Second})
	n := playback.Notice{Level: playback.LevelWarn, Text: "Lost contact with server"}

	d.Notify(n)
	d.Notify(n)
	*clock = clock.Add(6 * time.Second)
	d.Notify(n)
	d.Notify(playback.Notice{Level: playback.LevelWarn, Text: "something else"})

	assert.Len(t, *out, 3)
}

func TestDesktop_SendFailureIsSwallowed(t *testing.T) {
	d := newDesktop(Options{Enabled: true}, func(string, string) error {
		return errors.New("no dbus")
	}, nil)

	assert.NotPanics(t, func() {
		d.Notify(playback.Notice{Level: playback.LevelError, Text: "x"})
	})
}

func TestDesktop_SetOptions(t *testing.T) {
	d, out, _ := newRecorder(Options{})
	n := playback.Notice{Level: playback.LevelError, Text: "seek: boom"}

	d.Notify(n)
	d.SetOptions(Options{Enabled: true})
	d.Notify(n)

	assert.Equal(t, []sent{{"groove: error", "seek: boom"}}, *out)
}
