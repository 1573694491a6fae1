package playback

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIndex  = errors.New("invalid song index")
	ErrInvalidTime   = errors.New("invalid seek time")
	ErrEmptyPlaylist = errors.New("playlist is empty")
	ErrNoGenre       = errors.New("no genre selected")
)

// State is the controller's client-side view of the transport. It lives
// only for the session and is reset on stop.
type State struct {
	CurrentIndex int // -1 when nothing is selected
	IsPlaying    bool
	Repeat       bool
	Shuffle      bool
	Seeking      bool // user is dragging the position control
}

// DefaultState is the state of a fresh session.
func DefaultState() State {
	return State{CurrentIndex: -1}
}

// Direction selects the adjacent track for Advance.
type Direction int

const (
	Next     Direction = 1
	Previous Direction = -1
)

func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// Level grades a Notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is a non-blocking message for the user.
type Notice struct {
	Level       Level
	Text        string
	TrackChange bool // a new track started
}

func (n Notice) IsZero() bool {
	return n.Text == ""
}

// View is everything a UI needs to render the player.
type View struct {
	Genres    []string
	Genre     string
	Playlist  []string
	SongLabel string
	TrackURL  string // playable URL of the current track, if known
	Position  int    // seconds
	Duration  int    // seconds
	State     State
	Notice    Notice
}

// TimeText renders the elapsed and total time as "MM:SS / MM:SS".
func (v View) TimeText() string {
	return FormatTime(v.Position) + " / " + FormatTime(v.Duration)
}

// Progress returns the played fraction in [0, 1].
func (v View) Progress() float64 {
	if v.Duration <= 0 {
		return 0
	}
	p := float64(v.Position) / float64(v.Duration)
	return min(1, max(0, p))
}

// NoSongs reports the "genre selected but it has no songs" display state.
func (v View) NoSongs() bool {
	return v.Genre != "" && len(v.Playlist) == 0
}

// Headline is the one-line now-playing text.
func (v View) Headline() string {
	switch {
	case v.NoSongs():
		return fmt.Sprintf("No songs in %s", Capitalize(v.Genre))
	case v.State.IsPlaying && v.SongLabel != "":
		return "Now playing: " + v.SongLabel
	default:
		return "Nothing playing"
	}
}
