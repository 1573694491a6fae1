package api

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// IdleLabels are the current_song values the server reports when nothing is playing.
var IdleLabels = []string{
	"Nenhuma música tocando",
	"No song playing",
}

// Genres maps a genre name to the song paths filed under it.
type Genres map[string][]string

// Names returns the genre names in sorted order.
func (g Genres) Names() []string {
	names := lo.Keys(g)
	slices.Sort(names)
	return names
}

// Playlist is an ordered sequence of song paths as the server stores them.
type Playlist []string

// NowPlaying is the server's answer to play, next and previous.
type NowPlaying struct {
	CurrentSong string `json:"current_song"`
	URL         string `json:"url,omitempty"`
	Index       *int   `json:"index,omitempty"`
	Status      string `json:"status,omitempty"`
}

// TransportSnapshot is one /api/info poll result.
type TransportSnapshot struct {
	CurrentSong string  `json:"current_song"`
	TimePlayed  float64 `json:"time_played"`
	Duration    float64 `json:"duration"`
	Genre       string  `json:"genre,omitempty"`
	FullPath    string  `json:"full_path,omitempty"`
}

// Active reports whether the snapshot describes a track that is playing.
// An empty label or one of IdleLabels is the server's explicit "nothing playing" signal.
func (s TransportSnapshot) Active() bool {
	label := strings.TrimSpace(s.CurrentSong)
	if label == "" {
		return false
	}
	return !lo.Contains(IdleLabels, label)
}

// Elapsed returns the played time in whole seconds.
func (s TransportSnapshot) Elapsed() int {
	return wholeSeconds(s.TimePlayed)
}

// Length returns the track duration in whole seconds.
func (s TransportSnapshot) Length() int {
	return wholeSeconds(s.Duration)
}

// Ended reports whether playback has reached the end of a track of known length.
func (s TransportSnapshot) Ended() bool {
	return s.Duration > 0 && s.TimePlayed >= s.Duration
}

// SeekResult is the server-confirmed position after a seek.
type SeekResult struct {
	CurrentTime int
	Duration    int
	// Confirmed is false when the server only acknowledged the request
	// and CurrentTime echoes the requested time.
	Confirmed bool
}

// Toggle decodes a mode status that the server reports either as a JSON
// bool or as a status word.
type Toggle bool

func (t *Toggle) UnmarshalJSON(b []byte) error {
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*t = Toggle(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: toggle status %s", ErrMalformedResponse, string(b))
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ativado", "on", "true", "enabled", "1":
		*t = true
	case "desativado", "off", "false", "disabled", "0":
		*t = false
	default:
		return fmt.Errorf("%w: toggle status %q", ErrMalformedResponse, s)
	}
	return nil
}

func wholeSeconds(v float64) int {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Floor(v))
}
