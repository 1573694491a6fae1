package playback

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var audioExt = regexp.MustCompile(`(?i)\.(mp3|wav|ogg|flac)$`)

// FormatTime renders whole seconds as MM:SS. Minutes are not wrapped into hours.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ParseTime accepts "SS", "MM:SS" or "HH:MM:SS" and returns whole seconds.
func ParseTime(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTime)
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	total := 0
	for i, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		total = total*60 + n
	}
	return total, nil
}

// SongName turns a server song path into a display name: directories and
// the audio extension are dropped, dashes and underscores become spaces.
func SongName(path string) string {
	name := baseName(path)
	name = audioExt.ReplaceAllString(name, "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// Capitalize upper-cases the first letter.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// baseName handles both / and \ separated paths, since the server may run on either.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
