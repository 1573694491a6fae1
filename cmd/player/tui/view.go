package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/groove/cmd/player/playback"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	serverStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	badgeOnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	badgeOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	playingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	seekBarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const (
	defaultWidth = 80
	chromeLines  = 12 // everything except the playlist rows
	minRows      = 3
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	w := m.width
	if w <= 0 {
		w = defaultWidth
	}
	v := m.view

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("groove"))
	if m.opts.Server != "" {
		sb.WriteString("  ")
		sb.WriteString(serverStyle.Render(truncate(m.opts.Server, w/2)))
	}
	sb.WriteString("  ")
	sb.WriteString(badge("shuffle", v.State.Shuffle))
	sb.WriteString(badge("repeat", v.State.Repeat))
	sb.WriteString("\n\n")

	genre := "all songs"
	if v.Genre != "" {
		genre = playback.Capitalize(v.Genre)
	}
	fmt.Fprintf(&sb, "%s %s\n\n", dimStyle.Render("Genre:"), genre)

	sb.WriteString(m.renderPlaylist(w))
	sb.WriteByte('\n')

	sb.WriteString(truncate(v.Headline(), w))
	sb.WriteByte('\n')
	sb.WriteString(renderProgress(v, w))
	sb.WriteString("\n\n")

	if n := m.activeNotice(); !n.IsZero() {
		sb.WriteString(noticeStyle(n.Level).Render(truncate(n.Text, w)))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.help.View(m.keys))
	sb.WriteByte('\n')

	return sb.String()
}

func (m Model) renderPlaylist(w int) string {
	v := m.view
	if v.NoSongs() {
		return dimStyle.Render(fmt.Sprintf("  No songs available in %s", playback.Capitalize(v.Genre))) + "\n"
	}
	if len(v.Playlist) == 0 {
		return dimStyle.Render("  Playlist is empty, press g to pick a genre") + "\n"
	}

	rows := minRows
	if m.height > 0 {
		rows = max(m.height-chromeLines, minRows)
	}
	start, end := window(len(v.Playlist), m.cursor, rows)

	var sb strings.Builder
	for i := start; i < end; i++ {
		marker := "  "
		if i == v.State.CurrentIndex && v.State.IsPlaying {
			marker = playingStyle.Render("▶ ")
		}
		line := truncate(fmt.Sprintf("%3d. %s", i+1, playback.SongName(v.Playlist[i])), w-3)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(marker)
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if end-start < len(v.Playlist) {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(v.Playlist))))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// window picks the visible slice of n rows keeping cursor in view.
func window(n, cursor, rows int) (int, int) {
	if n <= rows {
		return 0, n
	}
	start := max(cursor-rows/2, 0)
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}

func renderProgress(v playback.View, w int) string {
	elapsed := playback.FormatTime(v.Position)
	total := playback.FormatTime(v.Duration)
	barWidth := max(w-len(elapsed)-len(total)-4, 10)

	filled := int(v.Progress() * float64(barWidth))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
	style := barStyle
	if v.State.Seeking {
		style = seekBarStyle
	}
	return fmt.Sprintf("%s %s %s", timeStyle.Render(elapsed), style.Render(bar), timeStyle.Render(total))
}

func badge(label string, on bool) string {
	if on {
		return badgeOnStyle.Render(label)
	}
	return badgeOffStyle.Render(label)
}

func noticeStyle(l playback.Level) lipgloss.Style {
	switch l {
	case playback.LevelError:
		return errorStyle
	case playback.LevelWarn:
		return warnStyle
	default:
		return infoStyle
	}
}

// truncate cuts s to maxWidth terminal cells, adding "…" when shortened.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "…")
}
