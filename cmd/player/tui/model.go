// Package tui is the interactive terminal player.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/groove/cmd/player/playback"
)

const (
	seekStep     = 5 // seconds per arrow press
	noticeTTL    = 5 * time.Second
	tickInterval = time.Second
)

// Controller is what the TUI needs from *playback.Controller.
type Controller interface {
	View() playback.View
	Attach(ctx context.Context) error
	LoadGenres(ctx context.Context) ([]string, error)
	SelectGenre(ctx context.Context, genre string) error
	ResetPlaylist(ctx context.Context) error
	SelectSong(ctx context.Context, index int) error
	PlayFirst(ctx context.Context) error
	Stop(ctx context.Context) error
	Advance(ctx context.Context, dir playback.Direction) error
	ToggleShuffle(ctx context.Context) (bool, error)
	ToggleRepeat(ctx context.Context) (bool, error)
	DragStart()
	DragMove(seconds int)
	DragCancel()
	DragCommit(ctx context.Context, seconds int) error
}

// Options carries the TUI's outside-world hooks.
type Options struct {
	Server string
	// URLFor derives a playable URL for a song label when the controller has none.
	URLFor func(song string) string
	Copy   func(text string) error
}

// changedMsg tells the model the controller's View moved on.
type changedMsg struct{}

// opDoneMsg carries the outcome of a controller operation run off the UI goroutine.
type opDoneMsg struct{ err error }

type tickMsg time.Time

// Model is the Bubble Tea model of the player screen.
type Model struct {
	ctx  context.Context
	ctrl Controller
	opts Options

	view     playback.View
	cursor   int
	genreIdx int
	width    int
	height   int

	// local notices (clipboard) share the notice line with controller notices
	notice   playback.Notice
	noticeAt time.Time
	now      func() time.Time

	keys     keyMap
	help     help.Model
	quitting bool
}

func New(ctx context.Context, ctrl Controller, opts Options) Model {
	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		opts:     opts,
		view:     ctrl.View(),
		genreIdx: -1,
		now:      time.Now,
		keys:     newKeyMap(),
		help:     help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.run(m.ctrl.Attach),
		m.run(func(ctx context.Context) error {
			_, err := m.ctrl.LoadGenres(ctx)
			return err
		}),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// run executes a blocking controller call outside the event loop.
func (m Model) run(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: fn(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case changedMsg, opDoneMsg:
		return m.refresh(), nil
	case tickMsg:
		return m.refresh(), tickCmd()
	}
	return m, nil
}

// refresh pulls the latest View from the controller.
func (m Model) refresh() Model {
	v := m.ctrl.View()
	if v.Notice != m.view.Notice && !v.Notice.IsZero() {
		m.notice = v.Notice
		m.noticeAt = m.now()
	}
	if v.State.CurrentIndex >= 0 && v.State.CurrentIndex != m.view.State.CurrentIndex {
		m.cursor = v.State.CurrentIndex
	}
	m.view = v
	m.cursor = min(max(m.cursor, 0), max(len(v.Playlist)-1, 0))
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	seeking := m.view.State.Seeking

	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, k.Down):
		if m.cursor < len(m.view.Playlist)-1 {
			m.cursor++
		}

	case key.Matches(msg, k.Play):
		if seeking {
			pos := m.view.Position
			return m, m.run(func(ctx context.Context) error { return m.ctrl.DragCommit(ctx, pos) })
		}
		idx := m.cursor
		return m, m.run(func(ctx context.Context) error { return m.ctrl.SelectSong(ctx, idx) })
	case key.Matches(msg, k.First):
		return m, m.run(m.ctrl.PlayFirst)
	case key.Matches(msg, k.Stop):
		return m, m.run(m.ctrl.Stop)
	case key.Matches(msg, k.Next):
		return m, m.run(func(ctx context.Context) error { return m.ctrl.Advance(ctx, playback.Next) })
	case key.Matches(msg, k.Prev):
		return m, m.run(func(ctx context.Context) error { return m.ctrl.Advance(ctx, playback.Previous) })

	case key.Matches(msg, k.Genre):
		genres := m.view.Genres
		if len(genres) == 0 {
			return m, m.run(func(ctx context.Context) error {
				_, err := m.ctrl.LoadGenres(ctx)
				return err
			})
		}
		m.genreIdx = (m.genreIdx + 1) % len(genres)
		m.cursor = 0
		genre := genres[m.genreIdx]
		return m, m.run(func(ctx context.Context) error { return m.ctrl.SelectGenre(ctx, genre) })
	case key.Matches(msg, k.All):
		m.genreIdx = -1
		m.cursor = 0
		return m, m.run(m.ctrl.ResetPlaylist)
	case key.Matches(msg, k.Shuffle):
		return m, m.run(func(ctx context.Context) error {
			_, err := m.ctrl.ToggleShuffle(ctx)
			return err
		})
	case key.Matches(msg, k.Repeat):
		return m, m.run(func(ctx context.Context) error {
			_, err := m.ctrl.ToggleRepeat(ctx)
			return err
		})

	case key.Matches(msg, k.Back):
		return m.drag(-seekStep), nil
	case key.Matches(msg, k.Forward):
		return m.drag(seekStep), nil
	case key.Matches(msg, k.Cancel):
		if seeking {
			m.ctrl.DragCancel()
			return m.refresh(), nil
		}

	case key.Matches(msg, k.Copy):
		return m.copyURL(), nil
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// drag moves the seek preview. The first press grabs the position control.
func (m Model) drag(delta int) Model {
	if !m.view.State.IsPlaying || m.view.Duration <= 0 {
		return m
	}
	if !m.view.State.Seeking {
		m.ctrl.DragStart()
	}
	m.ctrl.DragMove(m.view.Position + delta)
	return m.refresh()
}

func (m Model) copyURL() Model {
	url := m.view.TrackURL
	if url == "" && m.view.SongLabel != "" && m.opts.URLFor != nil {
		url = m.opts.URLFor(m.view.SongLabel)
	}
	switch {
	case url == "":
		m.notice = playback.Notice{Level: playback.LevelWarn, Text: "Nothing playing to copy"}
	case m.opts.Copy == nil:
		m.notice = playback.Notice{Level: playback.LevelWarn, Text: "Clipboard unavailable"}
	default:
		if err := m.opts.Copy(url); err != nil {
			m.notice = playback.Notice{Level: playback.LevelError, Text: "Copy failed: " + err.Error()}
		} else {
			m.notice = playback.Notice{Level: playback.LevelInfo, Text: "Copied " + url}
		}
	}
	m.noticeAt = m.now()
	return m
}

// activeNotice returns the notice to show, if it has not expired.
func (m Model) activeNotice() playback.Notice {
	if m.notice.IsZero() || m.now().Sub(m.noticeAt) > noticeTTL {
		return playback.Notice{}
	}
	return m.notice
}
