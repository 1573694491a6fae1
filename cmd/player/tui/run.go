package tui

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/groove/cmd/player"
	"github.com/gigurra/groove/cmd/player/playback"
)

var clipboardWriteAll = clipboard.WriteAll

// Run shows the player until the user quits or ctx is cancelled.
func Run(ctx context.Context, s *player.Session) error {
	var prog atomic.Pointer[tea.Program]
	ctrl := s.Controller(func(playback.View) {
		// Changes can originate inside Update; never block the event loop.
		if p := prog.Load(); p != nil {
			go p.Send(changedMsg{})
		}
	})
	defer ctrl.Close()

	s.WatchConfig(ctx)

	m := New(ctx, ctrl, Options{
		Server: s.Client.BaseURL(),
		URLFor: s.Client.MusicURL,
		Copy:   clipboardWriteAll,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	prog.Store(p)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
