package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/groove/cmd/player/playback"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

type PlaylistParams struct {
	Genre   string `pos:"true" optional:"true" help:"Genre to load as the playlist. Omit to show the current playlist."`
	Reset   bool   `short:"r" optional:"true" help:"Restore the full library as the playlist."`
	Server  string `short:"S" optional:"true" help:"Playback server URL. Defaults to server_url in the config or $GROOVE_SERVER."`
	Verbose bool   `short:"v" optional:"true" help:"Log debug output to stderr."`
}

func PlaylistCmd() *cobra.Command {
	return boa.CmdT[PlaylistParams]{
		Use:   "playlist [genre]",
		Short: "Show or replace the server playlist",
		Long: `Show the server's current playlist.

With [genre], the playlist is replaced by that genre's songs first.
With --reset, it is replaced by the full library. Either one stops
whatever is playing, since old positions mean nothing in the new list.`,
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *PlaylistParams, cmd *cobra.Command, args []string) {
			ctx, stop := signalContext()
			defer stop()
			if err := runPlaylist(ctx, params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "playlist: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runPlaylist(ctx context.Context, params *PlaylistParams, stdout io.Writer) error {
	if params.Genre != "" && params.Reset {
		return errors.New("cannot use a genre with --reset")
	}

	sess, err := openSession(params.Server, params.Verbose)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctrl := sess.Controller(nil)
	defer ctrl.Close()

	switch {
	case params.Genre != "":
		err = ctrl.SelectGenre(ctx, params.Genre)
	case params.Reset:
		err = ctrl.ResetPlaylist(ctx)
	default:
		err = ctrl.Attach(ctx)
	}
	if err != nil {
		return err
	}

	printPlaylist(stdout, ctrl.View())
	return nil
}

func printPlaylist(w io.Writer, v playback.View) {
	if v.NoSongs() {
		fmt.Fprintf(w, "No songs available in %s\n", playback.Capitalize(v.Genre))
		return
	}
	if len(v.Playlist) == 0 {
		fmt.Fprintln(w, "Playlist is empty")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(getTermWidth())
	t.AppendHeader(table.Row{"#", "Song", ""})
	for i, p := range v.Playlist {
		marker := ""
		if v.State.IsPlaying && i == v.State.CurrentIndex {
			marker = text.FgGreen.Sprint("▶")
		}
		t.AppendRow(table.Row{i + 1, playback.SongName(p), marker})
	}
	t.Render()
}
