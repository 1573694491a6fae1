package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/groove/cmd/player/playback"
	"github.com/spf13/cobra"
)

var errNothingPlaying = errors.New("nothing is playing")

type PlayParams struct {
	Index   int    `pos:"true" optional:"true" help:"Playlist position to play, starting at 1." default:"1"`
	Server  string `short:"S" optional:"true" help:"Playback server URL. Defaults to server_url in the config or $GROOVE_SERVER."`
	Verbose bool   `short:"v" optional:"true" help:"Log debug output to stderr."`
}

type TransportParams struct {
	Server  string `short:"S" optional:"true" help:"Playback server URL. Defaults to server_url in the config or $GROOVE_SERVER."`
	Verbose bool   `short:"v" optional:"true" help:"Log debug output to stderr."`
}

type SeekParams struct {
	Time    string `pos:"true" required:"true" help:"Target position as MM:SS or seconds."`
	Server  string `short:"S" optional:"true" help:"Playback server URL. Defaults to server_url in the config or $GROOVE_SERVER."`
	Verbose bool   `short:"v" optional:"true" help:"Log debug output to stderr."`
}

// controlFunc is one transport operation against an attached controller.
type controlFunc func(ctx context.Context, ctrl *playback.Controller, stdout io.Writer) error

func PlayCmd() *cobra.Command {
	return boa.CmdT[PlayParams]{
		Use:         "play [n]",
		Short:       "Play the n-th song of the current playlist",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *PlayParams, cmd *cobra.Command, args []string) {
			ctx, stop := signalContext()
			defer stop()
			if err := runPlay(ctx, params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runPlay(ctx context.Context, params *PlayParams, stdout io.Writer) error {
	return runControl(ctx, params.Server, params.Verbose, stdout,
		func(ctx context.Context, ctrl *playback.Controller, stdout io.Writer) error {
			if err := ctrl.SelectSong(ctx, params.Index-1); err != nil {
				return err
			}
			printNowPlaying(stdout, ctrl.View())
			return nil
		})
}

func StopCmd() *cobra.Command {
	return transportCmd("stop", "Stop playback", stopOp)
}

func NextCmd() *cobra.Command {
	return transportCmd("next", "Skip to the next song", advanceOp(playback.Next))
}

func PrevCmd() *cobra.Command {
	return transportCmd("prev", "Go back to the previous song", advanceOp(playback.Previous))
}

func ShuffleCmd() *cobra.Command {
	return transportCmd("shuffle", "Toggle shuffle mode", toggleOp("Shuffle", (*playback.Controller).ToggleShuffle))
}

func RepeatCmd() *cobra.Command {
	return transportCmd("repeat", "Toggle repeat mode", toggleOp("Repeat", (*playback.Controller).ToggleRepeat))
}

func transportCmd(use, short string, op controlFunc) *cobra.Command {
	return boa.CmdT[TransportParams]{
		Use:         use,
		Short:       short,
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *TransportParams, cmd *cobra.Command, args []string) {
			ctx, stop := signalContext()
			defer stop()
			if err := runControl(ctx, params.Server, params.Verbose, os.Stdout, op); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", use, err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func stopOp(ctx context.Context, ctrl *playback.Controller, stdout io.Writer) error {
	if err := ctrl.Stop(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Stopped")
	return nil
}

func advanceOp(dir playback.Direction) controlFunc {
	return func(ctx context.Context, ctrl *playback.Controller, stdout io.Writer) error {
		if err := ctrl.Advance(ctx, dir); err != nil {
			return err
		}
		printNowPlaying(stdout, ctrl.View())
		return nil
	}
}

func toggleOp(label string, toggle func(*playback.Controller, context.Context) (bool, error)) controlFunc {
	return func(ctx context.Context, ctrl *playback.Controller, stdout io.Writer) error {
		on, err := toggle(ctrl, ctx)
		if err != nil {
			return err
		}
		state := "off"
		if on {
			state = "on"
		}
		fmt.Fprintf(stdout, "%s %s\n", label, state)
		return nil
	}
}

func SeekCmd() *cobra.Command {
	return boa.CmdT[SeekParams]{
		Use:   "seek <time>",
		Short: "Jump to a position in the current song",
		Long: `Jump to a position in the current song.

The time is MM:SS or a number of seconds, and must lie within the song.`,
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *SeekParams, cmd *cobra.Command, args []string) {
			ctx, stop := signalContext()
			defer stop()
			if err := runSeek(ctx, params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "seek: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runSeek(ctx context.Context, params *SeekParams, stdout io.Writer) error {
	seconds, err := playback.ParseTime(params.Time)
	if err != nil {
		return err
	}
	return runControl(ctx, params.Server, params.Verbose, stdout,
		func(ctx context.Context, ctrl *playback.Controller, stdout io.Writer) error {
			if !ctrl.State().IsPlaying {
				return errNothingPlaying
			}
			ctrl.DragStart()
			if err := ctrl.DragCommit(ctx, seconds); err != nil {
				return err
			}
			v := ctrl.View()
			fmt.Fprintf(stdout, "%s  %s\n", v.Headline(), v.TimeText())
			return nil
		})
}

// runControl attaches a controller to the server's current session and runs op.
func runControl(ctx context.Context, server string, verbose bool, stdout io.Writer, op controlFunc) error {
	sess, err := openSession(server, verbose)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctrl := sess.Controller(nil)
	defer ctrl.Close()

	if err := ctrl.Attach(ctx); err != nil {
		return err
	}
	return op(ctx, ctrl, stdout)
}

func printNowPlaying(w io.Writer, v playback.View) {
	fmt.Fprintln(w, v.Headline())
}
