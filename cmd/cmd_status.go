package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/groove/cmd/player/playback"
	"github.com/spf13/cobra"
)

type StatusParams struct {
	Watch   bool   `short:"w" optional:"true" help:"Keep printing status changes until interrupted."`
	Server  string `short:"S" optional:"true" help:"Playback server URL. Defaults to server_url in the config or $GROOVE_SERVER."`
	Verbose bool   `short:"v" optional:"true" help:"Log debug output to stderr."`
}

func StatusCmd() *cobra.Command {
	return boa.CmdT[StatusParams]{
		Use:         "status",
		Short:       "Show what the server is playing",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *StatusParams, cmd *cobra.Command, args []string) {
			ctx, stop := signalContext()
			defer stop()
			if err := runStatus(ctx, params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "status: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runStatus(ctx context.Context, params *StatusParams, stdout io.Writer) error {
	sess, err := openSession(params.Server, params.Verbose)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctrl := sess.Controller(nil)
	defer ctrl.Close()

	if err := ctrl.Attach(ctx); err != nil {
		return err
	}
	last := statusLine(ctrl.View())
	fmt.Fprintln(stdout, last)
	if !params.Watch {
		return nil
	}

	ticker := time.NewTicker(sess.Config.PollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		var line string
		if !ctrl.Polling() {
			// Idle: look for a track started elsewhere.
			if err := ctrl.Attach(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				line = "Lost contact with server: " + err.Error()
			}
		}
		if line == "" {
			line = statusLine(ctrl.View())
		}
		if line != last {
			fmt.Fprintln(stdout, line)
			last = line
		}
	}
}

func statusLine(v playback.View) string {
	if !v.State.IsPlaying || v.SongLabel == "" {
		return v.Headline()
	}
	line := fmt.Sprintf("%s  %s", v.Headline(), v.TimeText())
	if v.Notice.Level == playback.LevelWarn && v.Notice.Text != "" {
		line += "  (" + v.Notice.Text + ")"
	}
	return line
}
