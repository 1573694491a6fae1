package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/groove/cmd/player"
	"github.com/gigurra/groove/cmd/player/tui"
	"github.com/spf13/cobra"
)

type TuiParams struct {
	Server  string `short:"S" optional:"true" help:"Playback server URL. Defaults to server_url in the config or $GROOVE_SERVER."`
	Verbose bool   `short:"v" optional:"true" help:"Log at debug level. The TUI always logs to the log file only."`
}

func TuiCmd() *cobra.Command {
	return boa.CmdT[TuiParams]{
		Use:   "tui",
		Short: "Interactive player",
		Long: `Open the interactive player.

Browse genres and the playlist, start and stop tracks, and seek with the
arrow keys. A track already playing on the server is picked up on start.
Press ? for all keys.`,
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *TuiParams, cmd *cobra.Command, args []string) {
			ctx, stop := signalContext()
			defer stop()
			if err := runTui(ctx, params); err != nil {
				fmt.Fprintf(os.Stderr, "tui: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runTui(ctx context.Context, params *TuiParams) error {
	sess, err := player.Open(player.Options{
		Server:      params.Server,
		Verbose:     params.Verbose,
		UserAgent:   userAgent,
		Interactive: true,
	})
	if err != nil {
		return err
	}
	defer sess.Close()
	return tui.Run(ctx, sess)
}
