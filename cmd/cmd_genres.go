package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/groove/cmd/player/playback"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type GenresParams struct {
	Server  string `short:"S" optional:"true" help:"Playback server URL. Defaults to server_url in the config or $GROOVE_SERVER."`
	Verbose bool   `short:"v" optional:"true" help:"Log debug output to stderr."`
}

func GenresCmd() *cobra.Command {
	return boa.CmdT[GenresParams]{
		Use:         "genres",
		Short:       "List the server's genres",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *GenresParams, cmd *cobra.Command, args []string) {
			ctx, stop := signalContext()
			defer stop()
			if err := runGenres(ctx, params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "genres: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runGenres(ctx context.Context, params *GenresParams, stdout io.Writer) error {
	sess, err := openSession(params.Server, params.Verbose)
	if err != nil {
		return err
	}
	defer sess.Close()

	genres, err := sess.Client.Genres(ctx)
	if err != nil {
		return err
	}
	if len(genres) == 0 {
		fmt.Fprintln(stdout, "No genres available")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(getTermWidth())
	t.AppendHeader(table.Row{"Genre", "Songs"})
	for _, name := range genres.Names() {
		t.AppendRow(table.Row{playback.Capitalize(name), len(genres[name])})
	}
	t.Render()
	return nil
}
