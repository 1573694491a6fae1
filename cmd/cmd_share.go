package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/atotto/clipboard"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var clipboardWriteAll = clipboard.WriteAll

type ShareParams struct {
	Copy    bool   `short:"c" optional:"true" help:"Also copy the URL to the clipboard."`
	Invert  bool   `short:"i" optional:"true" help:"Invert colors (white on black)."`
	Server  string `short:"S" optional:"true" help:"Playback server URL. Defaults to server_url in the config or $GROOVE_SERVER."`
	Verbose bool   `short:"v" optional:"true" help:"Log debug output to stderr."`
}

func ShareCmd() *cobra.Command {
	return boa.CmdT[ShareParams]{
		Use:   "share",
		Short: "Show a QR code for the song that is playing",
		Long: `Print the playable URL of the current song with a QR code
so a phone on the same network can open it.`,
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ShareParams, cmd *cobra.Command, args []string) {
			ctx, stop := signalContext()
			defer stop()
			if err := runShare(ctx, params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "share: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runShare(ctx context.Context, params *ShareParams, stdout io.Writer) error {
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
	v := ctrl.View()
	if !v.State.IsPlaying || v.SongLabel == "" {
		return errNothingPlaying
	}
	url := v.TrackURL
	if url == "" {
		url = sess.Client.MusicURL(v.SongLabel)
	}

	if err := renderQR(stdout, url, params.Invert); err != nil {
		return err
	}
	fmt.Fprintln(stdout, url)

	if params.Copy {
		if err := clipboardWriteAll(url); err != nil {
			return fmt.Errorf("failed to write to clipboard: %w", err)
		}
	}
	return nil
}

// renderQR draws text as a QR code with two-space ANSI background blocks.
func renderQR(w io.Writer, text string, invert bool) error {
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("generating qr code: %w", err)
	}

	dark, light := "\033[40m  \033[0m", "\033[47m  \033[0m"
	if invert {
		dark, light = light, dark
	}

	for _, row := range qr.Bitmap() {
		for _, set := range row {
			if set {
				fmt.Fprint(w, dark)
			} else {
				fmt.Fprint(w, light)
			}
		}
		fmt.Fprintln(w, "\033[0m")
	}
	return nil
}
