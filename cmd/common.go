package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/groove/cmd/player"
	"golang.org/x/term"
)

var userAgent = "groove"

// SetVersion tags every server request with the groove version.
func SetVersion(v string) {
	userAgent = "groove/" + v
}

func defaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

func openSession(server string, verbose bool) (*player.Session, error) {
	return player.Open(player.Options{
		Server:    server,
		Verbose:   verbose,
		UserAgent: userAgent,
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func getTermWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
