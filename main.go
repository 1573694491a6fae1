package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/groove/cmd"
	"github.com/spf13/cobra"
)

func main() {
	version := appVersion()
	cmd.SetVersion(version)

	boa.CmdT[boa.NoParams]{
		Use:     "groove",
		Short:   "Terminal client for a groove playback server",
		Version: version,
		SubCmds: []*cobra.Command{
			cmd.TuiCmd(),
			cmd.StatusCmd(),
			cmd.GenresCmd(),
			cmd.PlaylistCmd(),
			cmd.PlayCmd(),
			cmd.StopCmd(),
			cmd.NextCmd(),
			cmd.PrevCmd(),
			cmd.SeekCmd(),
			cmd.ShuffleCmd(),
			cmd.RepeatCmd(),
			cmd.ShareCmd(),
			cmd.ConfigCmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuildInfo := debug.ReadBuildInfo()
	if !hasBuildInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
