package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/groove/cmd/common"
	"github.com/gigurra/groove/cmd/common/config"
	"github.com/spf13/cobra"
)

type ConfigInitParams struct {
	Force bool `short:"f" optional:"true" help:"Overwrite an existing config file."`
}

func ConfigCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "config",
		Short: "Manage the groove config file",
		SubCmds: []*cobra.Command{
			configInitCmd(),
			configShowCmd(),
			configPathCmd(),
		},
	}.ToCobra()
}

func configInitCmd() *cobra.Command {
	return boa.CmdT[ConfigInitParams]{
		Use:         "init",
		Short:       "Write a config file with default settings",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ConfigInitParams, cmd *cobra.Command, args []string) {
			if err := runConfigInit(params, config.Path(), os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "config init: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runConfigInit(params *ConfigInitParams, path string, stdout io.Writer) error {
	if _, err := os.Stat(path); err == nil && !params.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := config.SaveTo(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

func configShowCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "show",
		Short: "Print the effective config, defaults and overrides applied",
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			if err := runConfigShow(os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "config show: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runConfigShow(stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

func configPathCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "path",
		Short: "Print where groove reads its config and writes its log",
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			runConfigPath(os.Stdout)
		},
	}.ToCobra()
}

func runConfigPath(stdout io.Writer) {
	logPath := common.LogPath()
	if cfg, err := config.Load(); err == nil && cfg.Log.File != "" {
		logPath = cfg.Log.File
	}
	fmt.Fprintf(stdout, "config: %s\n", config.Path())
	fmt.Fprintf(stdout, "log:    %s\n", logPath)
}
