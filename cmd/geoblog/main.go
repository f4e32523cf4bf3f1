package main

import (
	"fmt"
	"geoblog/internal/domain/config"
	"github.com/spf13/cobra"
	"os"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "geoblog",
		Short:        "Personal blog with per-article geo visibility",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: $CONFIG_PATH or ./site.yaml)")

	load := func() (config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		newServeCmd(load),
		newGeoCmd(load),
		newTokenCmd(load),
		newVersionCmd(),
		newEnvCmd(),
	)
	return root
}

type loadFunc func() (config.Config, error)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "geoblog %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables read by the config",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Usage())
		},
	}
}
