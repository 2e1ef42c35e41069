package cmd

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:     "formflow",
	Short:   "Progressive form toolkit",
	Long:    `formflow lints, renders, fills, imports, and serves progressive form definitions.`,
	Version: version,

	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func Execute() error {
	return rootCmd.Execute()
}
