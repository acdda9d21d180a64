package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zalonotify",
	Short: "Relay order notifications to Zalo chats",
	Long: "zalonotify forwards order status changes to one or more Zalo chats through the Zalo Bot API " +
		"and receives the platform webhook used to discover chat ids.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $ZALONOTIFY_CONFIG, ./config.json or ./config/config.json)")
}
