package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"zalonotify/pkg/webhook"
)

var debugLogCmd = &cobra.Command{
	Use:   "debug-log",
	Short: "Manage the webhook payload debug log",
}

var debugLogClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the webhook payload debug log",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		sink := webhook.NewFileSink(cfg.Debug.LogPath)
		if err := sink.Clear(); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "Cleared "+sink.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugLogCmd)
	debugLogCmd.AddCommand(debugLogClearCmd)
}
