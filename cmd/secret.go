package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"zalonotify/pkg/config"
	"zalonotify/pkg/secret"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the webhook secret token",
}

var secretRegenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Generate a new webhook secret token",
	Long: "Generates a new 32 character secret and stores it in the keychain or the config file. " +
		"The webhook must be registered again for the platform to use it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		a, err := newApp("cmd.secret", false)
		if err != nil {
			return err
		}

		value, err := secret.Generate(secret.DefaultLength)
		if err != nil {
			return err
		}
		if err := a.saveSecret(config.SecretSecretToken, value, setSecretToken); err != nil {
			return fmt.Errorf("save secret token: %w", err)
		}
		a.log.Info("Webhook secret regenerated", "keychain", a.keychain != nil)

		out := cmd.OutOrStdout()
		printField(out, "Secret token", value)
		printHint(out, "Run \"zalonotify webhook set\" to register the new secret.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(secretCmd)
	secretCmd.AddCommand(secretRegenerateCmd)
}
