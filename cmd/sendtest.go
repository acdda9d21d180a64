package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"zalonotify/pkg/config"
	"zalonotify/pkg/notify"
	"zalonotify/pkg/order"
)

type sendTestOptions struct {
	orderPath string
	botToken  string
	chatIDs   string
	save      bool
}

var sendTestOpts sendTestOptions

var sendTestCmd = &cobra.Command{
	Use:   "send-test",
	Short: "Send a test notification to every configured chat",
	Long: "Renders the given order (or a connectivity notice when no order is given) with the configured " +
		"template and sends it to every chat id, prefixed with a test mode banner.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		a, err := newApp("cmd.send_test", false)
		if err != nil {
			return err
		}

		if sendTestOpts.save {
			if err := a.saveTestTarget(sendTestOpts); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
		}
		settings := applyTestOverrides(a.store.Settings(), sendTestOpts)

		latest, err := loadOrder(sendTestOpts.orderPath)
		if err != nil {
			return err
		}

		notifier, err := a.newNotifier()
		if err != nil {
			return err
		}

		report, err := notifier.SendTest(cmd.Context(), settings, latest)
		if errors.Is(err, notify.ErrNotConfigured) {
			return errors.New("Vui lòng nhập Bot Token và Chat ID")
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printMessage(out, report.Message)
		if !report.Result.OK() {
			return errors.New(report.Summary)
		}
		printSuccess(out, report.Summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendTestCmd)
	sendTestCmd.Flags().StringVarP(&sendTestOpts.orderPath, "order", "o", "", "order document (.json, .yaml) to render as the latest order")
	sendTestCmd.Flags().StringVar(&sendTestOpts.botToken, "token", "", "bot token to use instead of the saved one")
	sendTestCmd.Flags().StringVar(&sendTestOpts.chatIDs, "chat-id", "", "comma-separated chat ids to use instead of the saved ones")
	sendTestCmd.Flags().BoolVar(&sendTestOpts.save, "save", false, "save --token and --chat-id before sending")
}

// loadOrder returns nil when path is empty so the caller falls back to the
// no-order notice.
func loadOrder(path string) (order.Snapshot, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	doc, err := order.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// applyTestOverrides replaces saved credentials with the non-blank flag values.
func applyTestOverrides(settings config.Settings, opts sendTestOptions) config.Settings {
	if token := strings.TrimSpace(opts.botToken); token != "" {
		settings.BotToken = token
	}
	if chatIDs := strings.TrimSpace(opts.chatIDs); chatIDs != "" {
		settings.ChatID = chatIDs
	}
	return settings
}

func (a *app) saveTestTarget(opts sendTestOptions) error {
	if token := strings.TrimSpace(opts.botToken); token != "" {
		if err := a.saveSecret(config.SecretBotToken, token, setBotToken); err != nil {
			return err
		}
	}
	if chatIDs := strings.TrimSpace(opts.chatIDs); chatIDs != "" {
		return a.store.Update(func(settings *config.Settings) {
			settings.ChatID = chatIDs
		})
	}
	return nil
}

func setBotToken(settings *config.Settings, value string) {
	settings.BotToken = value
}

func setSecretToken(settings *config.Settings, value string) {
	settings.SecretToken = value
}
