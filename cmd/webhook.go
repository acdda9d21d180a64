package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"zalonotify/pkg/config"
	"zalonotify/pkg/webhook"
	"zalonotify/pkg/zalo"
)

var (
	webhookSetURL   string
	webhookSetToken string
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the bot webhook registration",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Register the webhook URL with the bot API",
	Long: "Saves the bot token and webhook URL, then calls setWebhook with the stored secret token. " +
		"Without --url the saved webhook URL is used, or one built from server.public_url.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		a, err := newApp("cmd.webhook", false)
		if err != nil {
			return err
		}

		settings := a.store.Settings()
		token := firstNonBlank(webhookSetToken, settings.BotToken)
		url, err := resolveWebhookURL(webhookSetURL, settings, a.cfg.Server)
		if err != nil {
			return err
		}
		if token == "" || url == "" {
			return errors.New("Thiếu Token hoặc Webhook URL")
		}

		if strings.TrimSpace(webhookSetToken) != "" {
			if err := a.saveSecret(config.SecretBotToken, token, setBotToken); err != nil {
				return fmt.Errorf("save bot token: %w", err)
			}
		}
		if err := a.store.Update(func(s *config.Settings) { s.WebhookURL = url }); err != nil {
			return fmt.Errorf("save webhook url: %w", err)
		}

		if _, err := a.bot.SetWebhook(cmd.Context(), token, url, settings.SecretToken); err != nil {
			return errors.New("Lỗi Zalo API: " + zalo.MessageOf(err))
		}

		out := cmd.OutOrStdout()
		printField(out, "URL", url)
		printSuccess(out, "Đã thiết lập Webhook thành công!")
		return nil
	},
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the webhook so getUpdates can be used",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		a, err := newApp("cmd.webhook", false)
		if err != nil {
			return err
		}

		if _, err := a.bot.DeleteWebhook(cmd.Context(), a.store.Settings().BotToken); err != nil {
			return errors.New(zalo.MessageOf(err))
		}
		printSuccess(cmd.OutOrStdout(), "Đã xóa Webhook thành công! Bạn có thể dùng lệnh chat-id ngay bây giờ.")
		return nil
	},
}

var webhookInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the webhook registered with the bot API",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		a, err := newApp("cmd.webhook", false)
		if err != nil {
			return err
		}

		info, err := a.bot.GetWebhookInfo(cmd.Context(), a.store.Settings().BotToken)
		if err != nil {
			return errors.New(zalo.MessageOf(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), indentJSON(info))
		return nil
	},
}

var webhookURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the webhook URL to register, including the secret token",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		a, err := newApp("cmd.webhook", false)
		if err != nil {
			return err
		}

		server := a.cfg.Server
		url, err := webhook.WebhookURL(server.PublicURL, server.WebhookPath, a.store.Settings().SecretToken)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(webhookCmd)
	webhookCmd.AddCommand(webhookSetCmd, webhookDeleteCmd, webhookInfoCmd, webhookURLCmd)

	webhookSetCmd.Flags().StringVar(&webhookSetURL, "url", "", "public webhook URL (default: saved URL or one built from server.public_url)")
	webhookSetCmd.Flags().StringVar(&webhookSetToken, "token", "", "bot token to save and use")
}

// resolveWebhookURL picks the explicit URL, then the saved one, then builds
// one from the public server URL. An unconfigured public URL yields "".
func resolveWebhookURL(explicit string, settings config.Settings, server config.ServerConfig) (string, error) {
	if url := firstNonBlank(explicit, settings.WebhookURL); url != "" {
		return url, nil
	}
	if strings.TrimSpace(server.PublicURL) == "" {
		return "", nil
	}
	return webhook.WebhookURL(server.PublicURL, server.WebhookPath, settings.SecretToken)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
