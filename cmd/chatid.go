package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"zalonotify/pkg/cache"
	"zalonotify/pkg/config"
	"zalonotify/pkg/dispatch"
	"zalonotify/pkg/webhook"
	"zalonotify/pkg/zalo"
)

const (
	chatIDFoundNote      = "Đã tìm thấy Chat ID! Lưu ý: Webhook đã được tạm tắt để lấy ID, vui lòng chạy \"zalonotify webhook set\" lại sau khi lưu."
	chatIDWebhookHint    = "Vẫn dính lỗi Webhook. Hãy thử vào App quản lý Bot xóa Webhook thủ công hoặc đợi 1 lát."
	chatIDMissingToken   = "Vui lòng nhập Bot Token trước"
	chatIDSourceCache    = "webhook cache"
	chatIDSourceUpdates  = "getUpdates"
	chatIDErrorMsgPrefix = "Lỗi: "
)

// updatesClient is the part of the bot client chat id discovery needs.
type updatesClient interface {
	DeleteWebhook(ctx context.Context, token string) (json.RawMessage, error)
	LatestChatID(ctx context.Context, token string) (zalo.ChatUpdate, error)
}

type chatIDOptions struct {
	save      bool
	skipCache bool
}

var chatIDOpts chatIDOptions

var chatIDCmd = &cobra.Command{
	Use:   "chat-id",
	Short: "Find the chat id of the latest user who messaged the bot",
	Long: "Reads the chat id cached by the webhook when available. Otherwise deletes the webhook " +
		"(getUpdates is refused while one is set) and reads the latest update.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		a, err := newApp("cmd.chat_id", false)
		if err != nil {
			return err
		}

		var store cache.Store
		if !chatIDOpts.skipCache {
			store, err = openCache(a.cfg)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()
		}

		chatID, source, err := findChatID(cmd.Context(), store, a.bot, a.store.Settings().BotToken)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printField(out, "Chat ID", chatID)
		printField(out, "Source", source)
		if source == chatIDSourceUpdates {
			printHint(out, chatIDFoundNote)
		}

		if chatIDOpts.save {
			if err := a.store.Update(func(settings *config.Settings) {
				settings.ChatID = appendRecipient(settings.ChatID, chatID)
			}); err != nil {
				return fmt.Errorf("save chat id: %w", err)
			}
			printSuccess(out, "Đã lưu Chat ID.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatIDCmd)
	chatIDCmd.Flags().BoolVar(&chatIDOpts.save, "save", false, "append the chat id to the saved recipients")
	chatIDCmd.Flags().BoolVar(&chatIDOpts.skipCache, "no-cache", false, "ignore the webhook cache and always call getUpdates")
}

// findChatID prefers the sender cached by the webhook; store may be nil.
func findChatID(ctx context.Context, store cache.Store, bot updatesClient, token string) (string, string, error) {
	if store != nil {
		chatID, ok, err := store.Get(ctx, webhook.LatestChatIDKey)
		if err == nil && ok && chatID != "" {
			return chatID, chatIDSourceCache, nil
		}
	}

	if strings.TrimSpace(token) == "" {
		return "", "", errors.New(chatIDMissingToken)
	}

	// getUpdates is rejected while a webhook is registered.
	_, _ = bot.DeleteWebhook(ctx, token)

	update, err := bot.LatestChatID(ctx, token)
	if err != nil {
		return "", "", errors.New(chatIDErrorMsgPrefix + friendlyChatIDError(err))
	}
	return update.ChatID, chatIDSourceUpdates, nil
}

func friendlyChatIDError(err error) string {
	message := zalo.MessageOf(err)
	if strings.Contains(message, "webhook") {
		return chatIDWebhookHint
	}
	return message
}

// appendRecipient adds chatID to a comma-separated recipient field unless it
// is already present.
func appendRecipient(field, chatID string) string {
	recipients := dispatch.ParseRecipients(field)
	if slices.Contains(recipients, chatID) {
		return strings.Join(recipients, ",")
	}
	return strings.Join(append(recipients, chatID), ",")
}
