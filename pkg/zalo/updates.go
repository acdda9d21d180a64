package zalo

import (
	"context"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// ChatUpdate is the chat id discovered from the most recent update.
type ChatUpdate struct {
	ChatID string
	Update json.RawMessage
}

// updateBatch is the decoded getUpdates result. The API returns either a
// single update object or a list of updates depending on the server build.
type updateBatch interface {
	latest() gjson.Result
}

type singleUpdate struct {
	update gjson.Result
}

func (s singleUpdate) latest() gjson.Result { return s.update }

type updateList struct {
	updates []gjson.Result
}

// latest returns the last element, which carries the highest offset.
func (l updateList) latest() gjson.Result { return l.updates[len(l.updates)-1] }

// decodeUpdates maps a raw getUpdates payload onto its variant. Empty
// payloads report KindNoUpdates.
func decodeUpdates(raw json.RawMessage) (updateBatch, error) {
	if len(raw) == 0 {
		return nil, newError(KindNoUpdates, noUpdatesMessage)
	}

	parsed := gjson.ParseBytes(raw)
	switch {
	case parsed.IsArray():
		updates := parsed.Array()
		if len(updates) == 0 {
			return nil, newError(KindNoUpdates, noUpdatesMessage)
		}
		return updateList{updates: updates}, nil
	case parsed.IsObject():
		if len(parsed.Map()) == 0 {
			return nil, newError(KindNoUpdates, noUpdatesMessage)
		}
		return singleUpdate{update: parsed}, nil
	case parsed.Type == gjson.Null:
		return nil, newError(KindNoUpdates, noUpdatesMessage)
	default:
		return nil, newError(KindChatIDNotFound, "unrecognized updates payload")
	}
}

const (
	noUpdatesMessage      = "no updates found; send the bot a message (for example \"Hello\") and try again"
	chatIDNotFoundMessage = "no chat id found in the latest update"
)

var chatIDPaths = []string{"message.chat.id", "my_chat_member.chat.id"}

// LatestChatID fetches pending updates and returns the chat id of the most
// recent one. getUpdates is rejected by the API while a webhook is set, so
// callers usually delete the webhook first.
func (c *Client) LatestChatID(ctx context.Context, token string) (ChatUpdate, error) {
	raw, err := c.GetUpdates(ctx, token, 0, defaultUpdatesLimit)
	if err != nil {
		return ChatUpdate{}, err
	}

	return chatIDFromUpdates(raw)
}

func chatIDFromUpdates(raw json.RawMessage) (ChatUpdate, error) {
	batch, err := decodeUpdates(raw)
	if err != nil {
		return ChatUpdate{}, err
	}

	update := batch.latest()
	for _, path := range chatIDPaths {
		value := update.Get(path)
		if !value.Exists() || value.Type == gjson.Null {
			continue
		}
		if chatID := value.String(); chatID != "" {
			return ChatUpdate{ChatID: chatID, Update: json.RawMessage(update.Raw)}, nil
		}
	}

	return ChatUpdate{}, newError(KindChatIDNotFound, chatIDNotFoundMessage)
}
