package webhook

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

const eventUserSendText = "user_send_text"

// Event is the part of an inbound platform payload the relay acts on.
type Event struct {
	Name        string `json:"event_name"`
	SenderID    string `json:"sender_id,omitempty"`
	MessageText string `json:"message_text,omitempty"`
	// HasMessage reports a non-null "message" member in the payload.
	HasMessage bool `json:"has_message"`
}

// IdentifiesSender reports whether the event carries a chat id worth caching:
// a sender id on a text event or on any payload with a message.
func (e Event) IdentifiesSender() bool {
	return e.SenderID != "" && (e.Name == eventUserSendText || e.HasMessage)
}

// ParseEvent decodes one webhook body. Bodies that are empty, undecodable or
// decode to an empty value (null, false, 0, "", "0", {} or []) fail with
// ErrEmptyPayload.
func ParseEvent(body []byte) (Event, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !gjson.ValidBytes(trimmed) {
		return Event{}, ErrEmptyPayload
	}

	payload := gjson.ParseBytes(trimmed)
	if isEmptyValue(payload) {
		return Event{}, ErrEmptyPayload
	}

	message := payload.Get("message")
	return Event{
		Name:        payload.Get("event_name").String(),
		SenderID:    payload.Get("sender.id").String(),
		MessageText: message.Get("text").String(),
		HasMessage:  message.Exists() && message.Type != gjson.Null,
	}, nil
}

func isEmptyValue(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return value.Float() == 0
	case gjson.String:
		return value.Str == "" || value.Str == "0"
	case gjson.JSON:
		empty := true
		value.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	}
	return false
}

// compactPayload renders body on one line for the debug log.
func compactPayload(body []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, bytes.TrimSpace(body)); err != nil {
		return string(bytes.TrimSpace(body))
	}
	return buf.String()
}
