package zalo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	// DefaultAPIRoot is the Zalo Bot API host; endpoints are <root>/bot<token>/<method>.
	DefaultAPIRoot = "https://bot-api.zaloplatforms.com"
	// DefaultTimeout bounds every bot API call.
	DefaultTimeout = 30 * time.Second

	defaultUpdatesLimit = 100
	redactedToken       = "<token>"
)

const (
	methodSendMessage    = "sendMessage"
	methodSendPhoto      = "sendPhoto"
	methodSetWebhook     = "setWebhook"
	methodDeleteWebhook  = "deleteWebhook"
	methodGetWebhookInfo = "getWebhookInfo"
	methodGetMe          = "getMe"
	methodGetUpdates     = "getUpdates"
)

// Observer receives one sample per completed bot API call.
type Observer interface {
	ObserveBotCall(method string, outcome string, duration time.Duration)
}

// Client issues Zalo Bot API calls. It holds no per-bot state: every call
// takes the bot token explicitly.
type Client struct {
	rest     *resty.Client
	apiRoot  string
	log      *slog.Logger
	observer Observer
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIRoot overrides the API host (used by tests and self-hosted gateways).
func WithAPIRoot(root string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(root), "/"); trimmed != "" {
			c.apiRoot = trimmed
		}
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.rest.SetTimeout(timeout)
		}
	}
}

// WithLogger sets the component logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log.With("component", "zalo.client")
		}
	}
}

// WithObserver attaches a call observer, typically the metrics registry.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient builds a bot API client with the default root and timeout.
func NewClient(opts ...Option) *Client {
	log := slog.Default().With("component", "zalo.client")
	c := &Client{
		rest:    resty.New().SetTimeout(DefaultTimeout),
		apiRoot: DefaultAPIRoot,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rest.SetLogger(restyLogger{log: c.log})

	return c
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendPhotoRequest struct {
	ChatID  string `json:"chat_id"`
	Photo   string `json:"photo"`
	Caption string `json:"caption,omitempty"`
}

type setWebhookRequest struct {
	URL         string `json:"url"`
	SecretToken string `json:"secret_token,omitempty"`
}

// SendMessage sends a text message to one chat.
func (c *Client) SendMessage(ctx context.Context, token, chatID, text string) (json.RawMessage, error) {
	return c.call(ctx, token, methodSendMessage, http.MethodPost, sendMessageRequest{ChatID: chatID, Text: text}, nil)
}

// SendPhoto sends a photo by URL with an optional caption.
func (c *Client) SendPhoto(ctx context.Context, token, chatID, photoURL, caption string) (json.RawMessage, error) {
	return c.call(ctx, token, methodSendPhoto, http.MethodPost, sendPhotoRequest{ChatID: chatID, Photo: photoURL, Caption: caption}, nil)
}

// SetWebhook registers url as the bot webhook; secretToken is omitted when empty.
func (c *Client) SetWebhook(ctx context.Context, token, url, secretToken string) (json.RawMessage, error) {
	return c.call(ctx, token, methodSetWebhook, http.MethodPost, setWebhookRequest{URL: url, SecretToken: secretToken}, nil)
}

// DeleteWebhook removes the bot webhook so getUpdates can be used.
func (c *Client) DeleteWebhook(ctx context.Context, token string) (json.RawMessage, error) {
	return c.call(ctx, token, methodDeleteWebhook, http.MethodPost, nil, nil)
}

// GetWebhookInfo returns the current webhook registration.
func (c *Client) GetWebhookInfo(ctx context.Context, token string) (json.RawMessage, error) {
	return c.call(ctx, token, methodGetWebhookInfo, http.MethodGet, nil, nil)
}

// GetMe returns the bot profile.
func (c *Client) GetMe(ctx context.Context, token string) (json.RawMessage, error) {
	return c.call(ctx, token, methodGetMe, http.MethodGet, nil, nil)
}

// GetUpdates fetches pending updates. A non-positive limit means 100.
func (c *Client) GetUpdates(ctx context.Context, token string, offset, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = defaultUpdatesLimit
	}

	query := map[string]string{
		"offset": strconv.Itoa(offset),
		"limit":  strconv.Itoa(limit),
	}
	return c.call(ctx, token, methodGetUpdates, http.MethodGet, nil, query)
}

func (c *Client) call(ctx context.Context, token, method, httpMethod string, body any, query map[string]string) (json.RawMessage, error) {
	if strings.TrimSpace(token) == "" {
		return nil, newError(KindMissingToken, "bot token is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log := c.log.With("method", method)
	startedAt := time.Now()
	log.Debug("bot api request started")

	req := c.rest.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(httpMethod, c.endpoint(token, method))
	if err != nil {
		message := strings.ReplaceAll(err.Error(), token, redactedToken)
		c.finish(log, method, startedAt, KindTransport)
		return nil, newError(KindTransport, message)
	}

	payload, err := decodeResponse(resp.Body())
	if err != nil {
		c.finish(log, method, startedAt, KindOf(err), "status", resp.StatusCode(), "error", err)
		return nil, err
	}

	c.finish(log, method, startedAt, "")
	return payload, nil
}

func (c *Client) finish(log *slog.Logger, method string, startedAt time.Time, kind Kind, attrs ...any) {
	duration := time.Since(startedAt)
	outcome := "ok"
	if kind != "" {
		outcome = string(kind)
	}
	if c.observer != nil {
		c.observer.ObserveBotCall(method, outcome, duration)
	}

	attrs = append([]any{"duration_ms", duration.Milliseconds(), "outcome", outcome}, attrs...)
	if kind != "" {
		log.Debug("bot api request failed", attrs...)
		return
	}
	log.Debug("bot api request completed", attrs...)
}

func (c *Client) endpoint(token, method string) string {
	return c.apiRoot + "/bot" + token + "/" + method
}

// decodeResponse applies the bot API envelope contract: success is decided
// solely by "ok" being true.
func decodeResponse(body []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, &Error{Kind: KindAPI, Description: malformedBodyMessage}
	}

	envelope := gjson.ParseBytes(body)
	if envelope.Get("ok").Type == gjson.True {
		result := envelope.Get("result")
		if !result.Exists() || result.Type == gjson.Null {
			return nil, nil
		}
		return json.RawMessage(result.Raw), nil
	}

	description := unknownErrorDescription
	if value := envelope.Get("description"); value.Exists() && value.Type != gjson.Null {
		description = value.String()
	}

	code := 0
	if value := envelope.Get("error_code"); value.Exists() {
		code = int(value.Int())
	}

	return nil, &Error{Kind: KindAPI, Code: code, Description: description}
}

type restyLogger struct {
	log *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
