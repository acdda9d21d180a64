// Package webhook authenticates and ingests inbound bot platform events.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"zalonotify/pkg/cache"
)

const (
	// LatestChatIDKey is the cache key holding the last sender id seen.
	LatestChatIDKey = "latest_chat_id"
	// LatestChatIDTTL is how long a cached sender id stays valid.
	LatestChatIDTTL = time.Hour

	// DefaultPath is the route the webhook is served on.
	DefaultPath = "/zalo/webhook"
	// TokenParam is the query parameter carrying the shared secret.
	TokenParam = "token"

	maxBodyBytes     = 1 << 20
	debugStampLayout = "2006-01-02 15:04:05"
)

var (
	ErrInvalidToken = errors.New("invalid webhook token")
	ErrEmptyPayload = errors.New("empty webhook payload")
)

const (
	messageInvalidToken = "Invalid Token"
	messageEmptyPayload = "Empty Payload"
	messageReceived     = "Received"
)

// State is a step of one webhook request.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
	StateAccepted        State = "accepted"
	StateRejected        State = "rejected"
)

// Settings is the per-request view of the operator settings the ingestor needs.
type Settings struct {
	SecretToken string
	EnableDebug bool
}

// Observer receives one sample per finished request.
type Observer interface {
	ObserveWebhook(outcome Outcome)
}

// Outcome describes how a request ended.
type Outcome struct {
	State   State
	Status  int
	Message string
	Event   Event
	// Cached reports that the sender id was written to the cache.
	Cached bool
}

// Ingestor verifies the shared secret, decodes the payload and remembers the
// latest sender id.
type Ingestor struct {
	settings func() Settings
	cache    cache.Store
	sink     Sink
	log      *slog.Logger
	observer Observer
	now      func() time.Time
}

// Option customizes an Ingestor.
type Option func(*Ingestor)

// WithDebugSink sets where payloads are recorded when debug is enabled.
func WithDebugSink(sink Sink) Option {
	return func(i *Ingestor) {
		i.sink = sink
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(i *Ingestor) {
		if log != nil {
			i.log = log.With("component", "webhook.ingestor")
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(i *Ingestor) {
		i.observer = observer
	}
}

// WithClock overrides the time source used for debug stamps.
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIngestor reads settings on every request so secret rotation applies
// without a restart.
func NewIngestor(settings func() Settings, store cache.Store, opts ...Option) *Ingestor {
	i := &Ingestor{
		settings: settings,
		cache:    store,
		log:      slog.Default().With("component", "webhook.ingestor"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest runs one request through authentication and ingestion. The body is
// not read when authentication fails.
func (i *Ingestor) Ingest(ctx context.Context, token string, body io.Reader) Outcome {
	settings := i.settings()
	outcome := Outcome{State: StateUnauthenticated}

	if err := authenticate(token, settings.SecretToken); err != nil {
		return reject(http.StatusForbidden, messageInvalidToken)
	}
	outcome.State = StateAuthenticated

	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		i.log.Warn("Failed to read webhook body", "error", err)
		return reject(http.StatusBadRequest, messageEmptyPayload)
	}

	event, err := ParseEvent(raw)
	if err != nil {
		return reject(http.StatusBadRequest, messageEmptyPayload)
	}

	if settings.EnableDebug && i.sink != nil {
		line := fmt.Sprintf("%s Payload: %s\n", i.now().Format(debugStampLayout), compactPayload(raw))
		if err := i.sink.Append(line); err != nil {
			i.log.Warn("Failed to append webhook debug record", "error", err)
		}
	}

	if event.IdentifiesSender() {
		if err := i.cache.Set(ctx, LatestChatIDKey, event.SenderID, LatestChatIDTTL); err != nil {
			i.log.Error("Failed to cache latest chat id", "error", err)
		} else {
			outcome.Cached = true
			i.log.Info("Cached latest chat id", "chat_id", event.SenderID, "event", event.Name)
		}
	}

	outcome.State = StateAccepted
	outcome.Status = http.StatusOK
	outcome.Message = messageReceived
	outcome.Event = event
	return outcome
}

// LatestChatID returns the sender id cached by an earlier webhook call.
func (i *Ingestor) LatestChatID(ctx context.Context) (string, bool, error) {
	return i.cache.Get(ctx, LatestChatIDKey)
}

// ServeHTTP accepts GET and POST; the secret travels in the token query
// parameter.
func (i *Ingestor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeResponse(w, http.StatusMethodNotAllowed, false, http.StatusText(http.StatusMethodNotAllowed))
		return
	}

	requestID := uuid.NewString()
	outcome := i.Ingest(r.Context(), r.URL.Query().Get(TokenParam), r.Body)
	i.log.Debug("Webhook handled", "request_id", requestID, "state", outcome.State, "status", outcome.Status, "event", outcome.Event.Name)
	if i.observer != nil {
		i.observer.ObserveWebhook(outcome)
	}

	writeResponse(w, outcome.Status, outcome.State == StateAccepted, outcome.Message)
}

// Err maps a rejected outcome to ErrInvalidToken or ErrEmptyPayload.
func (o Outcome) Err() error {
	if o.State != StateRejected {
		return nil
	}
	if o.Status == http.StatusForbidden {
		return ErrInvalidToken
	}
	return ErrEmptyPayload
}

func authenticate(provided, stored string) error {
	if stored == "" {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(stored)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

func reject(status int, message string) Outcome {
	return Outcome{State: StateRejected, Status: status, Message: message}
}

type responseData struct {
	Message string `json:"message"`
}

type response struct {
	Success bool         `json:"success"`
	Data    responseData `json:"data"`
}

func writeResponse(w http.ResponseWriter, status int, success bool, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Success: success, Data: responseData{Message: message}})
}

// WebhookURL builds the address registered with setWebhook:
// <publicURL><path>?token=<secret>.
func WebhookURL(publicURL, path, secret string) (string, error) {
	base, err := url.Parse(strings.TrimSpace(publicURL))
	if err != nil {
		return "", fmt.Errorf("parse public url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("public url %q must include scheme and host", publicURL)
	}
	if path == "" {
		path = DefaultPath
	}

	base.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	query := base.Query()
	query.Set(TokenParam, secret)
	base.RawQuery = query.Encode()
	return base.String(), nil
}
