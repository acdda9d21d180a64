// Package server exposes the relay over HTTP: the platform webhook, the
// order event intake, health probes and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"zalonotify/pkg/config"
	"zalonotify/pkg/dispatch"
	"zalonotify/pkg/metrics"
	"zalonotify/pkg/order"
)

const (
	readinessTTL    = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	maxEventBytes   = 1 << 20
)

// BotChecker verifies the bot token. *zalo.Client implements it.
type BotChecker interface {
	GetMe(ctx context.Context, token string) (json.RawMessage, error)
}

// OrderNotifier handles one order status transition. *notify.Notifier implements it.
type OrderNotifier interface {
	HandleStatusChange(ctx context.Context, settings config.Settings, snap order.Snapshot, from, to string) (dispatch.Result, error)
}

// Deps are the collaborators a Service routes requests to.
type Deps struct {
	Bot      BotChecker
	Notifier OrderNotifier
	Webhook  http.Handler
	Metrics  *metrics.Metrics
}

type Service struct {
	store    *config.Store
	log      *slog.Logger
	bot      BotChecker
	notifier OrderNotifier
	webhook  http.Handler
	metrics  *metrics.Metrics

	mu          sync.RWMutex
	startedAt   time.Time
	botCheckAt  time.Time
	botLastOKAt time.Time
	botLastErr  string
	botName     string
}

type statusResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Bot           string `json:"bot,omitempty"`
	BotLastOKAt   string `json:"bot_last_ok_at,omitempty"`
	BotLastErr    string `json:"bot_last_error,omitempty"`
}

func NewService(store *config.Store, deps Deps, log *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("settings store is required")
	}
	if deps.Bot == nil || deps.Notifier == nil || deps.Webhook == nil {
		return nil, errors.New("bot client, notifier and webhook handler are required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		store:    store,
		log:      log.With("component", "server.service"),
		bot:      deps.Bot,
		notifier: deps.Notifier,
		webhook:  deps.Webhook,
		metrics:  deps.Metrics,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	if err := s.checkBotHealth(ctx); err != nil {
		s.log.Warn("Bot health check failed, webhook intake stays up", "error", err)
	}

	cfg := s.store.Config().Server
	addr := cfg.Host + ":" + strconv.Itoa(cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "address", addr, "webhook_path", cfg.WebhookPath, "order_events_path", cfg.OrderEventsPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("start http server: %w", err)
		}
		close(serverErrors)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.log.Info("HTTP server stopped")
		return nil
	case err := <-serverErrors:
		return err
	}
}

// Handler returns the route table.
func (s *Service) Handler() http.Handler {
	cfg := s.store.Config().Server

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.Handle(cfg.WebhookPath, s.webhook)
	mux.HandleFunc(cfg.OrderEventsPath, s.handleOrderEvent)
	return mux
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.checkStale() {
		_ = s.checkBotHealth(r.Context())
	}

	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	lastOK := ""
	if !s.botLastOKAt.IsZero() {
		lastOK = s.botLastOKAt.Format(time.RFC3339)
	}

	return statusResponse{
		Status:        status,
		UptimeSeconds: uptime,
		Bot:           s.botName,
		BotLastOKAt:   lastOK,
		BotLastErr:    s.botLastErr,
	}
}

func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.startedAt.IsZero() || s.botLastOKAt.IsZero() {
		return false
	}
	return s.botLastErr == ""
}

func (s *Service) checkStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.botCheckAt) > readinessTTL
}

// checkBotHealth calls getMe with the current bot token.
func (s *Service) checkBotHealth(ctx context.Context) error {
	payload, err := s.bot.GetMe(ctx, s.store.Settings().BotToken)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.botCheckAt = time.Now().UTC()
	if err != nil {
		s.botLastErr = err.Error()
		return fmt.Errorf("bot health check failed: %w", err)
	}

	s.botLastErr = ""
	s.botLastOKAt = s.botCheckAt
	profile := gjson.ParseBytes(payload)
	s.botName = firstNonEmpty(profile.Get("display_name").String(), profile.Get("account_name").String())
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
