// Package dispatch fans one message out to every recipient and accounts for
// each delivery.
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"zalonotify/pkg/zalo"
)

const previewRunes = 80

// Sender delivers one text message. *zalo.Client implements it.
type Sender interface {
	SendMessage(ctx context.Context, token, chatID, text string) (json.RawMessage, error)
}

// Observer receives the outcome of every finished batch.
type Observer interface {
	ObserveDispatch(result Result, duration time.Duration)
}

// Dispatcher sends a message to an ordered recipient list. It never retries
// and never stops early on a failed recipient.
type Dispatcher struct {
	sender      Sender
	parallelism int
	log         *slog.Logger
	observer    Observer
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithParallelism bounds concurrent sends. Values below 1 mean sequential.
func WithParallelism(n int) Option {
	return func(d *Dispatcher) {
		if n < 1 {
			n = 1
		}
		d.parallelism = n
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log.With("component", "dispatch.dispatcher")
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(d *Dispatcher) {
		d.observer = observer
	}
}

// New returns a sequential dispatcher unless WithParallelism says otherwise.
func New(sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:      sender,
		parallelism: 1,
		log:         slog.Default().With("component", "dispatch.dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends message to every non-blank recipient. Per-recipient failures
// are collected in the Result in input order; the returned error is non-nil
// only when the batch could not start (missing bot token).
func (d *Dispatcher) Dispatch(ctx context.Context, token, message string, recipients []string) (Result, error) {
	result := Result{BatchID: uuid.NewString()}
	if strings.TrimSpace(token) == "" {
		return result, &zalo.Error{Kind: zalo.KindMissingToken, Description: "bot token is not configured"}
	}

	targets := CleanRecipients(recipients)
	log := d.log.With("batch_id", result.BatchID, "recipients", len(targets))
	log.Debug("dispatch started", "preview", preview(message))

	started := time.Now()
	errs := make([]error, len(targets))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.parallelism)
	for i, recipient := range targets {
		group.Go(func() error {
			_, err := d.sender.SendMessage(groupCtx, token, recipient, message)
			errs[i] = err
			return nil
		})
	}
	_ = group.Wait()

	for i, recipient := range targets {
		if errs[i] == nil {
			result.SuccessCount++
			continue
		}
		result.Failures = append(result.Failures, Failure{Recipient: recipient, Message: zalo.MessageOf(errs[i])})
		log.Warn("recipient delivery failed", "chat_id", recipient, "error", errs[i])
	}

	duration := time.Since(started)
	log.Info("dispatch finished", "sent", result.SuccessCount, "failed", len(result.Failures), "duration", duration)
	if d.observer != nil {
		d.observer.ObserveDispatch(result, duration)
	}

	return result, nil
}

// CleanRecipients trims every entry and drops blanks, keeping order and
// duplicates.
func CleanRecipients(recipients []string) []string {
	out := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		if trimmed := strings.TrimSpace(recipient); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseRecipients splits a comma-separated chat id field.
func ParseRecipients(field string) []string {
	return CleanRecipients(strings.Split(field, ","))
}

func preview(message string) string {
	runes := []rune(message)
	if len(runes) <= previewRunes {
		return message
	}
	return string(runes[:previewRunes]) + "..."
}
