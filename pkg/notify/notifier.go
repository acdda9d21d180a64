// Package notify turns order events into chat notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"zalonotify/pkg/config"
	"zalonotify/pkg/dispatch"
	"zalonotify/pkg/order"
	"zalonotify/pkg/template"
)

const (
	// DefaultTemplate is used when the operator left the template blank.
	DefaultTemplate = "🔔 ĐƠN HÀNG MỚI #{order_number}\n💰 Tổng: {order_total} {currency}\n👤 Khách: {customer_name}"
	// FallbackMessage replaces a template that rendered to nothing.
	FallbackMessage = "✅ KẾT NỐI THÀNH CÔNG!\nPlugin WooCommerce Zalo Bot đã sẵn sàng."

	testModePrefix = "🧪 [TEST MODE] Đây là dữ liệu đơn hàng mới nhất:\n\n"
	noOrderNotice  = "⚠️ Website chưa có đơn hàng nào, gửi tin test mặc định...\n\n" + FallbackMessage
)

var (
	// ErrNotConfigured means the bot token or the recipient list is empty.
	ErrNotConfigured = errors.New("bot token and chat id are required")
	// ErrStatusDisabled means the target status is not selected for notifications.
	ErrStatusDisabled = errors.New("order status is not enabled for notifications")
)

// Dispatcher is the delivery half of the flow. *dispatch.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, token, message string, recipients []string) (dispatch.Result, error)
}

// Notifier renders and delivers order notifications.
type Notifier struct {
	dispatcher Dispatcher
	resolver   *template.Resolver
	log        *slog.Logger
}

func New(dispatcher Dispatcher, resolver *template.Resolver, log *slog.Logger) *Notifier {
	if resolver == nil {
		resolver = template.NewResolver()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Notifier{
		dispatcher: dispatcher,
		resolver:   resolver,
		log:        log.With("component", "notify.notifier"),
	}
}

// HandleStatusChange notifies when to is one of the enabled statuses.
// It returns ErrStatusDisabled otherwise.
func (n *Notifier) HandleStatusChange(ctx context.Context, settings config.Settings, snap order.Snapshot, from, to string) (dispatch.Result, error) {
	if !settings.StatusEnabled(to) {
		n.log.Debug("Status not enabled, skipping", "order", snap.Number(), "from", from, "to", to)
		return dispatch.Result{}, ErrStatusDisabled
	}
	return n.Notify(ctx, settings, snap)
}

// Notify renders the configured template for snap, sends it to every
// recipient and records the outcome as an order note.
func (n *Notifier) Notify(ctx context.Context, settings config.Settings, snap order.Snapshot) (dispatch.Result, error) {
	recipients := settings.Recipients()
	if strings.TrimSpace(settings.BotToken) == "" || len(recipients) == 0 {
		n.log.Warn("Bot token or chat id missing, skipping notification", "order", snap.Number())
		return dispatch.Result{}, ErrNotConfigured
	}

	message := n.Render(settings, snap)
	result, err := n.dispatcher.Dispatch(ctx, settings.BotToken, message, recipients)
	if err != nil {
		return result, fmt.Errorf("dispatch order %s: %w", snap.Number(), err)
	}

	snap.AddNote(result.AuditNote())
	if !result.OK() {
		n.log.Error("Order notification failed for every recipient", "order", snap.Number(), "errors", result.ErrorAnnex())
	} else if len(result.Failures) > 0 {
		n.log.Warn("Order notification partially delivered", "order", snap.Number(), "sent", result.SuccessCount, "errors", result.ErrorAnnex())
	}

	return result, nil
}

// Render produces the final message text for snap. It is never empty.
func (n *Notifier) Render(settings config.Settings, snap order.Snapshot) string {
	tmpl := settings.MessageTemplate
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultTemplate
	}

	message := template.Render(tmpl, n.resolver.Resolve(snap, settings.CustomFields))
	if message == "" {
		return FallbackMessage
	}
	return message
}

// TestReport is the operator-facing outcome of a test send.
type TestReport struct {
	Message string
	Result  dispatch.Result
	Summary string
}

// SendTest sends the latest order (or a connectivity notice when latest is
// nil) to every recipient, prefixed with a test-mode banner. It does not
// add order notes.
func (n *Notifier) SendTest(ctx context.Context, settings config.Settings, latest order.Snapshot) (TestReport, error) {
	recipients := settings.Recipients()
	if strings.TrimSpace(settings.BotToken) == "" || len(recipients) == 0 {
		return TestReport{}, ErrNotConfigured
	}

	message := noOrderNotice
	if latest != nil {
		message = testModePrefix + n.Render(settings, latest)
	}

	result, err := n.dispatcher.Dispatch(ctx, settings.BotToken, message, recipients)
	if err != nil {
		return TestReport{Message: message}, fmt.Errorf("dispatch test message: %w", err)
	}

	report := TestReport{Message: message, Result: result, Summary: testSummary(result)}
	n.log.Info("Test message sent", "sent", result.SuccessCount, "failed", len(result.Failures))
	return report, nil
}

func testSummary(result dispatch.Result) string {
	if !result.OK() {
		return "Gửi thất bại. Lỗi: " + result.ErrorAnnex()
	}

	summary := fmt.Sprintf("Đã gửi test thành công tới %d người (Dữ liệu đơn hàng mới nhất).", result.SuccessCount)
	if len(result.Failures) > 0 {
		summary += " (Lỗi: " + result.ErrorAnnex() + ")"
	}
	return summary
}
