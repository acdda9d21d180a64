// Package metrics defines the Prometheus metrics of the relay.
//
// Metric naming follows Prometheus conventions:
//   - zalonotify_ prefix for all metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
//
// All methods are safe on a nil *Metrics, so components can run without
// instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zalonotify/pkg/dispatch"
	"zalonotify/pkg/webhook"
)

// Order event outcomes.
const (
	OrderNotified = "notified"
	OrderSkipped  = "skipped"
	OrderRejected = "rejected"
	OrderFailed   = "failed"
)

// Metrics owns a private registry so tests and embedded uses don't collide
// with the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	botCalls           *prometheus.CounterVec
	botCallDuration    *prometheus.HistogramVec
	dispatchBatches    *prometheus.CounterVec
	dispatchRecipients *prometheus.CounterVec
	dispatchDuration   prometheus.Histogram
	webhookRequests    *prometheus.CounterVec
	chatIDCached       prometheus.Counter
	orderEvents        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		botCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zalonotify_bot_api_calls_total",
				Help: "Total bot API calls by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		botCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zalonotify_bot_api_call_duration_seconds",
				Help:    "Duration of bot API calls in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		dispatchBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zalonotify_dispatch_batches_total",
				Help: "Total dispatch batches by result (delivered, partial, failed, empty).",
			},
			[]string{"result"},
		),
		dispatchRecipients: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zalonotify_dispatch_recipients_total",
				Help: "Total recipient deliveries by outcome.",
			},
			[]string{"outcome"},
		),
		dispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zalonotify_dispatch_duration_seconds",
				Help:    "Duration of dispatch batches in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		webhookRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zalonotify_webhook_requests_total",
				Help: "Total webhook requests by final state and HTTP status.",
			},
			[]string{"state", "status"},
		),
		chatIDCached: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "zalonotify_webhook_chat_id_cached_total",
				Help: "Total webhook events that refreshed the cached chat id.",
			},
		),
		orderEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zalonotify_order_events_total",
				Help: "Total order events received by outcome.",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.botCalls,
		m.botCallDuration,
		m.dispatchBatches,
		m.dispatchRecipients,
		m.dispatchDuration,
		m.webhookRequests,
		m.chatIDCached,
		m.orderEvents,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveBotCall implements zalo.Observer.
func (m *Metrics) ObserveBotCall(method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.botCalls.WithLabelValues(method, outcome).Inc()
	m.botCallDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveDispatch implements dispatch.Observer.
func (m *Metrics) ObserveDispatch(result dispatch.Result, duration time.Duration) {
	if m == nil {
		return
	}
	m.dispatchBatches.WithLabelValues(batchLabel(result)).Inc()
	m.dispatchRecipients.WithLabelValues("sent").Add(float64(result.SuccessCount))
	m.dispatchRecipients.WithLabelValues("failed").Add(float64(len(result.Failures)))
	m.dispatchDuration.Observe(duration.Seconds())
}

// ObserveWebhook implements webhook.Observer.
func (m *Metrics) ObserveWebhook(outcome webhook.Outcome) {
	if m == nil {
		return
	}
	m.webhookRequests.WithLabelValues(string(outcome.State), strconv.Itoa(outcome.Status)).Inc()
	if outcome.Cached {
		m.chatIDCached.Inc()
	}
}

// ObserveOrderEvent counts one order event by outcome.
func (m *Metrics) ObserveOrderEvent(outcome string) {
	if m == nil {
		return
	}
	m.orderEvents.WithLabelValues(outcome).Inc()
}

func batchLabel(result dispatch.Result) string {
	switch {
	case result.Attempted() == 0:
		return "empty"
	case len(result.Failures) == 0:
		return "delivered"
	case result.OK():
		return "partial"
	default:
		return "failed"
	}
}
