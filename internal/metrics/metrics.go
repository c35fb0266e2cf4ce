package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/notifyhub/notify-dispatch/internal/dispatch"
	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/worker"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	NotificationsQueued        *prometheus.CounterVec
	NotificationsDelivered     *prometheus.CounterVec
	ProviderFailures           *prometheus.CounterVec
	NotificationsRateLimited   *prometheus.CounterVec
	NotificationsRedelivered   *prometheus.CounterVec
	NotificationsUndeliverable *prometheus.CounterVec
	DispatchLatency            *prometheus.HistogramVec
	QueueDepth                 *prometheus.GaugeVec
	RateLimiterKeys            prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NotificationsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_queued_total",
			Help: "Notifications accepted by the API and placed on the queue.",
		}, []string{"channel"}),

		NotificationsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Notifications accepted by a provider.",
		}, []string{"channel", "provider"}),

		ProviderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_failures_total",
			Help: "Individual provider send attempts that failed and triggered failover.",
		}, []string{"channel", "provider"}),

		NotificationsRateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_rate_limited_total",
			Help: "Dispatches rejected by the per-recipient rate limiter.",
		}, []string{"channel"}),

		NotificationsRedelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_redelivered_total",
			Help: "Notifications scheduled for deferred redelivery.",
		}, []string{"channel", "reason"}),

		NotificationsUndeliverable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_undeliverable_total",
			Help: "Notifications dropped after exhausting their retry budget.",
		}, []string{"channel"}),

		DispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notification_dispatch_seconds",
			Help:    "Time from the start of a dispatch to provider acceptance, failover included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"channel"}),

		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Items waiting in the dispatch queue by state (ready, deferred).",
		}, []string{"state"}),

		RateLimiterKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rate_limiter_tracked_recipients",
			Help: "Recipients currently tracked by the rate limiter.",
		}),
	}

	reg.MustRegister(
		m.NotificationsQueued,
		m.NotificationsDelivered,
		m.ProviderFailures,
		m.NotificationsRateLimited,
		m.NotificationsRedelivered,
		m.NotificationsUndeliverable,
		m.DispatchLatency,
		m.QueueDepth,
		m.RateLimiterKeys,
	)

	return m
}

// DispatchHooks returns the callbacks expected by dispatch.Hooks.
// Centralises the prometheus observation calls so the dispatch core stays import-free.
func (m *Metrics) DispatchHooks() dispatch.Hooks {
	return dispatch.Hooks{
		OnDelivered: func(ch domain.Channel, provider string, latency time.Duration) {
			m.NotificationsDelivered.WithLabelValues(string(ch), provider).Inc()
			m.DispatchLatency.WithLabelValues(string(ch)).Observe(latency.Seconds())
		},
		OnProviderFailure: func(ch domain.Channel, provider string) {
			m.ProviderFailures.WithLabelValues(string(ch), provider).Inc()
		},
		OnRateLimited: func(ch domain.Channel) {
			m.NotificationsRateLimited.WithLabelValues(string(ch)).Inc()
		},
	}
}

// WorkerHooks returns the metric callback functions expected by worker.MetricHooks.
func (m *Metrics) WorkerHooks() worker.MetricHooks {
	return worker.MetricHooks{
		OnRedelivered: func(ch domain.Channel, reason string) {
			m.NotificationsRedelivered.WithLabelValues(string(ch), reason).Inc()
		},
		OnUndeliverable: func(ch domain.Channel) {
			m.NotificationsUndeliverable.WithLabelValues(string(ch)).Inc()
		},
	}
}

// OnQueued is handed to the service so accepted notifications are counted.
func (m *Metrics) OnQueued(ch domain.Channel) {
	m.NotificationsQueued.WithLabelValues(string(ch)).Inc()
}

// SetQueueDepth records a snapshot of the queue.
func (m *Metrics) SetQueueDepth(ready, deferred int) {
	m.QueueDepth.WithLabelValues("ready").Set(float64(ready))
	m.QueueDepth.WithLabelValues("deferred").Set(float64(deferred))
}
