package live

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the server's Prometheus instruments.
type metrics struct {
	activeSessions prometheus.Gauge
	eventsTotal    *prometheus.CounterVec
	eventsDropped  prometheus.Counter
	patchesSent    prometheus.Counter
	flushDuration  prometheus.Histogram
	wsErrors       *prometheus.CounterVec
}

// newMetrics registers the instruments with the configured registry.
func newMetrics(cfg Config) *metrics {
	factory := promauto.With(cfg.Registry)

	return &metrics{
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.MetricsNamespace,
			Name:      "active_sessions",
			Help:      "Number of active WebSocket sessions",
		}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.MetricsNamespace,
			Name:      "events_total",
			Help:      "Client events handled, by event type and status",
		}, []string{"type", "status"}),

		eventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.MetricsNamespace,
			Name:      "events_dropped_total",
			Help:      "Client events dropped because a session queue was full",
		}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.MetricsNamespace,
			Name:      "patches_sent_total",
			Help:      "Document patches streamed to clients",
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.MetricsNamespace,
			Name:      "flush_duration_seconds",
			Help:      "Scheduler flush duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.MetricsNamespace,
			Name:      "websocket_errors_total",
			Help:      "WebSocket errors by type",
		}, []string{"type"}),
	}
}
