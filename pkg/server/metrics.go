package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the Prometheus metrics for a relay instance.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "termchat").
	Namespace string

	// Registry is the Prometheus registry to use. Each relay instance
	// gets its own registry by default so multiple instances (and tests)
	// never collide on registration.
	Registry *prometheus.Registry
}

// MetricsOption configures the relay metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the relay's Prometheus instruments.
type Metrics struct {
	registry *prometheus.Registry

	activeSessions  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	messagesRouted  *prometheus.CounterVec
	framesDropped   prometheus.Counter
	slowDisconnects prometheus.Counter
	decodeErrors    *prometheus.CounterVec
}

// NewMetrics creates the relay metrics set.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "termchat",
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		registry: config.Registry,

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "active_sessions",
			Help:      "Number of currently connected sessions",
		}),

		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "sessions_total",
			Help:      "Total number of sessions accepted since start",
		}),

		messagesRouted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "messages_routed_total",
			Help:      "Messages enqueued for delivery, by kind",
		}, []string{"kind"}),

		framesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "video_frames_dropped_total",
			Help:      "Video frames discarded by the latest-wins policy",
		}),

		slowDisconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "slow_disconnects_total",
			Help:      "Sessions disconnected for exceeding the reliable backlog high-water mark",
		}),

		decodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "decode_errors_total",
			Help:      "Inbound messages rejected by the codec, by error kind",
		}, []string{"kind"}),
	}
}

// Handler returns an HTTP handler serving this instance's metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
