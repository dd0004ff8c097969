package hydrate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/lazyhydrate/pkg/strategy"
)

const (
	outcomeMounted   = "mounted"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
)

// MetricsConfig configures the dispatcher metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "lazyhydrate").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for wait and load durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the dispatcher metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the dispatcher metrics. A nil *Metrics records nothing.
type Metrics struct {
	hydrations   *prometheus.CounterVec
	triggerWait  *prometheus.HistogramVec
	loadDuration *prometheus.HistogramVec
	deferredNow  prometheus.Gauge
}

// NewMetrics registers the dispatcher metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "lazyhydrate",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		hydrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "hydrations_total",
			Help:        "Total number of lazy instances settled, by kind and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "outcome"}),

		triggerWait: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "trigger_wait_seconds",
			Help:        "Time from mount to trigger in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		loadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "load_duration_seconds",
			Help:        "Subtree load duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		deferredNow: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "deferred_instances",
			Help:        "Number of instances waiting for their trigger",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) outcome(kind strategy.Kind, outcome string) {
	if m == nil {
		return
	}
	m.hydrations.WithLabelValues(kind.String(), outcome).Inc()
}

func (m *Metrics) waited(kind strategy.Kind, d time.Duration) {
	if m == nil {
		return
	}
	m.triggerWait.WithLabelValues(kind.String()).Observe(d.Seconds())
}

func (m *Metrics) loaded(kind strategy.Kind, d time.Duration) {
	if m == nil {
		return
	}
	m.loadDuration.WithLabelValues(kind.String()).Observe(d.Seconds())
}

func (m *Metrics) deferred(delta float64) {
	if m == nil {
		return
	}
	m.deferredNow.Add(delta)
}
