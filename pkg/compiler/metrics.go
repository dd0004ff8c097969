package compiler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures compile metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "lazyhydrate").
	Namespace string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures compile metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics counts compiles and the diagnostics they raise.
type Metrics struct {
	compiles    *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
}

// NewMetrics registers the compile metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "lazyhydrate",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		compiles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "compiles_total",
			Help:      "Total number of compiled files by status",
		}, []string{"status"}),

		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "diagnostics_total",
			Help:      "Total number of compile diagnostics by code",
		}, []string{"code"}),
	}
}

// observe records one compile. Safe on a nil receiver.
func (m *Metrics) observe(out *Output, parseErr error) {
	if m == nil {
		return
	}
	status := "ok"
	switch {
	case parseErr != nil:
		status = "parse_error"
	case out.Err() != nil:
		status = "failed"
	}
	m.compiles.WithLabelValues(status).Inc()
	for _, d := range out.Diagnostics {
		m.diagnostics.WithLabelValues(d.Code).Inc()
	}
}
