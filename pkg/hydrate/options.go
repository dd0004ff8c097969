package hydrate

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lazyhydrate/pkg/strategy"
	"github.com/vango-dev/lazyhydrate/pkg/vdom"
)

// Tracker routes out-of-band activations to instances by id. The bridge
// implements it for activations sent by the client.
type Tracker interface {
	Track(id string, activate func()) (untrack func())
}

type config struct {
	host        strategy.Host
	logger      *slog.Logger
	onHydrated  func(*Instance)
	onError     func(*Instance, error)
	placeholder vdom.Component
	rootTag     string
	metrics     *Metrics
	tracer      trace.Tracer
	hids        *vdom.HIDGenerator
	tracker     Tracker
}

// Option configures a Component.
type Option func(*config)

// WithHost sets the host the triggers are armed against.
// Default: strategy.SystemHost.
func WithHost(h strategy.Host) Option {
	return func(c *config) {
		c.host = h
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithOnHydrated registers the hydrated callback. It runs once per
// instance, after the instance is Mounted.
func WithOnHydrated(fn func(*Instance)) Option {
	return func(c *config) {
		c.onHydrated = fn
	}
}

// WithErrorHandler sets where load failures go. Default: logged at error
// level.
func WithErrorHandler(fn func(*Instance, error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}

// WithPlaceholder sets what renders inside the root element until the
// subtree is mounted. It receives the forwarded props.
func WithPlaceholder(p vdom.Component) Option {
	return func(c *config) {
		c.placeholder = p
	}
}

// WithRootTag sets the placeholder root element. Default: "div".
func WithRootTag(tag string) Option {
	return func(c *config) {
		c.rootTag = tag
	}
}

// WithMetrics records hydration metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracer sets the tracer for load spans. Default: otel.Tracer("lazyhydrate").
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}

// WithHIDs draws root hydration ids from g. Default: the instance id.
func WithHIDs(g *vdom.HIDGenerator) Option {
	return func(c *config) {
		c.hids = g
	}
}

// WithTracker registers every instance with t while it is mounted.
func WithTracker(t Tracker) Option {
	return func(c *config) {
		c.tracker = t
	}
}
