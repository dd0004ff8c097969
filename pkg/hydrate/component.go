package hydrate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/lazyhydrate/pkg/diag"
	"github.com/vango-dev/lazyhydrate/pkg/strategy"
	"github.com/vango-dev/lazyhydrate/pkg/vdom"
)

const (
	// ValueProp is the prop carrying the trigger value.
	ValueProp = "hydrate"

	// AllowMismatchAttr marks the mounted subtree as allowed to differ from
	// the placeholder it replaces.
	AllowMismatchAttr = "data-allow-mismatch"
)

// ErrNilComponent is reported when a loader returns neither a component
// nor an error.
var ErrNilComponent = errors.New("hydrate: loader returned nil component")

// Loader fetches the deferred subtree. It runs on its own goroutine and ctx
// is cancelled when the instance unmounts.
type Loader func(ctx context.Context) (vdom.Component, error)

// Component is a lazily mounted component bound to one trigger kind.
type Component struct {
	kind   strategy.Kind
	loader Loader
	cfg    config
}

// Lazy wraps loader so that it only runs once the kind's trigger fires.
func Lazy(kind strategy.Kind, loader Loader, opts ...Option) *Component {
	cfg := config{rootTag: "div"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.host == nil {
		cfg.host = strategy.SystemHost{}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer("lazyhydrate")
	}
	return &Component{kind: kind, loader: loader, cfg: cfg}
}

// Kind returns the trigger kind.
func (c *Component) Kind() strategy.Kind {
	return c.kind
}

// Mount creates an instance and arms its trigger. If the trigger condition
// already holds the instance is Loading when Mount returns.
//
// The hydrate prop is the trigger value; every other prop is forwarded to
// the loaded subtree. An invalid value is logged and replaced by the kind's
// default.
func (c *Component) Mount(ctx context.Context, props vdom.Props) *Instance {
	id := uuid.NewString()
	hid := id
	if c.cfg.hids != nil {
		hid = c.cfg.hids.Next()
	}

	value, forwarded := splitProps(props)
	inst := &Instance{
		id:       id,
		hid:      hid,
		comp:     c,
		props:    forwarded,
		state:    StateDeferred,
		hydrated: make(chan struct{}),
	}
	inst.ctx, inst.cancel = context.WithCancel(ctx)
	inst.armedAt = now()
	c.cfg.metrics.deferred(1)

	if c.cfg.tracker != nil {
		inst.untrack = c.cfg.tracker.Track(id, inst.Activate)
	}

	target := strategy.Target{Host: c.cfg.host, Root: hid}
	arming, err := strategy.Arm(inst.ctx, c.kind, value, target, inst.trigger)
	if err != nil {
		c.cfg.logger.Warn("invalid hydrate prop, using default",
			"code", diag.CodeRuntimeValue,
			"kind", c.kind.String(),
			"instance", id,
			"error", err)
		arming, _ = strategy.Arm(inst.ctx, c.kind, nil, target, inst.trigger)
	}

	if arming.Immediate {
		inst.trigger()
		return inst
	}

	inst.mu.Lock()
	keep := inst.state == StateDeferred && !inst.unmounted
	if keep {
		inst.handle = arming.Handle
	}
	inst.mu.Unlock()
	if !keep {
		arming.Handle.Cancel()
	}

	c.cfg.logger.Debug("hydration deferred", "kind", c.kind.String(), "instance", id)
	return inst
}

// splitProps separates the trigger value from the forwarded props.
func splitProps(props vdom.Props) (any, vdom.Props) {
	forwarded := make(vdom.Props, len(props))
	var value any
	for k, v := range props {
		if k == ValueProp {
			value = v
			continue
		}
		forwarded[k] = v
	}
	return value, forwarded
}
