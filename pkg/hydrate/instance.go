package hydrate

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lazyhydrate/pkg/strategy"
	"github.com/vango-dev/lazyhydrate/pkg/vdom"
)

var now = time.Now

// Instance is one mounted lazy component.
type Instance struct {
	id    string
	hid   string
	comp  *Component
	props vdom.Props

	ctx     context.Context
	cancel  context.CancelFunc
	armedAt time.Time
	untrack func()

	mu        sync.Mutex
	state     State
	handle    *strategy.Handle
	loaded    vdom.Component
	err       error
	unmounted bool

	hydrated chan struct{}
}

// ID returns the instance id used for activation routing.
func (i *Instance) ID() string { return i.id }

// HID returns the hydration id of the root element.
func (i *Instance) HID() string { return i.hid }

// Kind returns the trigger kind.
func (i *Instance) Kind() strategy.Kind { return i.comp.kind }

// State returns the current state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Err returns the load error, if the load failed.
func (i *Instance) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

// Hydrated is closed once the instance is Mounted.
func (i *Instance) Hydrated() <-chan struct{} {
	return i.hydrated
}

// Activate fires the trigger out of band. It is how never instances are
// mounted, and it works for any kind while the instance is Deferred.
func (i *Instance) Activate() {
	i.comp.cfg.logger.Debug("hydration activated", "kind", i.comp.kind.String(), "instance", i.id)
	i.trigger()
}

// Unmount releases the trigger if it has not fired and stops an in-flight
// load. Calling it more than once is harmless.
func (i *Instance) Unmount() {
	i.mu.Lock()
	if i.unmounted {
		i.mu.Unlock()
		return
	}
	i.unmounted = true
	wasDeferred := i.state == StateDeferred
	h := i.handle
	i.handle = nil
	i.mu.Unlock()

	h.Cancel()
	i.cancel()
	if i.untrack != nil {
		i.untrack()
	}

	m := i.comp.cfg.metrics
	if wasDeferred {
		m.deferred(-1)
		m.outcome(i.comp.kind, outcomeCancelled)
	}
}

// Render returns the root element wrapping the placeholder until the
// instance is Mounted, and the loaded subtree after. The loaded subtree
// receives the forwarded props plus the mismatch marker.
func (i *Instance) Render() *vdom.VNode {
	i.mu.Lock()
	state, loaded := i.state, i.loaded
	i.mu.Unlock()

	if state == StateMounted {
		node := loaded.Render(vdom.MergeProps(i.props, vdom.Props{AllowMismatchAttr: ""}))
		if node != nil && node.HID == "" {
			node.HID = i.hid
		}
		return node
	}

	root := vdom.El(i.comp.cfg.rootTag, vdom.Props{"data-lazy": i.comp.kind.String()})
	root.HID = i.hid
	if p := i.comp.cfg.placeholder; p != nil {
		if child := p.Render(i.props); child != nil {
			root.Children = append(root.Children, child)
		}
	}
	return root
}

// trigger moves a Deferred instance to Triggered and starts the load. It is
// the fire callback given to the strategy and runs at most once.
func (i *Instance) trigger() {
	i.mu.Lock()
	if i.state != StateDeferred || i.unmounted {
		i.mu.Unlock()
		return
	}
	i.state = StateTriggered
	h := i.handle
	i.handle = nil
	i.mu.Unlock()

	// releases the other registrations of a multi-source trigger
	h.Cancel()

	m := i.comp.cfg.metrics
	m.deferred(-1)
	m.waited(i.comp.kind, now().Sub(i.armedAt))

	i.mu.Lock()
	i.state = StateLoading
	i.mu.Unlock()
	go i.load()
}

func (i *Instance) load() {
	cfg := &i.comp.cfg
	kind := i.comp.kind.String()

	ctx, span := cfg.tracer.Start(i.ctx, "lazyhydrate.load",
		trace.WithAttributes(
			attribute.String("lazyhydrate.kind", kind),
			attribute.String("lazyhydrate.instance", i.id),
		),
	)
	defer span.End()

	start := now()
	comp, err := i.comp.loader(ctx)
	if err == nil && comp == nil {
		err = ErrNilComponent
	}
	cfg.metrics.loaded(i.comp.kind, now().Sub(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.fail(err)
		return
	}

	i.mu.Lock()
	if i.unmounted {
		i.mu.Unlock()
		cfg.metrics.outcome(i.comp.kind, outcomeCancelled)
		return
	}
	i.loaded = comp
	i.state = StateMounted
	i.mu.Unlock()

	span.SetStatus(codes.Ok, "")
	cfg.metrics.outcome(i.comp.kind, outcomeMounted)
	cfg.logger.Debug("hydrated", "kind", kind, "instance", i.id)

	close(i.hydrated)
	if cfg.onHydrated != nil {
		cfg.onHydrated(i)
	}
}

// fail records a load error and hands it to the error handler. Failures
// caused by unmounting are only recorded.
func (i *Instance) fail(err error) {
	cfg := &i.comp.cfg

	i.mu.Lock()
	i.err = err
	unmounted := i.unmounted
	i.mu.Unlock()

	if unmounted && errors.Is(err, context.Canceled) {
		cfg.metrics.outcome(i.comp.kind, outcomeCancelled)
		return
	}
	cfg.metrics.outcome(i.comp.kind, outcomeError)

	if cfg.onError != nil {
		cfg.onError(i, err)
		return
	}
	cfg.logger.Error("lazy component failed to load",
		"kind", i.comp.kind.String(),
		"instance", i.id,
		"error", err)
}
