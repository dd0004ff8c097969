package hydrate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/lazyhydrate/pkg/reactive"
	"github.com/vango-dev/lazyhydrate/pkg/strategy"
	"github.com/vango-dev/lazyhydrate/pkg/vdom"
)

// fakeHost keeps one pending registration per primitive and fires it on
// demand.
type fakeHost struct {
	mu      sync.Mutex
	timers  []time.Duration
	pending map[string]func()
	removed int
}

func newFakeHost() *fakeHost {
	return &fakeHost{pending: make(map[string]func())}
}

func (h *fakeHost) register(key string, fn func()) func() {
	h.mu.Lock()
	h.pending[key] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		if _, ok := h.pending[key]; ok {
			delete(h.pending, key)
			h.removed++
		}
		h.mu.Unlock()
	}
}

func (h *fakeHost) AfterFunc(d time.Duration, fn func()) func() {
	h.mu.Lock()
	h.timers = append(h.timers, d)
	h.mu.Unlock()
	return h.register("timer", fn)
}

func (h *fakeHost) Listen(_ string, events []string, fn func(string)) func() {
	return h.register("listen", func() { fn(events[0]) })
}

func (h *fakeHost) Observe(_ string, _ strategy.ObserverOptions, fn func()) func() {
	return h.register("observe", fn)
}

func (h *fakeHost) MatchMedia(_ string, fn func()) func() {
	return h.register("media", fn)
}

func (h *fakeHost) RequestIdle(_ time.Duration, fn func()) func() {
	return h.register("idle", fn)
}

func (h *fakeHost) fire(key string) bool {
	h.mu.Lock()
	fn := h.pending[key]
	h.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (h *fakeHost) has(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.pending[key]
	return ok
}

// countingLoader returns a component that records the props it renders
// with.
type countingLoader struct {
	calls atomic.Int32
	mu    sync.Mutex
	props vdom.Props
}

func (l *countingLoader) load(context.Context) (vdom.Component, error) {
	l.calls.Add(1)
	return vdom.Func(func(p vdom.Props) *vdom.VNode {
		l.mu.Lock()
		l.props = p
		l.mu.Unlock()
		return vdom.El("section", p, vdom.Text("chart"))
	}), nil
}

func waitHydrated(t *testing.T, inst *Instance) {
	t.Helper()
	select {
	case <-inst.Hydrated():
	case <-time.After(2 * time.Second):
		t.Fatalf("instance not hydrated, state %s", inst.State())
	}
}

func TestTimeZeroFiresImmediately(t *testing.T) {
	for _, v := range []any{0, -5, time.Duration(0)} {
		host := newFakeHost()
		loader := &countingLoader{}
		inst := Lazy(strategy.KindTime, loader.load, WithHost(host)).
			Mount(context.Background(), vdom.Props{"hydrate": v})

		if s := inst.State(); s != StateLoading && s != StateMounted {
			t.Errorf("hydrate=%v: State() = %s right after Mount, want loading or mounted", v, s)
		}
		waitHydrated(t, inst)
		if len(host.timers) != 0 {
			t.Errorf("hydrate=%v: timers created = %v, want none", v, host.timers)
		}
	}
}

func TestTimeWaitsForTimer(t *testing.T) {
	host := newFakeHost()
	loader := &countingLoader{}
	inst := Lazy(strategy.KindTime, loader.load, WithHost(host)).
		Mount(context.Background(), vdom.Props{"hydrate": 500})

	if inst.State() != StateDeferred {
		t.Fatalf("State() = %s, want deferred", inst.State())
	}
	if len(host.timers) != 1 || host.timers[0] != 500*time.Millisecond {
		t.Fatalf("timers = %v, want [500ms]", host.timers)
	}
	host.fire("timer")
	waitHydrated(t, inst)
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
}

func TestTimeDefault(t *testing.T) {
	host := newFakeHost()
	loader := &countingLoader{}
	Lazy(strategy.KindTime, loader.load, WithHost(host)).Mount(context.Background(), nil)

	if len(host.timers) != 1 || host.timers[0] != strategy.DefaultTime {
		t.Errorf("timers = %v, want [%v]", host.timers, strategy.DefaultTime)
	}
}

func TestIfTriggersOnce(t *testing.T) {
	ready := reactive.NewSignal(false)
	loader := &countingLoader{}
	inst := Lazy(strategy.KindIf, loader.load).
		Mount(context.Background(), vdom.Props{"hydrate": ready})

	if inst.State() != StateDeferred {
		t.Fatalf("State() = %s, want deferred", inst.State())
	}

	ready.Set(true)
	if inst.State() == StateDeferred {
		t.Fatal("instance still deferred after condition became true")
	}
	waitHydrated(t, inst)

	ready.Set(false)
	ready.Set(true)
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
	if n := ready.Subscribers(); n != 0 {
		t.Errorf("condition subscribers after firing = %d, want 0", n)
	}
}

func TestIfAlreadyTrue(t *testing.T) {
	ready := reactive.NewSignal(true)
	loader := &countingLoader{}
	inst := Lazy(strategy.KindIf, loader.load).
		Mount(context.Background(), vdom.Props{"hydrate": ready})

	waitHydrated(t, inst)
	if n := ready.Subscribers(); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestNeverWaitsForActivate(t *testing.T) {
	host := newFakeHost()
	loader := &countingLoader{}
	inst := Lazy(strategy.KindNever, loader.load, WithHost(host)).
		Mount(context.Background(), nil)

	for _, key := range []string{"timer", "listen", "observe", "media", "idle"} {
		if host.has(key) {
			t.Errorf("never registered %s", key)
		}
	}
	time.Sleep(10 * time.Millisecond)
	if inst.State() != StateDeferred {
		t.Fatalf("State() = %s, want deferred", inst.State())
	}

	inst.Activate()
	waitHydrated(t, inst)
	inst.Activate()
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
}

func TestEventTrigger(t *testing.T) {
	host := newFakeHost()
	loader := &countingLoader{}
	inst := Lazy(strategy.KindEvent, loader.load, WithHost(host)).
		Mount(context.Background(), vdom.Props{"hydrate": []string{"click", "focus"}})

	if !host.fire("listen") {
		t.Fatal("no listener registered")
	}
	waitHydrated(t, inst)
	if host.has("listen") {
		t.Error("listener not removed after firing")
	}
}

func TestHydratedOnceAndPropsForwarded(t *testing.T) {
	var hydrated atomic.Int32
	loader := &countingLoader{}
	inst := Lazy(strategy.KindNever, loader.load,
		WithOnHydrated(func(*Instance) { hydrated.Add(1) }),
	).Mount(context.Background(), vdom.Props{"class": "wide", "data": []int{1, 2}, "hydrate": nil})

	inst.Activate()
	waitHydrated(t, inst)
	inst.Activate()

	node := inst.Render()
	if node == nil || node.Tag != "section" {
		t.Fatalf("Render() = %+v, want the loaded subtree", node)
	}
	if node.HID != inst.HID() {
		t.Errorf("mounted HID = %q, want %q", node.HID, inst.HID())
	}

	loader.mu.Lock()
	props := loader.props
	loader.mu.Unlock()
	if props["class"] != "wide" {
		t.Errorf("class = %v, want wide", props["class"])
	}
	if _, ok := props["data"]; !ok {
		t.Error("data prop not forwarded")
	}
	if v, ok := props[AllowMismatchAttr]; !ok || v != "" {
		t.Errorf("%s = %v (present %v), want empty marker", AllowMismatchAttr, v, ok)
	}
	if _, ok := props[ValueProp]; ok {
		t.Error("hydrate prop must not be forwarded")
	}

	// the callback runs after Hydrated closes
	deadline := time.Now().Add(time.Second)
	for hydrated.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := hydrated.Load(); got != 1 {
		t.Errorf("hydrated callbacks = %d, want 1", got)
	}
}

func TestRenderPlaceholder(t *testing.T) {
	loader := &countingLoader{}
	inst := Lazy(strategy.KindNever, loader.load,
		WithRootTag("span"),
		WithHIDs(vdom.NewHIDGenerator()),
		WithPlaceholder(vdom.Func(func(p vdom.Props) *vdom.VNode {
			return vdom.Text("loading " + p["title"].(string))
		})),
	).Mount(context.Background(), vdom.Props{"title": "sales"})

	node := inst.Render()
	if node.Tag != "span" || node.HID != "h1" {
		t.Errorf("root = <%s hid=%q>, want <span hid=\"h1\">", node.Tag, node.HID)
	}
	if node.Props["data-lazy"] != "never" {
		t.Errorf("data-lazy = %v, want never", node.Props["data-lazy"])
	}
	if len(node.Children) != 1 || node.Children[0].Text != "loading sales" {
		t.Errorf("children = %+v", node.Children)
	}
}

func TestUnmountCancelsTrigger(t *testing.T) {
	host := newFakeHost()
	loader := &countingLoader{}
	inst := Lazy(strategy.KindVisible, loader.load, WithHost(host)).
		Mount(context.Background(), nil)

	if !host.has("observe") {
		t.Fatal("observer not registered")
	}
	inst.Unmount()
	inst.Unmount()

	if host.has("observe") {
		t.Error("observer not disconnected on unmount")
	}
	if host.removed != 1 {
		t.Errorf("removals = %d, want 1", host.removed)
	}
	inst.Activate()
	time.Sleep(10 * time.Millisecond)
	if got := loader.calls.Load(); got != 0 {
		t.Errorf("loader calls after unmount = %d, want 0", got)
	}
	if inst.State() != StateDeferred {
		t.Errorf("State() = %s, want deferred", inst.State())
	}
}

func TestUnmountStopsLoad(t *testing.T) {
	started := make(chan struct{})
	stopped := make(chan error, 1)
	loader := func(ctx context.Context) (vdom.Component, error) {
		close(started)
		<-ctx.Done()
		stopped <- ctx.Err()
		return nil, ctx.Err()
	}
	var handled atomic.Int32
	inst := Lazy(strategy.KindTime, loader,
		WithErrorHandler(func(*Instance, error) { handled.Add(1) }),
	).Mount(context.Background(), vdom.Props{"hydrate": 0})

	<-started
	inst.Unmount()
	select {
	case err := <-stopped:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("loader ctx error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loader context not cancelled by Unmount")
	}
	time.Sleep(10 * time.Millisecond)
	if handled.Load() != 0 {
		t.Error("cancellation after unmount should not reach the error handler")
	}
}

func TestLoaderErrorPropagates(t *testing.T) {
	boom := errors.New("chunk failed")
	errs := make(chan error, 1)
	inst := Lazy(strategy.KindNever,
		func(context.Context) (vdom.Component, error) { return nil, boom },
		WithErrorHandler(func(_ *Instance, err error) { errs <- err }),
	).Mount(context.Background(), nil)

	inst.Activate()
	select {
	case err := <-errs:
		if !errors.Is(err, boom) {
			t.Errorf("handler error = %v, want %v", err, boom)
		}
	case <-time.After(time.Second):
		t.Fatal("error handler not called")
	}
	if !errors.Is(inst.Err(), boom) {
		t.Errorf("Err() = %v, want %v", inst.Err(), boom)
	}
	if inst.State() != StateLoading {
		t.Errorf("State() = %s, want loading", inst.State())
	}
	select {
	case <-inst.Hydrated():
		t.Error("Hydrated closed after a failed load")
	default:
	}
}

func TestNilComponentIsAnError(t *testing.T) {
	errs := make(chan error, 1)
	inst := Lazy(strategy.KindNever,
		func(context.Context) (vdom.Component, error) { return nil, nil },
		WithErrorHandler(func(_ *Instance, err error) { errs <- err }),
	).Mount(context.Background(), nil)

	inst.Activate()
	select {
	case err := <-errs:
		if !errors.Is(err, ErrNilComponent) {
			t.Errorf("error = %v, want ErrNilComponent", err)
		}
	case <-time.After(time.Second):
		t.Fatal("error handler not called")
	}
}

func TestInvalidValueUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	host := newFakeHost()
	loader := &countingLoader{}

	inst := Lazy(strategy.KindTime, loader.load, WithHost(host), WithLogger(logger)).
		Mount(context.Background(), vdom.Props{"hydrate": []string{"soon"}})

	if inst.State() != StateDeferred {
		t.Errorf("State() = %s, want deferred", inst.State())
	}
	if len(host.timers) != 1 || host.timers[0] != strategy.DefaultTime {
		t.Errorf("timers = %v, want the default", host.timers)
	}
	if !strings.Contains(buf.String(), "H005") {
		t.Errorf("log = %q, want an H005 warning", buf.String())
	}
}

type fakeTracker struct {
	mu      sync.Mutex
	tracked map[string]func()
}

func (f *fakeTracker) Track(id string, activate func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracked[id] = activate
	return func() {
		f.mu.Lock()
		delete(f.tracked, id)
		f.mu.Unlock()
	}
}

func TestTracker(t *testing.T) {
	tracker := &fakeTracker{tracked: make(map[string]func())}
	loader := &countingLoader{}
	inst := Lazy(strategy.KindNever, loader.load, WithTracker(tracker)).
		Mount(context.Background(), nil)

	tracker.mu.Lock()
	activate := tracker.tracked[inst.ID()]
	tracker.mu.Unlock()
	if activate == nil {
		t.Fatal("instance not tracked")
	}
	activate()
	waitHydrated(t, inst)

	inst.Unmount()
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if len(tracker.tracked) != 0 {
		t.Error("instance still tracked after unmount")
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	loader := &countingLoader{}
	comp := Lazy(strategy.KindNever, loader.load, WithMetrics(m))

	a := comp.Mount(context.Background(), nil)
	b := comp.Mount(context.Background(), nil)
	if got := gaugeValue(t, m.deferredNow); got != 2 {
		t.Errorf("deferred = %v, want 2", got)
	}

	a.Activate()
	waitHydrated(t, a)
	b.Unmount()

	if got := gaugeValue(t, m.deferredNow); got != 0 {
		t.Errorf("deferred = %v, want 0", got)
	}
	if got := counterValue(t, m.hydrations, "never", outcomeMounted); got != 1 {
		t.Errorf("mounted = %v, want 1", got)
	}
	if got := counterValue(t, m.hydrations, "never", outcomeCancelled); got != 1 {
		t.Errorf("cancelled = %v, want 1", got)
	}
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	if err := vec.WithLabelValues(labels...).Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	loader := &countingLoader{}
	reg.Register("chart-panel", loader.load)

	tests := []struct {
		tag  string
		kind strategy.Kind
		err  error
	}{
		{"LazyIdleChartPanel", strategy.KindIdle, nil},
		{"lazy-never-chart-panel", strategy.KindNever, nil},
		{"LazyVisibleChartPanel", strategy.KindVisible, nil},
		{"LazyChartPanel", 0, ErrNotCanonical},
		{"ChartPanel", 0, ErrNotCanonical},
		{"LazyIdleTable", 0, ErrUnknownComponent},
	}
	for _, tt := range tests {
		comp, err := reg.Resolve(tt.tag)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("Resolve(%q) error = %v, want %v", tt.tag, err, tt.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Resolve(%q) error = %v", tt.tag, err)
			continue
		}
		if comp.Kind() != tt.kind {
			t.Errorf("Resolve(%q).Kind() = %s, want %s", tt.tag, comp.Kind(), tt.kind)
		}
	}

	if names := reg.Names(); len(names) != 1 || names[0] != "ChartPanel" {
		t.Errorf("Names() = %v, want [ChartPanel]", names)
	}
}

func TestStateString(t *testing.T) {
	want := []string{"deferred", "triggered", "loading", "mounted"}
	for i, w := range want {
		if got := State(i).String(); got != w {
			t.Errorf("State(%d) = %q, want %q", i, got, w)
		}
	}
}
