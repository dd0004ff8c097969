package strategy

import "time"

// Host provides the primitives triggers are built on. Every registration
// returns a func that withdraws it; withdrawing twice must be harmless.
// Callbacks may run on any goroutine.
type Host interface {
	// AfterFunc calls fn once after d.
	AfterFunc(d time.Duration, fn func()) (stop func())

	// Listen calls fn when any of events occurs on the root element.
	Listen(root string, events []string, fn func(event string)) (remove func())

	// Observe calls fn when the root element intersects the viewport.
	Observe(root string, opts ObserverOptions, fn func()) (disconnect func())

	// MatchMedia calls fn when query matches, including if it matches now.
	MatchMedia(query string, fn func()) (remove func())

	// RequestIdle calls fn in the next idle slot. A positive timeout bounds
	// the wait.
	RequestIdle(timeout time.Duration, fn func()) (cancel func())
}

// Target is what a trigger is armed against: the host primitives and the
// hydration id of the subtree's root element.
type Target struct {
	Host Host
	Root string
}

// SystemHost implements timers with the runtime clock. It has no viewport,
// input or media source, so those registrations never fire; idle requests
// with a timeout fire when the timeout elapses.
type SystemHost struct{}

var _ Host = SystemHost{}

func (SystemHost) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

func (SystemHost) Listen(string, []string, func(string)) func() { return func() {} }

func (SystemHost) Observe(string, ObserverOptions, func()) func() { return func() {} }

func (SystemHost) MatchMedia(string, func()) func() { return func() {} }

func (SystemHost) RequestIdle(timeout time.Duration, fn func()) func() {
	if timeout <= 0 {
		return func() {}
	}
	t := time.AfterFunc(timeout, fn)
	return func() { t.Stop() }
}
