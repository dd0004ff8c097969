package strategy

import "sync"

// Handle releases an armed trigger. The zero value and a nil *Handle are
// valid and do nothing.
type Handle struct {
	once    sync.Once
	release func()
}

// NewHandle returns a Handle that runs release on the first Cancel.
func NewHandle(release func()) *Handle {
	return &Handle{release: release}
}

// Cancel releases the trigger. Calls after the first are no-ops.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		if h.release != nil {
			h.release()
		}
	})
}

// Arming is the result of arming a trigger.
type Arming struct {
	// Immediate means the trigger condition already holds; nothing was
	// registered and the caller should proceed at once.
	Immediate bool

	// Handle cancels the pending trigger. It is nil for kinds that offer no
	// cancellation (promise, never) and when Immediate is set.
	Handle *Handle
}

// once wraps a registration so that fire runs at most once and the
// registration is released as soon as it fires or is cancelled. register may
// invoke its callback synchronously.
func once(fire func(), register func(cb func()) (release func())) *Handle {
	var (
		mu      sync.Mutex
		done    bool
		release func()
	)
	cb := func() {
		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		done = true
		r := release
		mu.Unlock()
		if r != nil {
			r()
		}
		fire()
	}

	r := register(cb)

	mu.Lock()
	if done {
		mu.Unlock()
		// fired during registration; release now that we have the func
		if r != nil {
			r()
		}
		return nil
	}
	release = r
	mu.Unlock()

	return NewHandle(func() {
		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		done = true
		mu.Unlock()
		if r != nil {
			r()
		}
	})
}
