package strategy

import (
	"context"
	"fmt"
	"time"
)

type armFunc func(ctx context.Context, value any, t Target, fire func()) Arming

// arms is the dispatch table, one case per kind.
var arms = [...]armFunc{
	KindTime:    armTime,
	KindPromise: armPromise,
	KindIf:      armIf,
	KindEvent:   armEvent,
	KindVisible: armVisible,
	KindMedia:   armMedia,
	KindIdle:    armIdle,
	KindNever:   armNever,
}

// Arm arms the trigger for kind with value against t. fire is called at most
// once, possibly synchronously from within Arm, and never after the returned
// Handle has been cancelled (promise triggers stop when ctx is done instead).
//
// A nil t.Host is replaced by SystemHost.
func Arm(ctx context.Context, kind Kind, value any, t Target, fire func()) (Arming, error) {
	d, ok := Lookup(kind)
	if !ok {
		return Arming{}, fmt.Errorf("strategy: unknown kind %d", kind)
	}
	v, err := d.Normalize(value)
	if err != nil {
		return Arming{}, err
	}
	if t.Host == nil {
		t.Host = SystemHost{}
	}
	return arms[kind](ctx, v, t, fire), nil
}

func armTime(_ context.Context, value any, t Target, fire func()) Arming {
	d := value.(time.Duration)
	if d <= 0 {
		return Arming{Immediate: true}
	}
	return Arming{Handle: once(fire, func(cb func()) func() {
		return t.Host.AfterFunc(d, cb)
	})}
}

func armPromise(ctx context.Context, value any, _ Target, fire func()) Arming {
	if value == nil {
		return Arming{Immediate: true}
	}
	done := value.(Awaitable).Done()
	go func() {
		select {
		case <-done:
			fire()
		case <-ctx.Done():
		}
	}()
	return Arming{}
}

func armIf(_ context.Context, value any, _ Target, fire func()) Arming {
	cond := value.(Condition)
	if cond.Peek() {
		return Arming{Immediate: true}
	}
	return Arming{Handle: once(fire, func(cb func()) func() {
		unsubscribe := cond.Subscribe(func(v bool) {
			if v {
				cb()
			}
		})
		// catch a flip between Peek and Subscribe
		if cond.Peek() {
			cb()
		}
		return unsubscribe
	})}
}

func armEvent(_ context.Context, value any, t Target, fire func()) Arming {
	events := value.([]string)
	return Arming{Handle: once(fire, func(cb func()) func() {
		return t.Host.Listen(t.Root, events, func(string) { cb() })
	})}
}

func armVisible(_ context.Context, value any, t Target, fire func()) Arming {
	opts := value.(ObserverOptions)
	return Arming{Handle: once(fire, func(cb func()) func() {
		return t.Host.Observe(t.Root, opts, cb)
	})}
}

func armMedia(_ context.Context, value any, t Target, fire func()) Arming {
	query := value.(string)
	return Arming{Handle: once(fire, func(cb func()) func() {
		return t.Host.MatchMedia(query, cb)
	})}
}

func armIdle(_ context.Context, value any, t Target, fire func()) Arming {
	var timeout time.Duration
	if value != nil {
		timeout = value.(time.Duration)
	}
	return Arming{Handle: once(fire, func(cb func()) func() {
		return t.Host.RequestIdle(timeout, cb)
	})}
}

func armNever(context.Context, any, Target, func()) Arming {
	return Arming{}
}
