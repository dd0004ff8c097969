package strategy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidValue is returned when a prop value does not fit its kind.
var ErrInvalidValue = errors.New("strategy: invalid value")

// ObserverOptions configures the visibility observer. The zero value observes
// the viewport with no margin and fires on any intersection.
type ObserverOptions struct {
	RootMargin string    `json:"rootMargin,omitempty"`
	Threshold  []float64 `json:"threshold,omitempty"`
}

// Condition is a watched boolean. *reactive.Signal[bool] satisfies it.
type Condition interface {
	Peek() bool
	// Subscribe calls fn with each new value and returns an unsubscribe func.
	Subscribe(fn func(bool)) func()
}

// Awaitable completes once. A context.Context satisfies it.
type Awaitable interface {
	Done() <-chan struct{}
}

type chanAwaitable <-chan struct{}

func (c chanAwaitable) Done() <-chan struct{} { return c }

// staticCondition is a Condition that never changes.
type staticCondition bool

func (c staticCondition) Peek() bool                 { return bool(c) }
func (c staticCondition) Subscribe(func(bool)) func() { return func() {} }

// Normalize coerces a prop value into the Go type the kind's trigger uses:
//
//	time, idle  time.Duration (numbers are milliseconds)
//	promise     Awaitable (nil allowed)
//	if          Condition
//	event       []string
//	visible     ObserverOptions
//	media       string
//	never       nil
//
// A nil value yields the kind's default. Values of the wrong shape return an
// error wrapping ErrInvalidValue.
func (d Descriptor) Normalize(value any) (any, error) {
	if value == nil {
		if d.Kind == KindIf {
			return staticCondition(true), nil
		}
		return d.Default, nil
	}

	switch d.Kind {
	case KindTime, KindIdle:
		ms, err := toDuration(value)
		if err != nil {
			return nil, d.invalid(value)
		}
		return ms, nil

	case KindPromise:
		switch v := value.(type) {
		case Awaitable:
			return v, nil
		case <-chan struct{}:
			return chanAwaitable(v), nil
		case chan struct{}:
			return chanAwaitable(v), nil
		}

	case KindIf:
		switch v := value.(type) {
		case Condition:
			return v, nil
		case bool:
			return staticCondition(v), nil
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return staticCondition(b), nil
			}
		}

	case KindEvent:
		switch v := value.(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return []string{v}, nil
			}
		case []string:
			if len(v) > 0 {
				return append([]string(nil), v...), nil
			}
		case []any:
			events := make([]string, 0, len(v))
			for _, e := range v {
				s, ok := e.(string)
				if !ok || s == "" {
					return nil, d.invalid(value)
				}
				events = append(events, s)
			}
			if len(events) > 0 {
				return events, nil
			}
		}

	case KindVisible:
		switch v := value.(type) {
		case ObserverOptions:
			return v, nil
		case *ObserverOptions:
			if v != nil {
				return *v, nil
			}
		case map[string]any:
			return observerFromMap(v)
		}

	case KindMedia:
		if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
			return s, nil
		}

	case KindNever:
		// never accepts no value at all
	}
	return nil, d.invalid(value)
}

func (d Descriptor) invalid(value any) error {
	return fmt.Errorf("%w: %s expects %s, got %T", ErrInvalidValue, d.Kind, d.Expected, value)
}

func toDuration(value any) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(f * float64(time.Millisecond)), nil
	}
	return 0, ErrInvalidValue
}

func observerFromMap(m map[string]any) (ObserverOptions, error) {
	var opts ObserverOptions
	if margin, ok := m["rootMargin"].(string); ok {
		opts.RootMargin = margin
	}
	switch t := m["threshold"].(type) {
	case nil:
	case float64:
		opts.Threshold = []float64{t}
	case []any:
		for _, v := range t {
			f, ok := v.(float64)
			if !ok {
				return ObserverOptions{}, fmt.Errorf("%w: threshold entries must be numbers", ErrInvalidValue)
			}
			opts.Threshold = append(opts.Threshold, f)
		}
	default:
		return ObserverOptions{}, fmt.Errorf("%w: threshold must be a number or list", ErrInvalidValue)
	}
	return opts, nil
}
