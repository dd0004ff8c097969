package hydrate

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vango-dev/lazyhydrate/pkg/lazytag"
)

var (
	// ErrUnknownComponent is returned by Resolve for tags naming a
	// component that was never registered.
	ErrUnknownComponent = errors.New("hydrate: unknown component")

	// ErrNotCanonical is returned by Resolve for tags that do not embed a
	// trigger kind.
	ErrNotCanonical = errors.New("hydrate: not a canonical lazy tag")
)

// Registry maps component names to loaders.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
	opts    []Option
}

// NewRegistry creates a registry whose components all get opts.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{loaders: make(map[string]Loader), opts: opts}
}

// Register binds name to loader. Names are matched in PascalCase, so
// "chart-panel" and "ChartPanel" are the same component.
func (r *Registry) Register(name string, loader Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[lazytag.PascalCase(name)] = loader
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the Component for a canonical tag such as LazyIdleChart or
// lazy-idle-chart. opts are applied after the registry's own.
func (r *Registry) Resolve(tag string, opts ...Option) (*Component, error) {
	c, ok := lazytag.ParseCanonical(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotCanonical, tag)
	}
	name := lazytag.PascalCase(c.Component)

	r.mu.RLock()
	loader, ok := r.loaders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (tag %q)", ErrUnknownComponent, name, tag)
	}

	all := make([]Option, 0, len(r.opts)+len(opts))
	all = append(all, r.opts...)
	all = append(all, opts...)
	return Lazy(c.Kind, loader, all...), nil
}
