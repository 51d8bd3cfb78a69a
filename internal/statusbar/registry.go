package statusbar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// CreateFunc builds the bar registered under name.
type CreateFunc func(name string) (*StatusBar, error)

// Registry holds the bars of a process by name. Registration is idempotent:
// registering a name twice returns the existing bar.
type Registry struct {
	mu   sync.RWMutex
	bars map[string]*StatusBar
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bars: make(map[string]*StatusBar)}
}

// Register returns the bar named name, creating it with create when it does
// not exist yet. created reports whether create was called.
func (r *Registry) Register(name string, create CreateFunc) (bar *StatusBar, created bool, err error) {
	if name == "" {
		return nil, false, errors.New("status bar name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.bars[name]; ok {
		return b, false, nil
	}

	b, err := create(name)
	if err != nil {
		return nil, false, fmt.Errorf("create status bar %q: %w", name, err)
	}
	r.bars[name] = b
	return b, true, nil
}

// Get returns the bar named name.
func (r *Registry) Get(name string) (*StatusBar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bars[name]
	return b, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bars))
	for name := range r.bars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Bars returns the registered bars ordered by name.
func (r *Registry) Bars() []*StatusBar {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()
	bars := make([]*StatusBar, 0, len(names))
	for _, name := range names {
		if b, ok := r.bars[name]; ok {
			bars = append(bars, b)
		}
	}
	return bars
}

// Close closes every bar and empties the registry.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	bars := r.bars
	r.bars = make(map[string]*StatusBar)
	r.mu.Unlock()

	var errs []error
	for name, b := range bars {
		if err := b.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close status bar %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
