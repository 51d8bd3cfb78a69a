package display

import (
	"context"
	"sync"

	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// Recorder is a surface that keeps every published view. It is used by
// the headless mode and by tests.
type Recorder struct {
	mu      sync.Mutex
	views   []statusbar.View
	changed chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{changed: make(chan struct{})}
}

// Publish implements statusbar.Surface.
func (r *Recorder) Publish(v statusbar.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
	close(r.changed)
	r.changed = make(chan struct{})
}

// Views returns a copy of the recorded views.
func (r *Recorder) Views() []statusbar.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]statusbar.View, len(r.views))
	copy(out, r.views)
	return out
}

// Last returns the most recent view.
func (r *Recorder) Last() (statusbar.View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.views) == 0 {
		return statusbar.View{}, false
	}
	return r.views[len(r.views)-1], true
}

// WaitFor blocks until a recorded view satisfies match or ctx is done.
func (r *Recorder) WaitFor(ctx context.Context, match func(statusbar.View) bool) (statusbar.View, error) {
	seen := 0
	for {
		r.mu.Lock()
		views := r.views[seen:]
		changed := r.changed
		for _, v := range views {
			if match(v) {
				r.mu.Unlock()
				return v, nil
			}
		}
		seen += len(views)
		r.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return statusbar.View{}, ctx.Err()
		}
	}
}
