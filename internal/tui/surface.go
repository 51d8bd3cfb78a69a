package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Surface forwards published views to a program. Publish never blocks;
// views are coalesced per bar and sent from a forwarding goroutine.
type Surface struct {
	sender Sender

	mu      sync.Mutex
	pending map[string]statusbar.View
	order   []string
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	closed  bool
}

// NewSurface starts forwarding to sender. Call Close to stop.
func NewSurface(sender Sender) *Surface {
	s := &Surface{
		sender:  sender,
		pending: make(map[string]statusbar.View),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.forward()
	return s
}

// Publish implements statusbar.Surface.
func (s *Surface) Publish(v statusbar.View) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, ok := s.pending[v.Bar]; !ok {
		s.order = append(s.order, v.Bar)
	}
	s.pending[v.Bar] = v
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Surface) forward() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		views := make([]statusbar.View, 0, len(s.order))
		for _, bar := range s.order {
			views = append(views, s.pending[bar])
		}
		s.pending = make(map[string]statusbar.View)
		s.order = nil
		s.mu.Unlock()

		for _, v := range views {
			s.sender.Send(ViewMsg{View: v})
		}
	}
}

// Close stops forwarding. Views published afterwards are dropped.
func (s *Surface) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	<-s.stopped
}
