package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/statusbar/internal/message"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// Errors returned by the router.
var (
	ErrUnknownBar     = errors.New("unknown status bar")
	ErrNoBars         = errors.New("no status bars registered")
	ErrUnknownMessage = errors.New("unknown or completed message")
)

// Router delivers events to the bars of a registry. An event naming a bar
// goes to that bar; otherwise it goes to the first bar, by name, that is
// subscribed to its type.
type Router struct {
	bars   *statusbar.Registry
	logger *slog.Logger

	mu          sync.Mutex
	outstanding map[string]*message.Message // Keyed by message ID
}

// NewRouter creates a router over bars.
func NewRouter(bars *statusbar.Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		bars:        bars,
		logger:      logger,
		outstanding: make(map[string]*message.Message),
	}
}

// Handle implements Handler.
func (r *Router) Handle(ctx context.Context, ev Event) error {
	switch ev.Action {
	case ActionDismiss:
		return r.dismiss(ctx, ev)
	case ActionWithdraw:
		return r.withdraw(ev)
	default:
		_, err := r.Queue(ctx, ev)
		return err
	}
}

// Queue queues ev and returns the message. The message is tracked until it
// completes so it can be withdrawn by ID.
func (r *Router) Queue(ctx context.Context, ev Event) (*message.Message, error) {
	bars, err := r.targets(ev.Bar)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, b := range bars {
		msg, err := b.Queue(ctx, ev.Event)
		if errors.Is(err, statusbar.ErrNotSubscribed) && ev.Bar == "" {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("bar %q: %w", b.Name(), err)
		}
		r.track(b.Name(), msg, ev.Source)
		return msg, nil
	}
	return nil, lastErr
}

// Outstanding returns the number of tracked messages.
func (r *Router) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outstanding)
}

// targets returns the candidate bars for an event.
func (r *Router) targets(name string) ([]*statusbar.StatusBar, error) {
	if name != "" {
		b, ok := r.bars.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBar, name)
		}
		return []*statusbar.StatusBar{b}, nil
	}
	bars := r.bars.Bars()
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	return bars, nil
}

// track remembers msg until it completes and logs the outcome.
func (r *Router) track(bar string, msg *message.Message, source string) {
	r.mu.Lock()
	r.outstanding[msg.ID] = msg
	r.mu.Unlock()

	r.logger.Debug("message queued", "bar", bar, "id", msg.ID, "type", msg.Type, "source", source)

	msg.Completion().OnSettled(func(res message.Result) {
		r.mu.Lock()
		delete(r.outstanding, msg.ID)
		r.mu.Unlock()

		r.logger.Info("message completed",
			"bar", bar,
			"id", msg.ID,
			"type", msg.Type,
			"reason", res.Reason,
			"by", res.Source,
		)
	})
}

func (r *Router) dismiss(ctx context.Context, ev Event) error {
	bars, err := r.targets(ev.Bar)
	if err != nil {
		return err
	}
	source := ev.Source
	if source == "" {
		source = "input"
	}

	var lastErr error
	for _, b := range bars {
		_, err := b.Dismiss(ctx, source)
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("bar %q: %w", b.Name(), err)
	}
	return lastErr
}

func (r *Router) withdraw(ev Event) error {
	r.mu.Lock()
	msg, ok := r.outstanding[ev.ID]
	r.mu.Unlock()

	source := ev.Source
	if source == "" {
		source = "input"
	}
	if !ok || !msg.Withdraw(source) {
		return fmt.Errorf("%w: %q", ErrUnknownMessage, ev.ID)
	}
	return nil
}
