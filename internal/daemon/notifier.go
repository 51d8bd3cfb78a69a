package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/statusbar/internal/adapter/input"
	"github.com/jmylchreest/statusbar/internal/severity"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// NotifySource is the source recorded for internal notifications.
const NotifySource = "statusbar"

// InternalNotifier queues notifications about statusbar's own events
// (config reloads, audio failures) on the bars. The same key is not
// repeated within the minimum interval.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	handler input.Handler
	bar     string // Empty routes like any other event

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	now            func() time.Time

	enabled bool
}

// NewInternalNotifier creates a notifier that queues through h.
func NewInternalNotifier(h input.Handler, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		handler:        h,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		now:            time.Now,
		enabled:        true,
	}
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications sharing
// a key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// SetBar pins internal notifications to one bar.
func (n *InternalNotifier) SetBar(bar string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bar = bar
}

// Notify queues content as typeName unless key was used within the minimum
// interval. It reports whether the notification was queued.
func (n *InternalNotifier) Notify(ctx context.Context, key, typeName, content string, timeout time.Duration) bool {
	n.mu.Lock()
	if !n.enabled || n.handler == nil {
		n.mu.Unlock()
		return false
	}
	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key)
		return false
	}
	n.lastNotifyTime[key] = now
	bar := n.bar
	n.mu.Unlock()

	err := n.handler.Handle(ctx, input.Event{
		Event: statusbar.Event{
			Type:    typeName,
			Content: content,
			Timeout: timeout,
		},
		Action: input.ActionQueue,
		Bar:    bar,
		Source: NotifySource,
	})
	if err != nil {
		n.logger.Debug("internal notification not queued", "key", key, "error", err)
		return false
	}
	return true
}

// NotifyConfigReloaded reports a successful configuration reload.
func (n *InternalNotifier) NotifyConfigReloaded(ctx context.Context) bool {
	return n.Notify(ctx, "config-reload", severity.TypeMessage, "Configuration reloaded", 5*time.Second)
}

// NotifyConfigError reports a configuration file that could not be applied.
func (n *InternalNotifier) NotifyConfigError(ctx context.Context, err error) bool {
	return n.Notify(ctx, "config-error", severity.TypeWarn, "Failed to reload configuration: "+err.Error(), 0)
}

// NotifyAudioError reports a sound that failed to play.
func (n *InternalNotifier) NotifyAudioError(ctx context.Context, err error) bool {
	return n.Notify(ctx, "audio-error", severity.TypeWarn, "Failed to play notification sound: "+err.Error(), 0)
}
