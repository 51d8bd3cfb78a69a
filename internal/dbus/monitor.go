package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/statusbar/internal/adapter/input"
)

// Monitor passively observes D-Bus notification traffic without claiming
// ownership. This allows running alongside another notification daemon
// (like dunst). It implements input.Source.
type Monitor struct {
	mapping Mapping
	logger  *slog.Logger
}

// NewMonitor creates a new notification monitor.
func NewMonitor(mapping Mapping, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{mapping: mapping, logger: logger}
}

// Name returns the source identifier.
func (m *Monitor) Name() string {
	return "dbus"
}

// Run observes Notify calls and hands them to h until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, h input.Handler) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return &input.AdapterError{Source: m.Name(), Message: "failed to connect to session bus", Err: err}
	}
	defer func() { _ = conn.Close() }()

	if err := m.subscribe(conn); err != nil {
		return &input.AdapterError{Source: m.Name(), Message: "failed to monitor notifications", Err: err}
	}

	ch := make(chan *dbus.Message, 100)
	conn.Eavesdrop(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			m.handleMessage(ctx, msg, h)
		}
	}
}

// subscribe becomes a monitor, falling back to eavesdropping match rules
// on older buses.
func (m *Monitor) subscribe(conn *dbus.Conn) error {
	rule := fmt.Sprintf("type='method_call',interface='%s',member='Notify'", Interface)

	err := conn.BusObject().Call("org.freedesktop.DBus.Monitoring.BecomeMonitor", 0, []string{rule}, uint32(0)).Err
	if err == nil {
		m.logger.Info("started D-Bus monitor using BecomeMonitor")
		return nil
	}
	m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)

	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule+",eavesdrop='true'").Err; err != nil {
		return fmt.Errorf("failed to add match rule (eavesdrop may require permissions): %w", err)
	}
	m.logger.Info("started D-Bus monitor using AddMatch with eavesdrop")
	return nil
}

// handleMessage turns an observed Notify call into an event.
func (m *Monitor) handleMessage(ctx context.Context, msg *dbus.Message, h input.Handler) {
	if msg.Type != dbus.TypeMethodCall {
		return
	}
	if iface, ok := msg.Headers[dbus.FieldInterface]; !ok || iface.Value() != Interface {
		return
	}
	if member, ok := msg.Headers[dbus.FieldMember]; !ok || member.Value() != "Notify" {
		return
	}

	n, err := ParseNotify(msg.Body)
	if err != nil {
		m.logger.Warn("ignoring notification", "error", err)
		return
	}

	ev, ok := m.mapping.Event(n, m.Name())
	if !ok {
		m.logger.Debug("urgency not mapped, notification dropped", "app", n.AppName, "urgency", n.Urgency())
		return
	}

	m.logger.Debug("captured notification", "app", n.AppName, "summary", n.Summary, "type", ev.Type)
	if err := h.Handle(ctx, ev); err != nil {
		m.logger.Warn("notification rejected", "app", n.AppName, "type", ev.Type, "error", err)
	}
}
