package dbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/statusbar/internal/adapter/input"
	"github.com/jmylchreest/statusbar/internal/message"
)

// Queuer queues an event and returns the resulting message.
type Queuer interface {
	Queue(ctx context.Context, ev input.Event) (*message.Message, error)
}

// Server implements the org.freedesktop.Notifications D-Bus interface. Each
// Notify call queues a message; when the message completes the server
// emits NotificationClosed with the matching reason.
type Server struct {
	conn    *dbus.Conn
	queuer  Queuer
	mapping Mapping
	logger  *slog.Logger
	info    ServerInfo

	nextID atomic.Uint32

	mu       sync.Mutex
	messages map[uint32]*message.Message // Active notifications by D-Bus ID

	// emit sends NotificationClosed; replaced in tests.
	emit func(id uint32, reason CloseReason) error
}

// NewServer creates a notification server that queues through q.
func NewServer(q Queuer, mapping Mapping, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		queuer:   q,
		mapping:  mapping,
		logger:   logger,
		info:     DefaultServerInfo(),
		messages: make(map[uint32]*message.Message),
	}
	s.emit = s.emitNotificationClosed
	return s
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *Server) SetServerInfo(info ServerInfo) {
	s.info = info
}

// Start connects to the session bus, exports the interface and claims the
// bus name.
func (s *Server) Start() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: Path,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.logger.Info("D-Bus notification server started", "interface", Interface, "path", Path)
	return nil
}

// Stop releases the bus name.
func (s *Server) Stop() {
	if s.conn == nil {
		return
	}
	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	// The shared session connection stays open.
	s.logger.Info("D-Bus notification server stopped")
}

// GetCapabilities returns the list of capabilities supported by this server.
// D-Bus method: GetCapabilities() -> as
func (s *Server) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

// GetServerInformation returns information about the notification server.
// D-Bus method: GetServerInformation() -> (ssss)
func (s *Server) GetServerInformation() (string, string, string, string, *dbus.Error) {
	return s.info.Name, s.info.Vendor, s.info.Version, s.info.SpecVersion, nil
}

// Notify queues a notification.
// D-Bus method: Notify(susssasa{sv}i) -> u
func (s *Server) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	n := &Notification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}

	id := replacesID
	if id == 0 {
		id = s.nextID.Add(1)
	} else {
		s.withdraw(id, sourceReplaced)
	}

	s.logger.Debug("Notify called", "app_name", appName, "replaces_id", replacesID, "summary", summary, "id", id)

	ev, ok := s.mapping.Event(n, "dbus")
	if !ok {
		s.logger.Debug("urgency not mapped, notification dropped", "id", id, "urgency", n.Urgency())
		s.signalClosed(id, CloseReasonUndefined)
		return id, nil
	}

	msg, err := s.queuer.Queue(context.Background(), ev)
	if err != nil {
		s.logger.Warn("notification rejected", "id", id, "type", ev.Type, "error", err)
		return 0, dbus.MakeFailedError(err)
	}

	s.mu.Lock()
	s.messages[id] = msg
	s.mu.Unlock()

	msg.Completion().OnSettled(func(r message.Result) {
		s.mu.Lock()
		current, ok := s.messages[id]
		if ok && current == msg {
			delete(s.messages, id)
		}
		s.mu.Unlock()
		// A replaced notification keeps its id, so it is not reported closed.
		if ok && current == msg && r.Source != sourceReplaced {
			s.signalClosed(id, CloseReasonFor(r.Reason))
		}
	})

	return id, nil
}

// CloseNotification withdraws a notification by ID.
// D-Bus method: CloseNotification(u) -> nothing
func (s *Server) CloseNotification(id uint32) *dbus.Error {
	s.logger.Debug("CloseNotification called", "id", id)
	s.withdraw(id, "dbus")
	return nil
}

// sourceReplaced is the withdraw source used for replaces_id.
const sourceReplaced = "replaced"

// withdraw closes the message behind id; its completion emits the signal.
func (s *Server) withdraw(id uint32, source string) {
	s.mu.Lock()
	msg, ok := s.messages[id]
	s.mu.Unlock()
	if ok {
		msg.Withdraw(source)
	}
}

func (s *Server) signalClosed(id uint32, reason CloseReason) {
	if err := s.emit(id, reason); err != nil {
		s.logger.Warn("failed to emit NotificationClosed signal", "id", id, "error", err)
	}
}

// errNotConnected is returned when emitting without a bus connection.
var errNotConnected = errors.New("not connected to D-Bus")

// emitNotificationClosed emits the NotificationClosed signal.
func (s *Server) emitNotificationClosed(id uint32, reason CloseReason) error {
	if s.conn == nil {
		return errNotConnected
	}
	if err := s.conn.Emit(Path, Interface+".NotificationClosed", id, uint32(reason)); err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}
	s.logger.Debug("emitted NotificationClosed signal", "id", id, "reason", reason.String())
	return nil
}

// notificationMethods returns the D-Bus method introspection data.
func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

// notificationSignals returns the D-Bus signal introspection data.
func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
	}
}
