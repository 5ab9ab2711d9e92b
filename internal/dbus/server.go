package dbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/hyprbar/internal/model"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"
)

// ErrAlreadyRunning is returned by Start on a running server.
var ErrAlreadyRunning = errors.New("server already running")

// History is the durable record the server writes through.
type History interface {
	MaxID(ctx context.Context) (uint64, error)
	Save(ctx context.Context, n *model.Notification, replace bool) error
	MarkClosed(ctx context.Context, id uint64, reason model.CloseReason) error
	SetRead(ctx context.Context, ids []uint64, read bool) (int, error)
	Clear(ctx context.Context) (int, error)
}

// Emitter emits bus signals. *dbus.Conn satisfies it.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// EventKind distinguishes UI-bound events.
type EventKind int

const (
	// EventShow asks the UI to show (or replace) a notification.
	EventShow EventKind = iota + 1
	// EventDrop asks the UI to remove a toast without emitting anything back.
	EventDrop
)

// Event is sent from the server to the UI. Show and drop share one channel
// so a drop can never overtake the show it refers to.
type Event struct {
	Kind         EventKind
	Notification model.Notification
	Replaced     bool
	ID           uint32
}

// NotificationServer implements the org.freedesktop.Notifications D-Bus interface.
type NotificationServer struct {
	conn    *dbus.Conn
	emitter Emitter
	history History
	logger  *slog.Logger

	events   chan Event
	commands chan model.DaemonCommand

	// mu guards the identifier counter and the active set.
	mu         sync.Mutex
	nextID     uint32
	seeded     bool
	active     map[uint32]model.Notification
	serverInfo ServerInfo
	running    bool
	stopCh     chan struct{}

	persistTimeout time.Duration
}

// NewNotificationServer creates a server writing through history.
func NewNotificationServer(history History, logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		history:        history,
		logger:         logger,
		events:         make(chan Event, 256),
		commands:       make(chan model.DaemonCommand, 64),
		nextID:         1,
		active:         make(map[uint32]model.Notification),
		serverInfo:     DefaultServerInfo(),
		stopCh:         make(chan struct{}),
		persistTimeout: 2 * time.Second,
	}
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.serverInfo = info
}

// SetEmitter replaces the signal emitter. Start sets it to the bus connection.
func (s *NotificationServer) SetEmitter(e Emitter) {
	s.emitter = e
}

// Events returns the channel of UI-bound events.
func (s *NotificationServer) Events() <-chan Event {
	return s.events
}

// Commands returns the send end of the command relay.
func (s *NotificationServer) Commands() chan<- model.DaemonCommand {
	return s.commands
}

// NextID returns the identifier the next new notification will receive.
func (s *NotificationServer) NextID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// Seed initialises the identifier counter from the largest persisted id.
// It must run before the bus name is requested. If the history cannot be
// read the counter starts at 1 and lives in memory only.
func (s *NotificationServer) Seed(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seeded = true
	s.nextID = 1
	if s.history == nil {
		return
	}

	maxID, err := s.history.MaxID(ctx)
	switch {
	case err != nil:
		s.logger.Warn("failed to read notification id seed, using in-memory sequence", "error", err)
	case maxID >= math.MaxUint32:
		s.logger.Warn("notification id space exhausted, restarting at 1", "max_id", maxID)
	default:
		s.nextID = uint32(maxID) + 1
	}
	s.logger.Debug("notification id counter seeded", "next_id", s.nextID)
}

// Start connects to the session bus, seeds the counter and claims the bus name.
func (s *NotificationServer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.mu.Unlock()

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn
	if s.emitter == nil {
		s.emitter = conn
	}

	s.Seed(ctx)

	// Export the notification server object
	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to export object: %w", err)
	}

	// Export introspection data
	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	// Request the bus name
	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("D-Bus notification server started",
		"interface", DBusInterface, "path", DBusPath, "next_id", s.NextID())
	return nil
}

// Stop releases the bus name and closes the connection.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	close(s.stopCh)
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("failed to close bus connection", "error", err)
		}
	}

	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// GetCapabilities returns the list of capabilities supported by this server.
// D-Bus method: GetCapabilities() -> as
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	s.logger.Debug("GetCapabilities called")
	return ServerCapabilities, nil
}

// GetServerInformation returns information about the notification server.
// D-Bus method: GetServerInformation() -> (ssss)
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	s.logger.Debug("GetServerInformation called")
	return s.serverInfo.Name, s.serverInfo.Vendor, s.serverInfo.Version, s.serverInfo.SpecVersion, nil
}

// Notify handles incoming notification requests.
// D-Bus method: Notify(susssasa{sv}i) -> u
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	req := &DBusNotification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}

	id, err := s.handleNotify(context.Background(), req)
	if err != nil {
		return 0, dbus.MakeFailedError(err)
	}
	return id, nil
}

// handleNotify assigns the identifier, persists, then surfaces.
func (s *NotificationServer) handleNotify(ctx context.Context, req *DBusNotification) (uint32, error) {
	id, replaced := s.assignID(req.ReplacesID, req.AppName, req.StackTag())

	n, err := req.ToModel(id)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Notify called",
		"app_name", req.AppName,
		"replaces_id", req.ReplacesID,
		"summary", req.Summary,
		"id", id,
	)

	// Persist before surfacing. Failure degrades to display-only.
	if s.history != nil {
		pctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
		err := s.history.Save(pctx, n, replaced)
		cancel()
		if err != nil {
			s.logger.Warn("failed to persist notification", "id", id, "error", err)
		}
	}

	s.mu.Lock()
	s.active[id] = *n.Clone()
	s.mu.Unlock()

	if !s.send(Event{Kind: EventShow, Notification: *n, Replaced: replaced, ID: id}) {
		return 0, errors.New("server is shutting down")
	}
	return id, nil
}

// assignID returns the identifier for a request and whether it replaces an
// earlier notification. An unknown replaces_id is honoured and the counter
// moves past it so it is never issued again. Without a replaces_id, a stack
// tag matching a live notification of the same app takes its id.
func (s *NotificationServer) assignID(replacesID uint32, appName, stackTag string) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		s.logger.Warn("notification received before the id counter was seeded")
		s.seeded = true
	}

	if replacesID == 0 && stackTag != "" {
		for id, n := range s.active {
			if n.StackTag == stackTag && n.AppName == appName {
				return id, true
			}
		}
	}

	if replacesID == 0 {
		id := s.nextID
		s.advance(id)
		return id, false
	}

	if replacesID >= s.nextID {
		s.advance(replacesID)
	}
	return replacesID, true
}

// advance moves the counter past id, skipping 0 on wrap.
func (s *NotificationServer) advance(id uint32) {
	s.nextID = id + 1
	if s.nextID == 0 {
		s.nextID = 1
	}
}

// send delivers an event to the UI unless the server is stopping.
func (s *NotificationServer) send(ev Event) bool {
	s.mu.Lock()
	stop := s.stopCh
	s.mu.Unlock()

	select {
	case s.events <- ev:
		return true
	case <-stop:
		return false
	}
}

// CloseNotification closes a notification by ID.
// D-Bus method: CloseNotification(u) -> nothing
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	s.logger.Debug("CloseNotification called", "id", id)

	if !s.IsActive(id) {
		return nil
	}

	s.send(Event{Kind: EventDrop, ID: id})
	s.relay(model.ClosedCommand(id, model.CloseReasonClosed))
	return nil
}

// relay queues a command for the Run goroutine.
func (s *NotificationServer) relay(cmd model.DaemonCommand) {
	s.mu.Lock()
	stop := s.stopCh
	s.mu.Unlock()

	select {
	case s.commands <- cmd:
	case <-stop:
	}
}

// IsActive returns true if the notification ID is currently on screen.
func (s *NotificationServer) IsActive(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	return ok
}

// Run consumes the command relay and emits the matching bus signals. It is
// the only goroutine that writes signals to the connection.
func (s *NotificationServer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-s.commands:
			s.handleCommand(ctx, cmd)
		}
	}
}

func (s *NotificationServer) handleCommand(ctx context.Context, cmd model.DaemonCommand) {
	switch cmd.Kind {
	case model.CommandClosed:
		s.close(ctx, cmd.ID, cmd.Reason)

	case model.CommandActionInvoked:
		if err := s.emitActionInvoked(cmd.ID, cmd.ActionKey); err != nil {
			s.logger.Warn("failed to emit ActionInvoked signal", "id", cmd.ID, "error", err)
		}

		s.mu.Lock()
		n, ok := s.active[cmd.ID]
		s.mu.Unlock()
		// Non-resident notifications are closed after action invocation
		if ok && !n.Resident {
			s.close(ctx, cmd.ID, model.CloseReasonDismissed)
		}

	case model.CommandMarkRead, model.CommandMarkAllRead, model.CommandClearHistory:
		s.editHistory(ctx, cmd)

	default:
		s.logger.Warn("unknown daemon command", "command", cmd.String())
	}
}

// editHistory applies a notification center request to the store.
func (s *NotificationServer) editHistory(ctx context.Context, cmd model.DaemonCommand) {
	if s.history == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	var (
		n   int
		err error
	)
	switch cmd.Kind {
	case model.CommandMarkRead:
		n, err = s.history.SetRead(pctx, []uint64{uint64(cmd.ID)}, true)
	case model.CommandMarkAllRead:
		n, err = s.history.SetRead(pctx, nil, true)
	case model.CommandClearHistory:
		n, err = s.history.Clear(pctx)
	}
	if err != nil {
		s.logger.Warn("failed to update notification history", "command", cmd.String(), "error", err)
		return
	}
	s.logger.Debug("notification history updated", "command", cmd.String(), "rows", n)
}

// close records the close and emits NotificationClosed once per id.
func (s *NotificationServer) close(ctx context.Context, id uint32, reason model.CloseReason) {
	s.mu.Lock()
	n, ok := s.active[id]
	delete(s.active, id)
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("close for inactive notification ignored", "id", id)
		return
	}

	if s.history != nil && n.Persisted {
		pctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
		err := s.history.MarkClosed(pctx, uint64(id), reason)
		cancel()
		if err != nil {
			s.logger.Warn("failed to record notification close", "id", id, "error", err)
		}
	}

	if err := s.emitNotificationClosed(id, reason); err != nil {
		s.logger.Warn("failed to emit NotificationClosed signal", "id", id, "error", err)
	}
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
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}
