package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// Client sends notifications to whichever server owns the bus name and
// observes the signals it emits. hyprbarctl uses it.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// SendOptions carries the optional Notify parameters.
type SendOptions struct {
	AppIcon       string
	ReplacesID    uint32
	Actions       []model.Action
	Urgency       int
	Category      string
	Transient     bool
	ExpireTimeout int32
}

// Result is the outcome of a sent notification.
type Result struct {
	Closed    bool
	Reason    model.CloseReason
	ActionKey string
}

// Dial connects to the session bus.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn, obj: conn.Object(DBusBusName, DBusPath)}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ServerInformation queries the running server.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.obj.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("failed to get server information: %w", err)
	}
	return info, nil
}

// Send delivers a notification and returns the assigned id.
func (c *Client) Send(ctx context.Context, appName, summary, body string, opts SendOptions) (uint32, error) {
	actions := make([]string, 0, len(opts.Actions)*2)
	for _, a := range opts.Actions {
		actions = append(actions, a.Key, a.Label)
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(opts.Urgency)),
	}
	if opts.Category != "" {
		hints["category"] = dbus.MakeVariant(opts.Category)
	}
	if opts.Transient {
		hints["transient"] = dbus.MakeVariant(true)
	}

	var id uint32
	err := c.obj.CallWithContext(ctx, DBusInterface+".Notify", 0,
		appName, opts.ReplacesID, opts.AppIcon, summary, body, actions, hints, opts.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}
	return id, nil
}

// CloseNotification asks the server to close id.
func (c *Client) CloseNotification(ctx context.Context, id uint32) error {
	if err := c.obj.CallWithContext(ctx, DBusInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("failed to close notification %d: %w", id, err)
	}
	return nil
}

// Subscribe starts listening for the server's signals. Call it before Send
// so no signal is missed; the returned function stops the subscription.
func (c *Client) Subscribe() (<-chan *dbus.Signal, func(), error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(DBusPath),
		dbus.WithMatchInterface(DBusInterface),
	}
	if err := c.conn.AddMatchSignal(opts...); err != nil {
		return nil, nil, fmt.Errorf("failed to add signal match: %w", err)
	}

	ch := make(chan *dbus.Signal, 16)
	c.conn.Signal(ch)
	stop := func() {
		c.conn.RemoveSignal(ch)
		_ = c.conn.RemoveMatchSignal(opts...)
	}
	return ch, stop, nil
}

// Wait blocks until id is closed or ctx ends. An invoked action is recorded
// and waiting continues until the close arrives, as the server closes
// non-resident notifications after an action.
func Wait(ctx context.Context, signals <-chan *dbus.Signal, id uint32) (Result, error) {
	var res Result
	for {
		select {
		case <-ctx.Done():
			if res.ActionKey != "" {
				return res, nil
			}
			return res, ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return res, fmt.Errorf("signal channel closed")
			}
			if done := res.apply(sig, id); done {
				return res, nil
			}
		}
	}
}

// apply folds one signal into the result and reports whether id is closed.
func (r *Result) apply(sig *dbus.Signal, id uint32) bool {
	if len(sig.Body) < 2 {
		return false
	}
	sigID, ok := sig.Body[0].(uint32)
	if !ok || sigID != id {
		return false
	}

	switch sig.Name {
	case DBusInterface + ".ActionInvoked":
		if key, ok := sig.Body[1].(string); ok {
			r.ActionKey = key
		}
	case DBusInterface + ".NotificationClosed":
		if reason, ok := sig.Body[1].(uint32); ok {
			r.Reason = model.CloseReason(reason)
		}
		r.Closed = true
		return true
	}
	return false
}
