// Package dbus implements the org.freedesktop.Notifications D-Bus interface.
//
// NotificationServer assigns identifiers (seeded from the history store so
// they keep increasing across restarts), persists every notification before
// handing it to the UI, and relays UI commands back onto the bus as
// NotificationClosed and ActionInvoked signals. Only the goroutine running
// Server.Run emits signals on the connection.
package dbus
