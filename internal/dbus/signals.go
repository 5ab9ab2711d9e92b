package dbus

import (
	"fmt"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// emitNotificationClosed emits the NotificationClosed signal.
// Only Run calls it.
func (s *NotificationServer) emitNotificationClosed(id uint32, reason model.CloseReason) error {
	if s.emitter == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.emitter.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason))
	if err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}

	s.logger.Debug("emitted NotificationClosed signal", "id", id, "reason", reason.String())
	return nil
}

// emitActionInvoked emits the ActionInvoked signal.
func (s *NotificationServer) emitActionInvoked(id uint32, actionKey string) error {
	if s.emitter == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.emitter.Emit(DBusPath, DBusInterface+".ActionInvoked", id, actionKey)
	if err != nil {
		return fmt.Errorf("failed to emit ActionInvoked signal: %w", err)
	}

	s.logger.Debug("emitted ActionInvoked signal", "id", id, "action_key", actionKey)
	return nil
}
