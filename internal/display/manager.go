package display

import (
	"log/slog"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/hyprbar/internal/config"
	"github.com/jmylchreest/hyprbar/internal/shell"
)

// Manager keeps one popup window per visible toast. Windows exist only for
// toasts inside the visible cap; the rest wait in shell.Toasts without any
// GTK objects.
type Manager struct {
	app    *gtk.Application
	state  *shell.State
	config config.NotificationConfig
	logger *slog.Logger

	popups map[uint64]*Popup

	// monitor picks the output for a new popup; nil lets the compositor choose.
	monitor   func() *gdk.Monitor
	onChanged func()
}

// NewManager creates a toast manager over state.
func NewManager(app *gtk.Application, state *shell.State, cfg config.NotificationConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		app:     app,
		state:   state,
		config:  cfg,
		logger:  logger,
		popups:  make(map[uint64]*Popup),
		monitor: func() *gdk.Monitor { return nil },
	}
}

// Sync brings the popup windows in line with the visible toasts: new toasts
// get a window, replaced ones are redrawn in place, gone ones are destroyed
// and the stack is re-placed.
func (m *Manager) Sync() {
	visible := m.state.Toasts.Visible()
	keep := make(map[uint64]bool, len(visible))

	for i, t := range visible {
		id := t.Notification.ID
		keep[id] = true

		p, ok := m.popups[id]
		switch {
		case !ok:
			p = NewPopup(m.app, t, m.config.Width, m.monitor())
			p.onDismiss = m.dismiss
			p.onAction = m.invoke
			m.popups[id] = p
			p.Place(shell.StackPlacement(m.config, i))
			p.Show()
			m.logger.Debug("showed toast", "id", id, "position", i)
			continue
		case !p.shownAt.Equal(t.ShownAt):
			p.Update(t)
			m.logger.Debug("replaced toast", "id", id)
		}
		p.Place(shell.StackPlacement(m.config, i))
	}

	for id, p := range m.popups {
		if keep[id] {
			continue
		}
		p.Close()
		delete(m.popups, id)
		m.logger.Debug("closed toast", "id", id)
	}
}

// UpdateConfig applies new notification settings and re-places the stack.
func (m *Manager) UpdateConfig(cfg config.NotificationConfig) {
	m.config = cfg
	m.Sync()
}

// ActiveCount returns the number of toast windows.
func (m *Manager) ActiveCount() int {
	return len(m.popups)
}

// CloseAll destroys every window without touching the toasts.
func (m *Manager) CloseAll() {
	for id, p := range m.popups {
		p.Close()
		delete(m.popups, id)
	}
}

func (m *Manager) dismiss(id uint64) {
	m.state.Dismiss(id)
	m.changed()
}

func (m *Manager) invoke(id uint64, key string) {
	m.state.Invoke(id, key)
	m.changed()
}

func (m *Manager) changed() {
	if m.onChanged != nil {
		m.onChanged()
	}
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
