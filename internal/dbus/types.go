package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// DBusNotification represents an incoming D-Bus Notify call.
// It contains the raw parameters from the org.freedesktop.Notifications.Notify method.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// ParsedActions converts the D-Bus action array to structured form.
// An odd trailing key is ignored.
func (n *DBusNotification) ParsedActions() []model.Action {
	return model.ActionsFromPairs(n.Actions)
}

// Urgency extracts the urgency hint from the notification.
// Senders disagree on the integer type; anything out of range is normal.
func (n *DBusNotification) Urgency() int {
	v, ok := n.Hints["urgency"]
	if !ok {
		return model.UrgencyNormal
	}

	var u int64 = -1
	switch val := v.Value().(type) {
	case byte:
		u = int64(val)
	case int32:
		u = int64(val)
	case uint32:
		u = int64(val)
	case int64:
		u = val
	case int16:
		u = int64(val)
	case uint16:
		u = int64(val)
	}
	if u < model.UrgencyLow || u > model.UrgencyCritical {
		return model.UrgencyNormal
	}
	return int(u)
}

func (n *DBusNotification) stringHint(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func (n *DBusNotification) boolHint(key string) bool {
	if v, ok := n.Hints[key]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Category extracts the category hint from the notification.
func (n *DBusNotification) Category() string {
	return n.stringHint("category")
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	return n.stringHint("desktop-entry")
}

// Transient returns true if the transient hint is set.
// Transient notifications are shown but never persisted.
func (n *DBusNotification) Transient() bool {
	return n.boolHint("transient")
}

// Resident returns true if the resident hint is set.
// Resident notifications are not closed when an action is invoked.
func (n *DBusNotification) Resident() bool {
	return n.boolHint("resident")
}

// ImagePath extracts the image-path hint, falling back to the deprecated
// image_path spelling.
func (n *DBusNotification) ImagePath() string {
	if p := n.stringHint("image-path"); p != "" {
		return p
	}
	return n.stringHint("image_path")
}

// Progress extracts the progress value hint, clamped to 0-100.
// Returns model.NoProgress if not present.
func (n *DBusNotification) Progress() int {
	v, ok := n.Hints["value"]
	if !ok {
		return model.NoProgress
	}
	var p int
	switch val := v.Value().(type) {
	case int32:
		p = int(val)
	case uint32:
		p = int(min(val, 100))
	case int:
		p = val
	case byte:
		p = int(val)
	default:
		return model.NoProgress
	}
	return max(0, min(p, 100))
}

// StackTag extracts the stack-tag hint for notification grouping.
func (n *DBusNotification) StackTag() string {
	if s := n.stringHint("x-dunst-stack-tag"); s != "" {
		return s
	}
	return n.stringHint("stack-tag")
}

// ToModel converts the request into a notification carrying id.
// The icon falls back to the image-path hint.
func (n *DBusNotification) ToModel(id uint32) (*model.Notification, error) {
	m, err := model.NewNotification(model.OriginBus)
	if err != nil {
		return nil, err
	}

	icon := n.AppIcon
	if icon == "" {
		icon = n.ImagePath()
	}

	m.ID = uint64(id)
	m.AppName = n.AppName
	m.AppIcon = icon
	m.Summary = n.Summary
	m.Body = n.Body
	m.ExpireTimeout = n.ExpireTimeout
	m.Urgency = n.Urgency()
	m.Category = n.Category()
	m.DesktopEntry = n.DesktopEntry()
	m.Transient = n.Transient()
	m.Resident = n.Resident()
	m.Progress = n.Progress()
	m.StackTag = n.StackTag()
	m.Actions = n.ParsedActions()
	m.CreatedAt = time.Now().Unix()
	return m, nil
}

// ServerCapabilities lists the capabilities advertised by hyprbar.
var ServerCapabilities = []string{
	"actions",     // Support notification actions
	"body",        // Support body text
	"body-markup", // Support Pango markup in body
	"persistence", // Persist notifications to history
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string // "hyprbar"
	Vendor      string // "jmylchreest"
	Version     string // Build version
	SpecVersion string // "1.2"
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "hyprbar",
		Vendor:      "jmylchreest",
		Version:     "dev", // Replaced by the build version
		SpecVersion: "1.2",
	}
}
