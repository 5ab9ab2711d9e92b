package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// InternalAppName is the app name shown on shell-originated notifications.
const InternalAppName = "hyprbar"

// InternalNotifier raises notifications from the shell itself. They never
// touch the bus or the id counter: ids come from model.InternalID and the
// notifications go straight to the UI channel. Repeats of the same key within
// the minimum interval are dropped.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	out    chan model.Notification

	// Rate limiting
	lastNotifyTime map[uint64]time.Time
	minInterval    time.Duration
	now            func() time.Time

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		out:            make(chan model.Notification, 32),
		lastNotifyTime: make(map[uint64]time.Time),
		minInterval:    5 * time.Second,
		now:            time.Now,
		enabled:        true,
	}
}

// Events returns the channel the UI drains.
func (n *InternalNotifier) Events() <-chan model.Notification {
	return n.out
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends an internal notification keyed only by key.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) (uint64, bool) {
	return n.NotifyEvent(key, "", summary, body, level)
}

// NotifyEvent sends a notification for an external event, such as a calendar
// reminder, identified by eventKey and suffix ("5min", "start"). The same
// pair always yields the same id, so a repeat replaces the earlier toast.
// It reports the id and whether the notification was queued.
func (n *InternalNotifier) NotifyEvent(eventKey, suffix, summary, body string, level NotificationLevel) (uint64, bool) {
	id := model.InternalID(eventKey, suffix)

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return id, false
	}

	now := n.now()
	if last, ok := n.lastNotifyTime[id]; ok && now.Sub(last) < n.minInterval {
		n.logger.Debug("internal notification rate-limited", "key", eventKey, "suffix", suffix, "summary", summary)
		return id, false
	}

	notification, err := model.NewNotification(model.OriginInternal)
	if err != nil {
		n.logger.Warn("failed to create internal notification", "error", err)
		return id, false
	}
	notification.ID = id
	notification.AppName = InternalAppName
	notification.Summary = summary
	notification.Body = body
	notification.ExpireTimeout = 5000
	notification.CreatedAt = now.Unix()

	switch level {
	case NotificationLevelInfo:
		notification.Urgency = model.UrgencyLow
		notification.AppIcon = "dialog-information"
	case NotificationLevelWarning:
		notification.Urgency = model.UrgencyNormal
		notification.AppIcon = "dialog-warning"
	case NotificationLevelError:
		notification.Urgency = model.UrgencyCritical
		notification.AppIcon = "dialog-error"
	}

	select {
	case n.out <- *notification:
	default:
		n.logger.Warn("internal notification dropped, UI is not draining", "key", eventKey)
		return id, false
	}
	n.lastNotifyTime[id] = now

	n.logger.Debug("sent internal notification", "key", eventKey, "suffix", suffix, "summary", summary, "level", level)
	return id, true
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"hyprbar configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyThemeError sends a notification about a style sheet that failed to load.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify(
		"theme-error",
		"Theme Error",
		"Failed to load style: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyHistoryDegraded tells the user history will not survive a restart.
func (n *InternalNotifier) NotifyHistoryDegraded(path string) {
	n.Notify(
		"history-degraded",
		"Notification History Unavailable",
		"Could not open "+path+"; notifications are kept in memory only.",
		NotificationLevelError,
	)
}

// NotifyBusUnavailable reports that another daemon owns the notification bus name.
func (n *InternalNotifier) NotifyBusUnavailable(err error) {
	n.Notify(
		"bus-unavailable",
		"Notification Daemon Disabled",
		err.Error(),
		NotificationLevelWarning,
	)
}
