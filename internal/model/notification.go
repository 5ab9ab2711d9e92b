// Package model defines the core data structures shared by the shell, the
// notification daemon and the CLI.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Urgency levels matching freedesktop spec.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// UrgencyNames maps urgency levels to human-readable names.
var UrgencyNames = map[int]string{
	UrgencyLow:      "low",
	UrgencyNormal:   "normal",
	UrgencyCritical: "critical",
}

// NoProgress marks a notification without a progress hint.
const NoProgress = -1

// Default expiry applied when a sender asks for the server default (-1).
const (
	DefaultTimeout       = 5 * time.Second
	DefaultActionTimeout = 15 * time.Second
)

// Origin identifies where a notification came from.
type Origin int

const (
	// OriginBus is a notification received over org.freedesktop.Notifications.
	OriginBus Origin = iota
	// OriginInternal is a notification raised by the shell itself (calendar, config errors).
	OriginInternal
)

// String returns the origin name.
func (o Origin) String() string {
	switch o {
	case OriginBus:
		return "bus"
	case OriginInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Notification represents a single notification record.
// Bus-assigned IDs fit in 32 bits; internal IDs live above InternalIDBit.
type Notification struct {
	ID     uint64 `json:"id"`
	UID    string `json:"uid"`
	Origin Origin `json:"origin"`

	// Freedesktop standard fields
	AppName       string `json:"app_name"`
	AppIcon       string `json:"app_icon,omitempty"`
	Summary       string `json:"summary"`
	Body          string `json:"body,omitempty"`
	ExpireTimeout int32  `json:"expire_timeout"`

	// Hints
	Urgency      int    `json:"urgency"`
	Category     string `json:"category,omitempty"`
	DesktopEntry string `json:"desktop_entry,omitempty"`
	Transient    bool   `json:"transient,omitempty"`
	Resident     bool   `json:"resident,omitempty"`
	Progress     int    `json:"progress"`            // 0-100, NoProgress when absent
	StackTag     string `json:"stack_tag,omitempty"` // Replaces a live notification with the same tag

	Actions []Action `json:"actions,omitempty"`

	// Lifecycle
	CreatedAt   int64       `json:"created_at"`
	ClosedAt    int64       `json:"closed_at,omitempty"`
	CloseReason CloseReason `json:"close_reason,omitempty"`
	Read        bool        `json:"read"`

	// Persisted is true once the record reached durable storage.
	Persisted bool `json:"-" yaml:"-"`
}

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Validation errors.
var (
	ErrEmptyUID         = errors.New("uid cannot be empty")
	ErrZeroID           = errors.New("id cannot be zero")
	ErrInvalidUrgency   = errors.New("urgency must be 0, 1, or 2")
	ErrInvalidTimestamp = errors.New("created_at must be greater than 0")
)

// NewNotification creates a new Notification with a generated ULID and creation time.
func NewNotification(origin Origin) (*Notification, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	return &Notification{
		UID:       id.String(),
		Origin:    origin,
		Urgency:   UrgencyNormal,
		Progress:  NoProgress,
		CreatedAt: time.Now().Unix(),
	}, nil
}

// HasProgress reports whether the notification carries a progress value.
func (n *Notification) HasProgress() bool {
	return n.Progress >= 0
}

// Validate checks that the notification has all required fields.
func (n *Notification) Validate() error {
	if n.UID == "" {
		return ErrEmptyUID
	}
	if n.ID == 0 {
		return ErrZeroID
	}
	if n.Urgency < 0 || n.Urgency > 2 {
		return ErrInvalidUrgency
	}
	if n.CreatedAt <= 0 {
		return ErrInvalidTimestamp
	}
	return nil
}

// SetUrgency sets the urgency level, clamping unknown values to normal.
func (n *Notification) SetUrgency(level int) {
	if level < 0 || level > 2 {
		level = UrgencyNormal
	}
	n.Urgency = level
}

// UrgencyName returns the human-readable urgency.
func (n *Notification) UrgencyName() string {
	if name, ok := UrgencyNames[n.Urgency]; ok {
		return name
	}
	return UrgencyNames[UrgencyNormal]
}

// BusID returns the 32-bit bus identifier. ok is false for internal notifications.
func (n *Notification) BusID() (uint32, bool) {
	if n.Origin != OriginBus || n.ID > uint64(^uint32(0)) {
		return 0, false
	}
	return uint32(n.ID), true
}

// HasActions reports whether the sender attached any actions.
func (n *Notification) HasActions() bool {
	return len(n.Actions) > 0
}

// DefaultAction returns the "default" action key if present, otherwise the first.
func (n *Notification) DefaultAction() (string, bool) {
	if len(n.Actions) == 0 {
		return "", false
	}
	for _, a := range n.Actions {
		if a.Key == "default" {
			return a.Key, true
		}
	}
	return n.Actions[0].Key, true
}

// Timeout resolves the expire_timeout policy.
// -1 (or any negative) selects the server default, 0 never expires.
func (n *Notification) Timeout() time.Duration {
	switch {
	case n.ExpireTimeout == 0:
		return 0
	case n.ExpireTimeout > 0:
		return time.Duration(n.ExpireTimeout) * time.Millisecond
	case n.HasActions():
		return DefaultActionTimeout
	default:
		return DefaultTimeout
	}
}

// IsClosed returns true once the notification left the screen.
func (n *Notification) IsClosed() bool {
	return n.ClosedAt > 0
}

// MarkClosed records the close reason and applies the read rules:
// dismissals and explicit closes mark the notification read, expiry only
// does so when there was nothing to act on.
func (n *Notification) MarkClosed(reason CloseReason, at time.Time) {
	n.ClosedAt = at.Unix()
	n.CloseReason = reason
	switch reason {
	case CloseReasonDismissed, CloseReasonClosed:
		n.Read = true
	case CloseReasonExpired:
		n.Read = !n.HasActions()
	}
}

// CreatedTime returns the creation timestamp as a time.Time.
func (n *Notification) CreatedTime() time.Time {
	return time.Unix(n.CreatedAt, 0)
}

// RelativeTime returns a compact relative time string.
// Examples: "just now", "5m ago", "2h ago", "1d ago".
func (n *Notification) RelativeTime() string {
	diff := time.Now().Unix() - n.CreatedAt

	switch {
	case diff < 0:
		return "in the future"
	case diff < 60:
		return "just now"
	case diff < 3600:
		return fmt.Sprintf("%dm ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%dh ago", diff/3600)
	default:
		return fmt.Sprintf("%dd ago", diff/86400)
	}
}

// BodyTruncated returns the body collapsed to one line and cut to maxLen characters.
func (n *Notification) BodyTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	body := []rune(strings.Join(strings.Fields(n.Body), " "))
	if len(body) <= maxLen {
		return string(body)
	}
	if maxLen <= 3 {
		return string(body[:maxLen])
	}
	return string(body[:maxLen-3]) + "..."
}

// Clone creates a deep copy of the notification.
func (n *Notification) Clone() *Notification {
	clone := *n
	if n.Actions != nil {
		clone.Actions = append([]Action(nil), n.Actions...)
	}
	return &clone
}

// ActionsFromPairs converts the alternating key/label list used on the bus.
// A trailing key without a label is dropped; an empty label falls back to the
// key, or "Open" for the default action.
func ActionsFromPairs(pairs []string) []Action {
	actions := make([]Action, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, label := pairs[i], pairs[i+1]
		if label == "" {
			label = key
			if key == "default" {
				label = "Open"
			}
		}
		actions = append(actions, Action{Key: key, Label: label})
	}
	return actions
}
