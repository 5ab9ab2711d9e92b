package shell

import (
	"sort"
	"time"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// ToastStatus is the display status of a toast.
type ToastStatus int

const (
	// ToastActive means the toast is on screen.
	ToastActive ToastStatus = iota
	// ToastExpired means the toast timed out.
	ToastExpired
	// ToastDismissed means the user dismissed the toast or invoked an action.
	ToastDismissed
	// ToastDropped means the daemon withdrew the toast.
	ToastDropped
)

// String returns the string representation of ToastStatus.
func (s ToastStatus) String() string {
	switch s {
	case ToastActive:
		return "active"
	case ToastExpired:
		return "expired"
	case ToastDismissed:
		return "dismissed"
	case ToastDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Toast is a notification on screen.
type Toast struct {
	Notification model.Notification
	Status       ToastStatus
	ShownAt      time.Time
	ExpiresAt    time.Time // zero = never
}

// Expired reports whether the toast is due at now.
func (t *Toast) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// ExpiryPolicy resolves how long a toast stays on screen.
type ExpiryPolicy struct {
	Timeout       time.Duration // sender asked for the server default
	ActionTimeout time.Duration // same, but the notification has actions
}

// DefaultExpiryPolicy mirrors the notification model defaults.
func DefaultExpiryPolicy() ExpiryPolicy {
	return ExpiryPolicy{
		Timeout:       model.DefaultTimeout,
		ActionTimeout: model.DefaultActionTimeout,
	}
}

// Resolve returns the display duration of n, or 0 for never.
func (p ExpiryPolicy) Resolve(n *model.Notification) time.Duration {
	switch {
	case n.ExpireTimeout == 0:
		return 0
	case n.ExpireTimeout > 0:
		return time.Duration(n.ExpireTimeout) * time.Millisecond
	case n.HasActions() && p.ActionTimeout > 0:
		return p.ActionTimeout
	case p.Timeout > 0:
		return p.Timeout
	default:
		return n.Timeout()
	}
}

// Toasts tracks the notifications currently on screen, keyed by ID.
// Bus and internal notifications share the map; their IDs never collide.
type Toasts struct {
	policy     ExpiryPolicy
	maxVisible int
	byID       map[uint64]*Toast
	seq        map[uint64]uint64
	next       uint64
}

// NewToasts creates an empty toast set. maxVisible <= 0 shows everything.
func NewToasts(policy ExpiryPolicy, maxVisible int) *Toasts {
	return &Toasts{
		policy:     policy,
		maxVisible: maxVisible,
		byID:       make(map[uint64]*Toast),
		seq:        make(map[uint64]uint64),
	}
}

// SetPolicy changes the expiry policy for toasts shown afterwards.
func (t *Toasts) SetPolicy(policy ExpiryPolicy, maxVisible int) {
	t.policy = policy
	t.maxVisible = maxVisible
}

// Show adds n, or replaces the toast with the same ID in place. A replaced
// toast keeps its position and restarts its timer.
func (t *Toasts) Show(n model.Notification, now time.Time) (replaced bool) {
	toast := &Toast{Notification: n, Status: ToastActive, ShownAt: now}
	if d := t.policy.Resolve(&n); d > 0 {
		toast.ExpiresAt = now.Add(d)
	}

	if _, ok := t.byID[n.ID]; ok {
		t.byID[n.ID] = toast
		return true
	}
	t.next++
	t.byID[n.ID] = toast
	t.seq[n.ID] = t.next
	return false
}

// Get returns the toast with id.
func (t *Toasts) Get(id uint64) (*Toast, bool) {
	toast, ok := t.byID[id]
	return toast, ok
}

// Len returns the number of toasts, visible or not.
func (t *Toasts) Len() int {
	return len(t.byID)
}

// Drop removes a toast without producing a command. It is used when the
// daemon itself closed the notification.
func (t *Toasts) Drop(id uint64) bool {
	toast, ok := t.byID[id]
	if !ok {
		return false
	}
	toast.Status = ToastDropped
	t.remove(id)
	return true
}

// Dismiss removes a toast on user request and returns the command to relay.
// ok is false when there is nothing to tell the daemon.
func (t *Toasts) Dismiss(id uint64) (model.DaemonCommand, bool) {
	return t.close(id, ToastDismissed, model.CloseReasonDismissed)
}

// Invoke activates an action. The toast stays up for resident notifications;
// the daemon closes everything else after emitting ActionInvoked.
func (t *Toasts) Invoke(id uint64, key string) (model.DaemonCommand, bool) {
	toast, ok := t.byID[id]
	if !ok {
		return model.DaemonCommand{}, false
	}
	if !toast.Notification.Resident {
		toast.Status = ToastDismissed
		t.remove(id)
	}
	busID, ok := toast.Notification.BusID()
	if !ok {
		return model.DaemonCommand{}, false
	}
	return model.ActionCommand(busID, key), true
}

// Expire removes every toast due at now and returns the Closed commands
// for the bus notifications among them, oldest first.
func (t *Toasts) Expire(now time.Time) []model.DaemonCommand {
	var due []uint64
	for id, toast := range t.byID {
		if toast.Expired(now) {
			due = append(due, id)
		}
	}
	sort.Slice(due, func(i, j int) bool { return t.seq[due[i]] < t.seq[due[j]] })

	var cmds []model.DaemonCommand
	for _, id := range due {
		if cmd, ok := t.close(id, ToastExpired, model.CloseReasonExpired); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// NextExpiry returns the earliest expiry among the toasts.
func (t *Toasts) NextExpiry() (time.Time, bool) {
	var next time.Time
	for _, toast := range t.byID {
		if toast.ExpiresAt.IsZero() {
			continue
		}
		if next.IsZero() || toast.ExpiresAt.Before(next) {
			next = toast.ExpiresAt
		}
	}
	return next, !next.IsZero()
}

// Visible returns the toasts to render, newest first, capped at maxVisible.
func (t *Toasts) Visible() []*Toast {
	all := make([]uint64, 0, len(t.byID))
	for id := range t.byID {
		all = append(all, id)
	}
	sort.Slice(all, func(i, j int) bool { return t.seq[all[i]] > t.seq[all[j]] })
	if t.maxVisible > 0 && len(all) > t.maxVisible {
		all = all[:t.maxVisible]
	}

	out := make([]*Toast, len(all))
	for i, id := range all {
		out[i] = t.byID[id]
	}
	return out
}

func (t *Toasts) close(id uint64, status ToastStatus, reason model.CloseReason) (model.DaemonCommand, bool) {
	toast, ok := t.byID[id]
	if !ok {
		return model.DaemonCommand{}, false
	}
	toast.Status = status
	t.remove(id)

	busID, ok := toast.Notification.BusID()
	if !ok {
		return model.DaemonCommand{}, false
	}
	return model.ClosedCommand(busID, reason), true
}

func (t *Toasts) remove(id uint64) {
	delete(t.byID, id)
	delete(t.seq, id)
}
