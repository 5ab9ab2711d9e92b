package model

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved by the freedesktop specification.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// CommandKind selects what the daemon does with a DaemonCommand.
type CommandKind int

const (
	CommandClosed CommandKind = iota + 1
	CommandActionInvoked
	// History commands change stored rows and emit no signal.
	CommandMarkRead
	CommandMarkAllRead
	CommandClearHistory
)

// DaemonCommand is sent by the UI to the notification daemon. Closed and
// action commands become bus signals; history commands are applied to the
// store by the daemon, which is the only writer.
type DaemonCommand struct {
	Kind      CommandKind
	ID        uint32
	Reason    CloseReason
	ActionKey string
}

// ClosedCommand builds a "closed" command.
func ClosedCommand(id uint32, reason CloseReason) DaemonCommand {
	return DaemonCommand{Kind: CommandClosed, ID: id, Reason: reason}
}

// ActionCommand builds an "action invoked" command.
func ActionCommand(id uint32, actionKey string) DaemonCommand {
	return DaemonCommand{Kind: CommandActionInvoked, ID: id, ActionKey: actionKey}
}

// MarkReadCommand builds a command marking one history row read.
func MarkReadCommand(id uint32) DaemonCommand {
	return DaemonCommand{Kind: CommandMarkRead, ID: id}
}

// MarkAllReadCommand builds a command marking every history row read.
func MarkAllReadCommand() DaemonCommand {
	return DaemonCommand{Kind: CommandMarkAllRead}
}

// ClearHistoryCommand builds a command deleting every history row.
func ClearHistoryCommand() DaemonCommand {
	return DaemonCommand{Kind: CommandClearHistory}
}

func (c DaemonCommand) String() string {
	switch c.Kind {
	case CommandClosed:
		return fmt.Sprintf("closed(id=%d, reason=%s)", c.ID, c.Reason)
	case CommandActionInvoked:
		return fmt.Sprintf("action(id=%d, key=%q)", c.ID, c.ActionKey)
	case CommandMarkRead:
		return fmt.Sprintf("mark-read(id=%d)", c.ID)
	case CommandMarkAllRead:
		return "mark-all-read"
	case CommandClearHistory:
		return "clear-history"
	default:
		return fmt.Sprintf("invalid(id=%d)", c.ID)
	}
}

// InternalIDBit marks identifiers that never came from the bus counter.
const InternalIDBit uint64 = 1 << 63

// InternalID derives a stable identifier for a shell-originated notification
// from an event key and a suffix, e.g. a calendar event id and "5min".
// The result always has InternalIDBit set, so it cannot collide with a bus id.
func InternalID(key, suffix string) uint64 {
	return InternalIDBit | xxhash.Sum64String(key+"\x00"+suffix)
}

// IsInternalID reports whether id belongs to the internal identifier space.
func IsInternalID(id uint64) bool {
	return id&InternalIDBit != 0
}
