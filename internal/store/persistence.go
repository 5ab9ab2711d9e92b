package store

import (
	"context"
	"time"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// Persistence defines durable notification storage.
// Implementations are not required to be safe for concurrent use; Store
// serializes every call.
type Persistence interface {
	// MaxID returns the largest bus-assigned identifier ever stored, deleted
	// rows included, or 0.
	MaxID(ctx context.Context) (uint64, error)

	// Insert adds a new row. The row's ID must be unused.
	Insert(ctx context.Context, n model.Notification) error

	// Replace overwrites the content of an existing row in place.
	// It reports false when no row with that ID exists.
	Replace(ctx context.Context, n model.Notification) (bool, error)

	// Get returns a single row or ErrNotFound.
	Get(ctx context.Context, id uint64) (model.Notification, error)

	// MarkClosed records the close reason, timestamp and read rule.
	MarkClosed(ctx context.Context, id uint64, reason model.CloseReason, at time.Time) error

	// SetRead updates the read flag. An empty ids slice applies to every row.
	SetRead(ctx context.Context, ids []uint64, read bool) (int, error)

	// List returns rows matching the filter.
	List(ctx context.Context, opts FilterOptions) ([]model.Notification, error)

	// Delete removes rows by ID.
	Delete(ctx context.Context, ids []uint64) (int, error)

	// Prune removes rows created before cutoff, then trims to the newest keep
	// rows when keep > 0.
	Prune(ctx context.Context, cutoff time.Time, keep int) (int, error)

	// UnreadCount returns the number of unread rows.
	UnreadCount(ctx context.Context) (int, error)

	// Close releases the underlying handle.
	Close() error
}

// FilterOptions specifies criteria for listing notifications.
type FilterOptions struct {
	Since     time.Duration // Only rows newer than now-since (0=all)
	App       string        // Exact match on app name
	Query     string        // Case-insensitive substring of summary or body
	Urgency   *int          // Filter by urgency level (nil=any)
	Unread    bool          // Only unread rows
	OpenOnly  bool          // Only rows that were never closed
	Limit     int           // Maximum results (0=unlimited)
	Ascending bool          // Oldest first (default newest first)
}

// Errors
var (
	ErrStoreClosed = storeError("store is closed")
	ErrNotFound    = storeError("notification not found")
	ErrInternalID  = storeError("internal notifications are not persisted")
)

type storeError string

func (e storeError) Error() string {
	return string(e)
}
