// Package store provides durable notification history for the shell.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// ChangeType indicates the type of store change.
type ChangeType int

const (
	// ChangeTypeAdd indicates a notification was added.
	ChangeTypeAdd ChangeType = iota
	// ChangeTypeReplace indicates a notification was replaced in place.
	ChangeTypeReplace
	// ChangeTypeClose indicates a notification was closed.
	ChangeTypeClose
	// ChangeTypeRead indicates read flags changed.
	ChangeTypeRead
	// ChangeTypeDelete indicates notifications were deleted or pruned.
	ChangeTypeDelete
	// ChangeTypeExternal indicates another process modified the database.
	ChangeTypeExternal
)

// ChangeEvent signals store content changes.
type ChangeEvent struct {
	Type  ChangeType
	ID    uint64
	Count int
}

// Store serializes access to a Persistence and fans change events out to
// subscribers. Every persistence call runs under the store mutex.
type Store struct {
	mu          sync.Mutex
	persistence Persistence
	logger      *slog.Logger
	degraded    bool

	subscribers []chan ChangeEvent
	closed      bool
}

// NewStore creates a Store over the given persistence.
func NewStore(persistence Persistence, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if persistence == nil {
		persistence = NewMemoryPersistence()
	}
	_, degraded := persistence.(*MemoryPersistence)
	return &Store{
		persistence: persistence,
		logger:      logger,
		degraded:    degraded,
		subscribers: make([]chan ChangeEvent, 0),
	}
}

// Open opens the SQLite database at path. If the database cannot be opened
// the store falls back to memory and reports Degraded.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := OpenSQLite(path)
	if err != nil {
		logger.Error("failed to open notification database, history will not survive restart",
			"path", path, "error", err)
		return NewStore(NewMemoryPersistence(), logger)
	}
	logger.Info("notification database opened", "path", path)
	return NewStore(p, logger)
}

// Degraded reports whether the store is running without durable storage.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// MaxID returns the largest persisted identifier.
func (s *Store) MaxID(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return s.persistence.MaxID(ctx)
}

// Save writes a notification. When replace is set the existing row is updated
// in place, falling back to an insert if the row is unknown. Internal and
// transient notifications are skipped. On success n.Persisted is set.
func (s *Store) Save(ctx context.Context, n *model.Notification, replace bool) error {
	if n.Origin == model.OriginInternal || n.Transient {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	change := ChangeEvent{Type: ChangeTypeAdd, ID: n.ID, Count: 1}
	if replace {
		ok, err := s.persistence.Replace(ctx, *n)
		if err != nil {
			return err
		}
		if ok {
			n.Persisted = true
			change.Type = ChangeTypeReplace
			s.notifyChange(change)
			return nil
		}
	}

	if err := s.persistence.Insert(ctx, *n); err != nil {
		return err
	}
	n.Persisted = true
	s.notifyChange(change)
	return nil
}

// Get returns a notification by ID.
func (s *Store) Get(ctx context.Context, id uint64) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.Notification{}, ErrStoreClosed
	}
	return s.persistence.Get(ctx, id)
}

// MarkClosed records that a notification left the screen.
func (s *Store) MarkClosed(ctx context.Context, id uint64, reason model.CloseReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if err := s.persistence.MarkClosed(ctx, id, reason, time.Now()); err != nil {
		return err
	}
	s.notifyChange(ChangeEvent{Type: ChangeTypeClose, ID: id, Count: 1})
	return nil
}

// SetRead updates the read flag on the given IDs, or on every row when ids is empty.
func (s *Store) SetRead(ctx context.Context, ids []uint64, read bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	n, err := s.persistence.SetRead(ctx, ids, read)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.notifyChange(ChangeEvent{Type: ChangeTypeRead, Count: n})
	}
	return n, nil
}

// List returns a snapshot of notifications matching opts.
func (s *Store) List(ctx context.Context, opts FilterOptions) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.persistence.List(ctx, opts)
}

// Delete removes notifications by ID.
func (s *Store) Delete(ctx context.Context, ids ...uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	n, err := s.persistence.Delete(ctx, ids)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.notifyChange(ChangeEvent{Type: ChangeTypeDelete, Count: n})
	}
	return n, nil
}

// Clear removes every notification. The identifier high-water mark survives.
func (s *Store) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	rows, err := s.persistence.List(ctx, FilterOptions{})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	ids := make([]uint64, len(rows))
	for i, n := range rows {
		ids[i] = n.ID
	}
	n, err := s.persistence.Delete(ctx, ids)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.notifyChange(ChangeEvent{Type: ChangeTypeDelete, Count: n})
	}
	return n, nil
}

// Prune removes notifications older than maxAge and trims to keep rows.
// Zero values disable the respective rule.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration, keep int) (int, error) {
	var cutoff time.Time
	if maxAge > 0 {
		cutoff = time.Now().Add(-maxAge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	n, err := s.persistence.Prune(ctx, cutoff, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune: %w", err)
	}
	if n > 0 {
		s.notifyChange(ChangeEvent{Type: ChangeTypeDelete, Count: n})
	}
	return n, nil
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return s.persistence.UnreadCount(ctx)
}

// Subscribe returns a channel that receives change events.
func (s *Store) Subscribe() <-chan ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ChangeEvent, 16)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(ch <-chan ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// NotifyExternalChange tells subscribers that another process wrote to the database.
func (s *Store) NotifyExternalChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyChange(ChangeEvent{Type: ChangeTypeExternal})
}

// Close releases resources and closes all subscriber channels.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil

	return s.persistence.Close()
}

// notifyChange sends a change event to all subscribers (non-blocking).
func (s *Store) notifyChange(event ChangeEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}
