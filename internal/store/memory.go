package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jmylchreest/hyprbar/internal/model"
)

// MemoryPersistence keeps notifications in process memory only.
// It backs the daemon when the database cannot be opened.
type MemoryPersistence struct {
	rows      map[uint64]model.Notification
	highWater uint64 // largest id ever deleted
	closed    bool
}

// NewMemoryPersistence creates an empty in-memory store.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{rows: make(map[uint64]model.Notification)}
}

// MaxID implements Persistence.
func (m *MemoryPersistence) MaxID(context.Context) (uint64, error) {
	max := m.highWater
	for id := range m.rows {
		if id > max {
			max = id
		}
	}
	return max, nil
}

// Insert implements Persistence.
func (m *MemoryPersistence) Insert(_ context.Context, n model.Notification) error {
	if m.closed {
		return ErrStoreClosed
	}
	if model.IsInternalID(n.ID) {
		return ErrInternalID
	}
	m.rows[n.ID] = *n.Clone()
	return nil
}

// Replace implements Persistence.
func (m *MemoryPersistence) Replace(_ context.Context, n model.Notification) (bool, error) {
	if m.closed {
		return false, ErrStoreClosed
	}
	existing, ok := m.rows[n.ID]
	if !ok {
		return false, nil
	}
	updated := *n.Clone()
	updated.UID = existing.UID
	updated.CreatedAt = existing.CreatedAt
	updated.ClosedAt = 0
	updated.CloseReason = 0
	updated.Read = false
	m.rows[n.ID] = updated
	return true, nil
}

// Get implements Persistence.
func (m *MemoryPersistence) Get(_ context.Context, id uint64) (model.Notification, error) {
	n, ok := m.rows[id]
	if !ok {
		return model.Notification{}, ErrNotFound
	}
	return *n.Clone(), nil
}

// MarkClosed implements Persistence.
func (m *MemoryPersistence) MarkClosed(_ context.Context, id uint64, reason model.CloseReason, at time.Time) error {
	n, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	n.MarkClosed(reason, at)
	m.rows[id] = n
	return nil
}

// SetRead implements Persistence.
func (m *MemoryPersistence) SetRead(_ context.Context, ids []uint64, read bool) (int, error) {
	count := 0
	apply := func(id uint64) {
		if n, ok := m.rows[id]; ok {
			n.Read = read
			m.rows[id] = n
			count++
		}
	}
	if len(ids) == 0 {
		for id := range m.rows {
			apply(id)
		}
		return count, nil
	}
	for _, id := range ids {
		apply(id)
	}
	return count, nil
}

// List implements Persistence.
func (m *MemoryPersistence) List(_ context.Context, opts FilterOptions) ([]model.Notification, error) {
	var cutoff int64
	if opts.Since > 0 {
		cutoff = time.Now().Add(-opts.Since).Unix()
	}
	query := strings.ToLower(opts.Query)

	result := make([]model.Notification, 0, len(m.rows))
	for _, n := range m.rows {
		switch {
		case cutoff > 0 && n.CreatedAt < cutoff:
			continue
		case opts.App != "" && n.AppName != opts.App:
			continue
		case opts.Urgency != nil && n.Urgency != *opts.Urgency:
			continue
		case opts.Unread && n.Read:
			continue
		case opts.OpenOnly && n.IsClosed():
			continue
		case query != "" &&
			!strings.Contains(strings.ToLower(n.Summary), query) &&
			!strings.Contains(strings.ToLower(n.Body), query):
			continue
		}
		result = append(result, *n.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CreatedAt != b.CreatedAt {
			return (a.CreatedAt < b.CreatedAt) == opts.Ascending
		}
		return (a.ID < b.ID) == opts.Ascending
	})

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// Delete implements Persistence.
func (m *MemoryPersistence) Delete(ctx context.Context, ids []uint64) (int, error) {
	m.highWater, _ = m.MaxID(ctx)
	count := 0
	for _, id := range ids {
		if _, ok := m.rows[id]; ok {
			delete(m.rows, id)
			count++
		}
	}
	return count, nil
}

// Prune implements Persistence.
func (m *MemoryPersistence) Prune(ctx context.Context, cutoff time.Time, keep int) (int, error) {
	maxID, _ := m.MaxID(ctx)
	removed := 0
	if !cutoff.IsZero() {
		for id, n := range m.rows {
			if id != maxID && n.CreatedAt < cutoff.Unix() {
				delete(m.rows, id)
				removed++
			}
		}
	}
	if keep > 0 && len(m.rows) > keep {
		all, _ := m.List(ctx, FilterOptions{})
		for _, n := range all[keep:] {
			if n.ID != maxID {
				delete(m.rows, n.ID)
				removed++
			}
		}
	}
	return removed, nil
}

// UnreadCount implements Persistence.
func (m *MemoryPersistence) UnreadCount(context.Context) (int, error) {
	count := 0
	for _, n := range m.rows {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// Close implements Persistence.
func (m *MemoryPersistence) Close() error {
	m.closed = true
	return nil
}
