package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/poll"
	"github.com/jmylchreest/hyprbar/internal/source"
	"github.com/jmylchreest/hyprbar/internal/store"
)

// HistoryInterval is how often the feed re-reads without a change event, so
// relative timestamps in the notification center stay fresh.
const HistoryInterval = time.Minute

// HistoryReader is the read side of the store the feed needs.
type HistoryReader interface {
	List(ctx context.Context, opts store.FilterOptions) ([]model.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	Subscribe() <-chan store.ChangeEvent
	Unsubscribe(ch <-chan store.ChangeEvent)
}

// HistorySnapshot is what the bar's notification center renders.
type HistorySnapshot struct {
	Unread int
	Recent []model.Notification // newest first
}

// Label is the unread badge, empty when everything is read.
func (s HistorySnapshot) Label() string {
	if s.Unread == 0 {
		return ""
	}
	if s.Unread > 99 {
		return "99+"
	}
	return strconv.Itoa(s.Unread)
}

func (s HistorySnapshot) Icon() string {
	if s.Unread > 0 {
		return "notification-new-symbolic"
	}
	return "notification-symbolic"
}

// HistoryFeed reads store snapshots for the UI. It re-reads whenever the
// store reports a change, including writes by hyprbarctl picked up by the
// store's file watcher.
type HistoryFeed struct {
	store  HistoryReader
	limit  int
	poller *poll.Poller[HistorySnapshot]
}

// NewHistoryFeed creates a feed listing up to limit recent rows.
func NewHistoryFeed(st HistoryReader, limit int, logger *slog.Logger) *HistoryFeed {
	f := &HistoryFeed{store: st, limit: limit}
	f.poller = poll.New("history", HistoryInterval, f.Read, logger)
	f.poller.Timeout = 2 * time.Second
	return f
}

// Read takes one snapshot.
func (f *HistoryFeed) Read(ctx context.Context) (HistorySnapshot, error) {
	unread, err := f.store.UnreadCount(ctx)
	if err != nil {
		return HistorySnapshot{}, fmt.Errorf("failed to count unread: %w", err)
	}
	recent, err := f.store.List(ctx, store.FilterOptions{Limit: f.limit})
	if err != nil {
		return HistorySnapshot{}, fmt.Errorf("failed to list history: %w", err)
	}
	return HistorySnapshot{Unread: unread, Recent: recent}, nil
}

// Worker binds the feed to its output channel.
func (f *HistoryFeed) Worker(out chan<- poll.Reading[HistorySnapshot]) source.Worker {
	return source.Func(f.poller.Name, func(ctx context.Context) error {
		changes := f.store.Subscribe()
		defer f.store.Unsubscribe(changes)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return f.poller.Run(ctx, out) })
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case _, ok := <-changes:
					if !ok {
						// Store closed; the interval keeps reporting the failure.
						return nil
					}
					f.poller.Refresh()
				}
			}
		})
		return g.Wait()
	})
}
