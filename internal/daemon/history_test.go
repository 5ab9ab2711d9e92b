package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/poll"
	"github.com/jmylchreest/hyprbar/internal/store"
)

func saveHistory(t *testing.T, st *store.Store, id uint64, summary string) {
	t.Helper()
	n, err := model.NewNotification(model.OriginBus)
	require.NoError(t, err)
	n.ID = id
	n.Summary = summary
	require.NoError(t, st.Save(context.Background(), n, false))
}

func nextSnapshot(t *testing.T, out <-chan poll.Reading[HistorySnapshot]) poll.Reading[HistorySnapshot] {
	t.Helper()
	select {
	case r := <-out:
		return r
	case <-time.After(time.Second):
		t.Fatal("no history snapshot")
		return poll.Reading[HistorySnapshot]{}
	}
}

func TestHistoryFeedFollowsStore(t *testing.T) {
	st := store.NewStore(store.NewMemoryPersistence(), nil)
	defer st.Close()
	saveHistory(t, st, 1, "old")

	out := make(chan poll.Reading[HistorySnapshot], 8)
	w := NewHistoryFeed(st, 2, nil).Worker(out)
	assert.Equal(t, "history", w.Name())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	first := nextSnapshot(t, out)
	require.True(t, first.Known)
	assert.Equal(t, 1, first.Value.Unread)
	require.Len(t, first.Value.Recent, 1)

	saveHistory(t, st, 2, "middle")
	saveHistory(t, st, 3, "new")

	// Change events coalesce, so skip reads that saw only one row.
	r := nextSnapshot(t, out)
	for r.Value.Unread != 3 {
		r = nextSnapshot(t, out)
	}

	_, err := st.SetRead(context.Background(), nil, true)
	require.NoError(t, err)
	r = nextSnapshot(t, out)
	for r.Value.Unread != 0 {
		r = nextSnapshot(t, out)
	}
	require.Len(t, r.Value.Recent, 2, "limited to the newest rows")
	assert.Equal(t, "new", r.Value.Recent[0].Summary)
	assert.Equal(t, "middle", r.Value.Recent[1].Summary)
}

func TestHistoryFeedClosedStore(t *testing.T) {
	st := store.NewStore(store.NewMemoryPersistence(), nil)
	require.NoError(t, st.Close())

	r := NewHistoryFeed(st, 5, nil).poller.Once(context.Background())
	assert.False(t, r.Known)
	assert.ErrorIs(t, r.Err, store.ErrStoreClosed)
}

func TestHistorySnapshotLabel(t *testing.T) {
	assert.Equal(t, "", HistorySnapshot{}.Label())
	assert.Equal(t, "notification-symbolic", HistorySnapshot{}.Icon())
	assert.Equal(t, "7", HistorySnapshot{Unread: 7}.Label())
	assert.Equal(t, "notification-new-symbolic", HistorySnapshot{Unread: 7}.Icon())
	assert.Equal(t, "99+", HistorySnapshot{Unread: 250}.Label())
}
