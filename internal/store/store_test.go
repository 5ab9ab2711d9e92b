package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends runs a test against both persistence implementations.
func backends(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		p, err := OpenSQLite(filepath.Join(t.TempDir(), DatabaseFile))
		require.NoError(t, err)
		s := NewStore(p, nil)
		defer s.Close()
		fn(t, s)
	})

	t.Run("memory", func(t *testing.T) {
		s := NewStore(NewMemoryPersistence(), nil)
		defer s.Close()
		fn(t, s)
	})
}

func testNotification(id uint64, summary string) *model.Notification {
	return &model.Notification{
		ID:            id,
		UID:           "uid-" + summary,
		Origin:        model.OriginBus,
		AppName:       "test-app",
		Summary:       summary,
		Body:          "body of " + summary,
		Urgency:       model.UrgencyNormal,
		ExpireTimeout: -1,
		CreatedAt:     time.Now().Unix(),
	}
}

func TestStore_MaxIDEmpty(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		max, err := s.MaxID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(0), max)
	})
}

func TestStore_SaveAndGet(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		n := testNotification(1, "hello")
		n.Actions = []model.Action{{Key: "default", Label: "Open"}, {Key: "reply", Label: "Reply"}}

		require.NoError(t, s.Save(ctx, n, false))
		assert.True(t, n.Persisted)

		got, err := s.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Summary)
		assert.Equal(t, "uid-hello", got.UID)
		assert.Equal(t, n.Actions, got.Actions)
		assert.Equal(t, int32(-1), got.ExpireTimeout)

		_, err = s.Get(ctx, 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_MaxIDAfterRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DatabaseFile)

	p, err := OpenSQLite(path)
	require.NoError(t, err)
	s := NewStore(p, nil)
	for _, id := range []uint64{3, 57, 12} {
		require.NoError(t, s.Save(ctx, testNotification(id, "n"), false))
	}
	require.NoError(t, s.Close())

	p, err = OpenSQLite(path)
	require.NoError(t, err)
	s = NewStore(p, nil)
	defer s.Close()

	max, err := s.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(57), max)
}

func TestStore_ReplaceInPlace(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, testNotification(7, "original"), false))
		require.NoError(t, s.MarkClosed(ctx, 7, model.CloseReasonDismissed))

		replacement := testNotification(7, "updated")
		replacement.UID = "uid-other"
		require.NoError(t, s.Save(ctx, replacement, true))

		all, err := s.List(ctx, FilterOptions{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, uint64(7), all[0].ID)
		assert.Equal(t, "updated", all[0].Summary)
		assert.Equal(t, "uid-original", all[0].UID, "replacement keeps the original row identity")
		assert.False(t, all[0].IsClosed(), "replacement is shown again")
		assert.False(t, all[0].Read)
	})
}

func TestStore_ProgressRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		n := testNotification(1, "download")
		n.Progress = 30
		require.NoError(t, s.Save(ctx, n, false))

		n.Progress = 90
		require.NoError(t, s.Save(ctx, n, true))

		got, err := s.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 90, got.Progress)

		plain := testNotification(2, "plain")
		plain.Progress = model.NoProgress
		require.NoError(t, s.Save(ctx, plain, false))
		got, err = s.Get(ctx, 2)
		require.NoError(t, err)
		assert.False(t, got.HasProgress())
	})
}

func TestStore_ReplaceUnknownInserts(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, testNotification(42, "fresh"), true))

		got, err := s.Get(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "fresh", got.Summary)
	})
}

func TestStore_SkipsInternalAndTransient(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		internal := testNotification(model.InternalID("event", "5min"), "reminder")
		internal.Origin = model.OriginInternal
		require.NoError(t, s.Save(ctx, internal, false))
		assert.False(t, internal.Persisted)

		transient := testNotification(3, "volume")
		transient.Transient = true
		require.NoError(t, s.Save(ctx, transient, false))
		assert.False(t, transient.Persisted)

		all, err := s.List(ctx, FilterOptions{})
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestStore_InternalIDRejectedByPersistence(t *testing.T) {
	p := NewMemoryPersistence()
	err := p.Insert(context.Background(), *testNotification(model.InternalID("k", ""), "x"))
	assert.ErrorIs(t, err, ErrInternalID)
}

func TestStore_MarkClosedReadRules(t *testing.T) {
	tests := []struct {
		name       string
		reason     model.CloseReason
		hasActions bool
		wantRead   bool
	}{
		{"dismissed", model.CloseReasonDismissed, true, true},
		{"closed by call", model.CloseReasonClosed, true, true},
		{"expired without actions", model.CloseReasonExpired, false, true},
		{"expired with actions", model.CloseReasonExpired, true, false},
		{"undefined", model.CloseReasonUndefined, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends(t, func(t *testing.T, s *Store) {
				ctx := context.Background()
				n := testNotification(1, "n")
				if tt.hasActions {
					n.Actions = []model.Action{{Key: "default", Label: "Open"}}
				}
				require.NoError(t, s.Save(ctx, n, false))
				require.NoError(t, s.MarkClosed(ctx, 1, tt.reason))

				got, err := s.Get(ctx, 1)
				require.NoError(t, err)
				assert.Equal(t, tt.wantRead, got.Read)
				assert.Equal(t, tt.reason, got.CloseReason)
				assert.True(t, got.IsClosed())
			})
		})
	}
}

func TestStore_MarkClosedUnknown(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		err := s.MarkClosed(context.Background(), 404, model.CloseReasonExpired)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_ListFilters(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		now := time.Now().Unix()

		old := testNotification(1, "old build")
		old.CreatedAt = now - 7200
		old.AppName = "ci"
		mid := testNotification(2, "deploy done")
		mid.CreatedAt = now - 60
		mid.AppName = "ci"
		mid.Urgency = model.UrgencyCritical
		fresh := testNotification(3, "chat message")
		fresh.CreatedAt = now

		for _, n := range []*model.Notification{old, mid, fresh} {
			require.NoError(t, s.Save(ctx, n, false))
		}
		_, err := s.SetRead(ctx, []uint64{3}, true)
		require.NoError(t, err)

		critical := model.UrgencyCritical
		tests := []struct {
			name string
			opts FilterOptions
			want []uint64
		}{
			{"all newest first", FilterOptions{}, []uint64{3, 2, 1}},
			{"ascending", FilterOptions{Ascending: true}, []uint64{1, 2, 3}},
			{"since", FilterOptions{Since: time.Hour}, []uint64{3, 2}},
			{"app", FilterOptions{App: "ci"}, []uint64{2, 1}},
			{"query", FilterOptions{Query: "BUILD"}, []uint64{1}},
			{"urgency", FilterOptions{Urgency: &critical}, []uint64{2}},
			{"unread", FilterOptions{Unread: true}, []uint64{2, 1}},
			{"limit", FilterOptions{Limit: 1}, []uint64{3}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.List(ctx, tt.opts)
				require.NoError(t, err)
				ids := make([]uint64, 0, len(got))
				for _, n := range got {
					ids = append(ids, n.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})
}

func TestStore_SetReadAndUnreadCount(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		for id := uint64(1); id <= 3; id++ {
			require.NoError(t, s.Save(ctx, testNotification(id, "n"), false))
		}

		count, err := s.UnreadCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		n, err := s.SetRead(ctx, []uint64{1, 2, 99}, true)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		count, err = s.UnreadCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		_, err = s.SetRead(ctx, nil, false)
		require.NoError(t, err)
		count, err = s.UnreadCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestStore_Delete(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		for id := uint64(1); id <= 3; id++ {
			require.NoError(t, s.Save(ctx, testNotification(id, "n"), false))
		}

		n, err := s.Delete(ctx, 1, 3, 8)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		all, err := s.List(ctx, FilterOptions{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, uint64(2), all[0].ID)
	})
}

func TestStore_Clear(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sub := s.Subscribe()
		for id := uint64(1); id <= 4; id++ {
			require.NoError(t, s.Save(ctx, testNotification(id, "n"), false))
		}
		for range 4 {
			<-sub
		}

		n, err := s.Clear(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		ev := <-sub
		assert.Equal(t, ChangeTypeDelete, ev.Type)

		all, err := s.List(ctx, FilterOptions{})
		require.NoError(t, err)
		assert.Empty(t, all)

		max, err := s.MaxID(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), max)

		n, err = s.Clear(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestStore_DeleteNewestKeepsSeed(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		for id := uint64(1); id <= 3; id++ {
			require.NoError(t, s.Save(ctx, testNotification(id, "n"), false))
		}

		n, err := s.Delete(ctx, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		max, err := s.MaxID(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), max)
	})
}

func TestStore_DeleteNewestSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DatabaseFile)

	p, err := OpenSQLite(path)
	require.NoError(t, err)
	s := NewStore(p, nil)
	for id := uint64(1); id <= 3; id++ {
		require.NoError(t, s.Save(ctx, testNotification(id, "n"), false))
	}
	_, err = s.Delete(ctx, 3)
	require.NoError(t, err)
	_, err = s.Delete(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	p, err = OpenSQLite(path)
	require.NoError(t, err)
	s = NewStore(p, nil)
	defer s.Close()

	max, err := s.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), max)

	all, err := s.List(ctx, FilterOptions{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uint64(1), all[0].ID)
}

func TestStore_PruneKeepsMaxID(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		old := time.Now().Add(-48 * time.Hour).Unix()
		for id := uint64(1); id <= 5; id++ {
			n := testNotification(id, "n")
			n.CreatedAt = old
			require.NoError(t, s.Save(ctx, n, false))
		}

		removed, err := s.Prune(ctx, 24*time.Hour, 0)
		require.NoError(t, err)
		assert.Equal(t, 4, removed)

		max, err := s.MaxID(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), max, "prune must keep the identifier seed")
	})
}

func TestStore_PruneKeepCount(t *testing.T) {
	backends(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		now := time.Now().Unix()
		for id := uint64(1); id <= 5; id++ {
			n := testNotification(id, "n")
			n.CreatedAt = now - int64(10-id)
			require.NoError(t, s.Save(ctx, n, false))
		}

		removed, err := s.Prune(ctx, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, removed)

		all, err := s.List(ctx, FilterOptions{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, uint64(5), all[0].ID)
		assert.Equal(t, uint64(4), all[1].ID)
	})
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore(NewMemoryPersistence(), nil)
	defer s.Close()
	ctx := context.Background()

	ch := s.Subscribe()
	require.NoError(t, s.Save(ctx, testNotification(1, "n"), false))

	select {
	case ev := <-ch:
		assert.Equal(t, ChangeTypeAdd, ev.Type)
		assert.Equal(t, uint64(1), ev.ID)
	case <-time.After(time.Second):
		t.Fatal("expected change event")
	}

	require.NoError(t, s.Save(ctx, testNotification(1, "n2"), true))
	ev := <-ch
	assert.Equal(t, ChangeTypeReplace, ev.Type)

	s.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestStore_Closed(t *testing.T) {
	s := NewStore(NewMemoryPersistence(), nil)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.MaxID(context.Background())
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, s.Save(context.Background(), testNotification(1, "n"), false), ErrStoreClosed)
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	// A regular file where the data directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := Open(filepath.Join(blocker, "sub", DatabaseFile), nil)
	defer s.Close()

	assert.True(t, s.Degraded())
	require.NoError(t, s.Save(context.Background(), testNotification(1, "n"), false))
	max, err := s.MaxID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), max)
}

func TestOpen_SQLite(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "nested", DatabaseFile), nil)
	defer s.Close()
	assert.False(t, s.Degraded())
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	assert.Equal(t, "/xdg/data/hyprbar", DataDir())
	assert.Equal(t, "/xdg/data/hyprbar/notifications.db", DBPath())
}
