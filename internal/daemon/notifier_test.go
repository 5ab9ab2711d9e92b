package daemon

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hyprbar/internal/model"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestNotifier() (*InternalNotifier, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	n := NewInternalNotifier(nil)
	n.now = clock.now
	return n, clock
}

func receive(t *testing.T, n *InternalNotifier) model.Notification {
	t.Helper()
	select {
	case got := <-n.Events():
		return got
	default:
		t.Fatal("expected a queued notification")
		return model.Notification{}
	}
}

func TestNotifyEventIDs(t *testing.T) {
	n, _ := newTestNotifier()

	id, ok := n.NotifyEvent("standup", "5min", "Standup", "in 5 minutes", NotificationLevelInfo)
	require.True(t, ok)
	assert.Equal(t, model.InternalID("standup", "5min"), id)
	assert.True(t, model.IsInternalID(id))

	got := receive(t, n)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, model.OriginInternal, got.Origin)
	assert.Equal(t, InternalAppName, got.AppName)
	assert.Equal(t, model.UrgencyLow, got.Urgency)
	assert.NotEmpty(t, got.UID)
	_, isBus := got.BusID()
	assert.False(t, isBus)
}

func TestNotifyEventRateLimit(t *testing.T) {
	n, clock := newTestNotifier()

	_, ok := n.NotifyEvent("standup", "5min", "Standup", "", NotificationLevelInfo)
	require.True(t, ok)
	receive(t, n)

	clock.advance(time.Second)
	_, ok = n.NotifyEvent("standup", "5min", "Standup", "", NotificationLevelInfo)
	assert.False(t, ok, "same key within the interval is dropped")

	_, ok = n.NotifyEvent("standup", "start", "Standup", "now", NotificationLevelInfo)
	assert.True(t, ok, "a different suffix is a different key")
	receive(t, n)

	clock.advance(5 * time.Second)
	_, ok = n.NotifyEvent("standup", "5min", "Standup", "", NotificationLevelInfo)
	assert.True(t, ok)
}

func TestNotifyLevels(t *testing.T) {
	tests := []struct {
		level   NotificationLevel
		urgency int
		icon    string
	}{
		{NotificationLevelInfo, model.UrgencyLow, "dialog-information"},
		{NotificationLevelWarning, model.UrgencyNormal, "dialog-warning"},
		{NotificationLevelError, model.UrgencyCritical, "dialog-error"},
	}

	for _, tt := range tests {
		t.Run(tt.icon, func(t *testing.T) {
			n, _ := newTestNotifier()
			_, ok := n.Notify("k", "s", "b", tt.level)
			require.True(t, ok)
			got := receive(t, n)
			assert.Equal(t, tt.urgency, got.Urgency)
			assert.Equal(t, tt.icon, got.AppIcon)
		})
	}
}

func TestNotifyDisabled(t *testing.T) {
	n, _ := newTestNotifier()
	n.SetEnabled(false)

	n.NotifyConfigError(errors.New("bad"))
	select {
	case got := <-n.Events():
		t.Fatalf("unexpected notification %+v", got)
	default:
	}
}

func TestNotifyFullChannelDoesNotBlock(t *testing.T) {
	n, _ := newTestNotifier()
	n.SetMinInterval(0)

	for i := range cap(n.out) {
		_, ok := n.NotifyEvent("flood", strconv.Itoa(i), "s", "", NotificationLevelInfo)
		require.True(t, ok)
	}

	_, ok := n.Notify("one-more", "s", "", NotificationLevelInfo)
	assert.False(t, ok)

	// The dropped key is not rate limited, so it can be retried once there is room.
	<-n.Events()
	_, ok = n.Notify("one-more", "s", "", NotificationLevelInfo)
	assert.True(t, ok)
}
