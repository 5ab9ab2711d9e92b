package shell

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hyprbar/internal/model"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func busNotification(id uint64, summary string) model.Notification {
	return model.Notification{
		ID:            id,
		Origin:        model.OriginBus,
		AppName:       "test",
		Summary:       summary,
		ExpireTimeout: -1,
		Urgency:       model.UrgencyNormal,
	}
}

func TestExpiryPolicy_Resolve(t *testing.T) {
	policy := ExpiryPolicy{Timeout: 3 * time.Second, ActionTimeout: 20 * time.Second}

	tests := []struct {
		name    string
		timeout int32
		actions bool
		want    time.Duration
	}{
		{name: "never", timeout: 0, want: 0},
		{name: "explicit", timeout: 1500, want: 1500 * time.Millisecond},
		{name: "server default", timeout: -1, want: 3 * time.Second},
		{name: "server default with actions", timeout: -1, actions: true, want: 20 * time.Second},
		{name: "explicit wins over actions", timeout: 800, actions: true, want: 800 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := busNotification(1, "x")
			n.ExpireTimeout = tt.timeout
			if tt.actions {
				n.Actions = []model.Action{{Key: "default", Label: "Open"}}
			}
			assert.Equal(t, tt.want, policy.Resolve(&n))
		})
	}
}

func TestExpiryPolicy_FallsBackToModel(t *testing.T) {
	n := busNotification(1, "x")
	assert.Equal(t, model.DefaultTimeout, ExpiryPolicy{}.Resolve(&n))
}

func TestToasts_ShowAndReplace(t *testing.T) {
	toasts := NewToasts(DefaultExpiryPolicy(), 0)

	assert.False(t, toasts.Show(busNotification(1, "first"), epoch))
	assert.False(t, toasts.Show(busNotification(2, "second"), epoch.Add(time.Second)))
	assert.True(t, toasts.Show(busNotification(1, "first v2"), epoch.Add(2*time.Second)))

	require.Equal(t, 2, toasts.Len())
	visible := toasts.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "second", visible[0].Notification.Summary)
	assert.Equal(t, "first v2", visible[1].Notification.Summary, "replacement keeps its slot")

	toast, ok := toasts.Get(1)
	require.True(t, ok)
	assert.Equal(t, epoch.Add(2*time.Second+model.DefaultTimeout), toast.ExpiresAt, "replacement restarts the timer")
}

func TestToasts_VisibleCap(t *testing.T) {
	toasts := NewToasts(DefaultExpiryPolicy(), 2)
	for i := range 4 {
		toasts.Show(busNotification(uint64(i+1), "n"), epoch)
	}
	visible := toasts.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, uint64(4), visible[0].Notification.ID)
	assert.Equal(t, uint64(3), visible[1].Notification.ID)
	assert.Equal(t, 4, toasts.Len())
}

func TestToasts_Expire(t *testing.T) {
	toasts := NewToasts(ExpiryPolicy{Timeout: time.Second, ActionTimeout: 5 * time.Second}, 0)

	toasts.Show(busNotification(1, "short"), epoch)
	withAction := busNotification(2, "action")
	withAction.Actions = []model.Action{{Key: "default"}}
	toasts.Show(withAction, epoch)
	sticky := busNotification(3, "sticky")
	sticky.ExpireTimeout = 0
	toasts.Show(sticky, epoch)

	next, ok := toasts.NextExpiry()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(time.Second), next)

	assert.Empty(t, toasts.Expire(epoch.Add(500*time.Millisecond)))

	cmds := toasts.Expire(epoch.Add(time.Second))
	assert.Equal(t, []model.DaemonCommand{model.ClosedCommand(1, model.CloseReasonExpired)}, cmds)

	cmds = toasts.Expire(epoch.Add(time.Hour))
	assert.Equal(t, []model.DaemonCommand{model.ClosedCommand(2, model.CloseReasonExpired)}, cmds)

	_, ok = toasts.Get(3)
	assert.True(t, ok, "timeout 0 never expires")
	_, ok = toasts.NextExpiry()
	assert.False(t, ok)
}

func TestToasts_DismissAndDrop(t *testing.T) {
	toasts := NewToasts(DefaultExpiryPolicy(), 0)
	toasts.Show(busNotification(7, "a"), epoch)
	toasts.Show(busNotification(8, "b"), epoch)

	cmd, ok := toasts.Dismiss(7)
	require.True(t, ok)
	assert.Equal(t, model.ClosedCommand(7, model.CloseReasonDismissed), cmd)

	_, ok = toasts.Dismiss(7)
	assert.False(t, ok, "second dismissal is a no-op")

	assert.True(t, toasts.Drop(8))
	assert.False(t, toasts.Drop(8))
	assert.Zero(t, toasts.Len())
}

func TestToasts_Invoke(t *testing.T) {
	toasts := NewToasts(DefaultExpiryPolicy(), 0)
	plain := busNotification(1, "plain")
	plain.Actions = []model.Action{{Key: "reply"}}
	resident := busNotification(2, "resident")
	resident.Resident = true
	resident.Actions = []model.Action{{Key: "play"}}
	toasts.Show(plain, epoch)
	toasts.Show(resident, epoch)

	cmd, ok := toasts.Invoke(1, "reply")
	require.True(t, ok)
	assert.Equal(t, model.ActionCommand(1, "reply"), cmd)
	_, ok = toasts.Get(1)
	assert.False(t, ok)

	cmd, ok = toasts.Invoke(2, "play")
	require.True(t, ok)
	assert.Equal(t, model.ActionCommand(2, "play"), cmd)
	_, ok = toasts.Get(2)
	assert.True(t, ok, "resident toast stays up")
}

func TestToasts_InternalProducesNoCommands(t *testing.T) {
	toasts := NewToasts(ExpiryPolicy{Timeout: time.Second}, 0)
	n := model.Notification{
		ID:            model.InternalID("config", "reload"),
		Origin:        model.OriginInternal,
		Summary:       "Configuration reloaded",
		ExpireTimeout: -1,
	}
	toasts.Show(n, epoch)

	assert.Empty(t, toasts.Expire(epoch.Add(time.Minute)))
	assert.Zero(t, toasts.Len())

	toasts.Show(n, epoch)
	_, ok := toasts.Dismiss(n.ID)
	assert.False(t, ok)
	assert.Zero(t, toasts.Len())
}

func TestToastStatus_String(t *testing.T) {
	assert.Equal(t, "active", ToastActive.String())
	assert.Equal(t, "expired", ToastExpired.String())
	assert.Equal(t, "dismissed", ToastDismissed.String())
	assert.Equal(t, "dropped", ToastDropped.String())
	assert.Equal(t, "unknown", ToastStatus(42).String())
}
