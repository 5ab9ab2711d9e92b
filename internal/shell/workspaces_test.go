package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hyprbar/internal/hyprland"
)

func seeded() *Workspaces {
	w := NewWorkspaces()
	w.Reset(
		[]hyprland.Monitor{
			{Name: "eDP-1", Focused: true, ActiveWorkspace: hyprland.WorkspaceRef{ID: 1}},
			{Name: "DP-1", ActiveWorkspace: hyprland.WorkspaceRef{ID: 4}},
			{Name: "HDMI-A-1", Disabled: true},
		},
		[]hyprland.Workspace{
			{ID: 2, Name: "2", Monitor: "eDP-1"},
			{ID: 1, Name: "1", Monitor: "eDP-1"},
			{ID: 4, Name: "4", Monitor: "DP-1"},
			{ID: -98, Name: "special:scratch", Monitor: "eDP-1"},
		},
		hyprland.Window{Class: "kitty", Title: "zsh"},
	)
	return w
}

func ids(ws []Workspace) []int {
	out := make([]int, len(ws))
	for i, w := range ws {
		out[i] = w.ID
	}
	return out
}

func TestWorkspaces_Reset(t *testing.T) {
	w := seeded()

	assert.Equal(t, []string{"DP-1", "eDP-1"}, w.Monitors())
	assert.Equal(t, "eDP-1", w.Focused())
	assert.Equal(t, []int{1, 2}, ids(w.On("eDP-1")), "sorted, special workspaces hidden")
	assert.Equal(t, []int{4}, ids(w.On("DP-1")))

	active, ok := w.Active("DP-1")
	require.True(t, ok)
	assert.Equal(t, 4, active)
	assert.Equal(t, "kitty", w.WindowClass)
}

func TestWorkspaces_Apply(t *testing.T) {
	w := seeded()

	w.Apply(hyprland.Event{Kind: hyprland.WorkspaceCreated, WorkspaceID: 3, WorkspaceName: "3", Monitor: "eDP-1"})
	w.Apply(hyprland.Event{Kind: hyprland.WorkspaceChanged, WorkspaceID: 3, WorkspaceName: "3", Monitor: "eDP-1"})
	active, _ := w.Active("eDP-1")
	assert.Equal(t, 3, active)
	assert.Equal(t, []int{1, 2, 3}, ids(w.On("eDP-1")))

	w.Apply(hyprland.Event{Kind: hyprland.WorkspaceMoved, WorkspaceID: 2, WorkspaceName: "2", Monitor: "DP-1"})
	assert.Equal(t, []int{2, 4}, ids(w.On("DP-1")))

	w.Apply(hyprland.Event{Kind: hyprland.WorkspaceDestroyed, WorkspaceID: 1, WorkspaceName: "1"})
	assert.Equal(t, []int{3}, ids(w.On("eDP-1")))

	w.Apply(hyprland.Event{Kind: hyprland.MonitorFocusChanged, Monitor: "DP-1", WorkspaceID: 2})
	assert.Equal(t, "DP-1", w.Focused())
	active, _ = w.Active("DP-1")
	assert.Equal(t, 2, active)

	w.Apply(hyprland.Event{Kind: hyprland.ActiveWindowChanged, Class: "firefox", Title: "docs"})
	assert.Equal(t, "docs", w.WindowTitle)
}

func TestWorkspaces_UnresolvedMonitor(t *testing.T) {
	w := seeded()

	// A known workspace keeps its output.
	w.Apply(hyprland.Event{Kind: hyprland.WorkspaceChanged, WorkspaceID: 4, WorkspaceName: "4"})
	active, _ := w.Active("DP-1")
	assert.Equal(t, 4, active)

	// A new one lands on the focused output.
	w.Apply(hyprland.Event{Kind: hyprland.WorkspaceCreated, WorkspaceID: 9, WorkspaceName: "9"})
	assert.Contains(t, ids(w.On("eDP-1")), 9)
}

func TestWorkspaces_Topology(t *testing.T) {
	w := seeded()

	assert.True(t, w.Apply(hyprland.Event{Kind: hyprland.MonitorAdded, Monitor: "HDMI-A-1"}))
	assert.False(t, w.Apply(hyprland.Event{Kind: hyprland.MonitorAdded, Monitor: "HDMI-A-1"}))
	assert.True(t, w.Apply(hyprland.Event{Kind: hyprland.MonitorRemoved, Monitor: "eDP-1"}))
	assert.False(t, w.Apply(hyprland.Event{Kind: hyprland.MonitorRemoved, Monitor: "eDP-1"}))
	assert.Empty(t, w.Focused())
	_, ok := w.Active("eDP-1")
	assert.False(t, ok)
	assert.False(t, w.Apply(hyprland.Event{Kind: hyprland.WorkspaceCreated, WorkspaceID: 5, Monitor: "DP-1"}))
}

func TestWorkspace_Label(t *testing.T) {
	assert.Equal(t, "web", Workspace{ID: 2, Name: "web"}.Label())
	assert.Equal(t, "7", Workspace{ID: 7}.Label())
	assert.True(t, Workspace{ID: -99}.Special())
}
