package hyprland

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		line string
		want Event
	}{
		{"workspacev2>>3,3", Event{Kind: WorkspaceChanged, WorkspaceID: 3, WorkspaceName: "3"}},
		{"createworkspacev2>>7,web, mail", Event{Kind: WorkspaceCreated, WorkspaceID: 7, WorkspaceName: "web, mail"}},
		{"destroyworkspacev2>>-98,special:scratch", Event{Kind: WorkspaceDestroyed, WorkspaceID: -98, WorkspaceName: "special:scratch"}},
		{"moveworkspacev2>>2,a,b,DP-1", Event{Kind: WorkspaceMoved, WorkspaceID: 2, WorkspaceName: "a,b", Monitor: "DP-1"}},
		{"activewindow>>kitty,vim main.go, line 3", Event{Kind: ActiveWindowChanged, Class: "kitty", Title: "vim main.go, line 3"}},
		{"activewindow>>,", Event{Kind: ActiveWindowChanged}},
		{"focusedmonv2>>eDP-1,4", Event{Kind: MonitorFocusChanged, Monitor: "eDP-1", WorkspaceID: 4}},
		{"monitoraddedv2>>1,DP-1,Dell U2720Q", Event{Kind: MonitorAdded, Monitor: "DP-1"}},
		{"monitorremovedv2>>1,DP-1,Dell, Inc. U2720Q", Event{Kind: MonitorRemoved, Monitor: "DP-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ev, ok, err := ParseEvent(tt.line)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestParseEvent_Ignored(t *testing.T) {
	for _, line := range []string{
		"workspace>>3",
		"focusedmon>>eDP-1,3",
		"monitoradded>>DP-1",
		"activewindowv2>>5612a3c0",
		"openwindow>>5612a3c0,2,kitty,title",
		"configreloaded>>",
	} {
		t.Run(line, func(t *testing.T) {
			_, ok, err := ParseEvent(line)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestParseEvent_Malformed(t *testing.T) {
	for _, line := range []string{
		"no separator",
		"workspacev2>>abc,name",
		"workspacev2>>3",
		"moveworkspacev2>>DP-1",
		"moveworkspacev2>>x,name,DP-1",
		"focusedmonv2>>eDP-1",
		"focusedmonv2>>eDP-1,x",
		"monitoraddedv2>>1",
	} {
		t.Run(line, func(t *testing.T) {
			_, ok, err := ParseEvent(line)
			assert.False(t, ok)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "workspace-changed", WorkspaceChanged.String())
	assert.Equal(t, "monitor-removed", MonitorRemoved.String())
	assert.Equal(t, "unknown", EventKind(0).String())
}
