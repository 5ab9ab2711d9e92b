package shell

import (
	"sort"
	"strconv"

	"github.com/jmylchreest/hyprbar/internal/hyprland"
)

// Workspace is one workspace button on a bar.
type Workspace struct {
	ID      int
	Name    string
	Monitor string
}

// Label returns the text shown on the button.
func (w Workspace) Label() string {
	if w.Name != "" {
		return w.Name
	}
	return strconv.Itoa(w.ID)
}

// Special reports whether the workspace is a special (scratchpad) workspace.
func (w Workspace) Special() bool {
	return w.ID < 0
}

// Workspaces is the compositor view the bars render: which workspaces exist
// on which output, which one is active per output, and the focused window.
type Workspaces struct {
	byID     map[int]Workspace
	active   map[string]int
	monitors map[string]bool
	focused  string

	WindowClass string
	WindowTitle string
}

// NewWorkspaces creates an empty view.
func NewWorkspaces() *Workspaces {
	return &Workspaces{
		byID:     make(map[int]Workspace),
		active:   make(map[string]int),
		monitors: make(map[string]bool),
	}
}

// Reset replaces the view with a snapshot from the request socket.
func (w *Workspaces) Reset(monitors []hyprland.Monitor, workspaces []hyprland.Workspace, window hyprland.Window) {
	w.byID = make(map[int]Workspace, len(workspaces))
	w.active = make(map[string]int, len(monitors))
	w.monitors = make(map[string]bool, len(monitors))
	w.focused = ""

	for _, m := range monitors {
		if m.Disabled {
			continue
		}
		w.monitors[m.Name] = true
		w.active[m.Name] = m.ActiveWorkspace.ID
		if m.Focused {
			w.focused = m.Name
		}
	}
	for _, ws := range workspaces {
		w.byID[ws.ID] = Workspace{ID: ws.ID, Name: ws.Name, Monitor: ws.Monitor}
	}
	w.WindowClass = window.Class
	w.WindowTitle = window.Title
}

// Apply folds one compositor event into the view. It reports whether the
// set of outputs changed, which calls for a monitor reconcile.
func (w *Workspaces) Apply(ev hyprland.Event) (topologyChanged bool) {
	switch ev.Kind {
	case hyprland.WorkspaceChanged:
		monitor := w.monitorFor(ev)
		w.upsert(ev.WorkspaceID, ev.WorkspaceName, monitor)
		if monitor != "" {
			w.active[monitor] = ev.WorkspaceID
		}

	case hyprland.WorkspaceCreated:
		w.upsert(ev.WorkspaceID, ev.WorkspaceName, w.monitorFor(ev))

	case hyprland.WorkspaceDestroyed:
		delete(w.byID, ev.WorkspaceID)

	case hyprland.WorkspaceMoved:
		w.upsert(ev.WorkspaceID, ev.WorkspaceName, ev.Monitor)

	case hyprland.ActiveWindowChanged:
		w.WindowClass = ev.Class
		w.WindowTitle = ev.Title

	case hyprland.MonitorFocusChanged:
		w.focused = ev.Monitor
		w.monitors[ev.Monitor] = true
		w.active[ev.Monitor] = ev.WorkspaceID

	case hyprland.MonitorAdded:
		if w.monitors[ev.Monitor] {
			return false
		}
		w.monitors[ev.Monitor] = true
		return true

	case hyprland.MonitorRemoved:
		if !w.monitors[ev.Monitor] {
			return false
		}
		delete(w.monitors, ev.Monitor)
		delete(w.active, ev.Monitor)
		if w.focused == ev.Monitor {
			w.focused = ""
		}
		return true
	}
	return false
}

// monitorFor resolves the output of a workspace event. The listener fills
// it in when it can; otherwise the workspace keeps its known output, and a
// new workspace lands on the focused one.
func (w *Workspaces) monitorFor(ev hyprland.Event) string {
	if ev.Monitor != "" {
		return ev.Monitor
	}
	if ws, ok := w.byID[ev.WorkspaceID]; ok && ws.Monitor != "" {
		return ws.Monitor
	}
	return w.focused
}

func (w *Workspaces) upsert(id int, name, monitor string) {
	ws := w.byID[id]
	ws.ID = id
	if name != "" {
		ws.Name = name
	}
	if monitor != "" {
		ws.Monitor = monitor
	}
	w.byID[id] = ws
}

// On returns the regular workspaces on monitor in ascending ID order.
func (w *Workspaces) On(monitor string) []Workspace {
	var out []Workspace
	for _, ws := range w.byID {
		if ws.Monitor == monitor && !ws.Special() {
			out = append(out, ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Active returns the active workspace ID on monitor.
func (w *Workspaces) Active(monitor string) (int, bool) {
	id, ok := w.active[monitor]
	return id, ok
}

// Focused returns the focused output name.
func (w *Workspaces) Focused() string {
	return w.focused
}

// Monitors returns the known output names, sorted.
func (w *Workspaces) Monitors() []string {
	out := make([]string, 0, len(w.monitors))
	for name := range w.monitors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
