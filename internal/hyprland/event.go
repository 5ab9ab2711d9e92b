package hyprland

import (
	"fmt"
	"strconv"
	"strings"
)

// EventKind identifies a compositor event.
type EventKind int

const (
	WorkspaceChanged EventKind = iota + 1
	WorkspaceCreated
	WorkspaceDestroyed
	WorkspaceMoved
	ActiveWindowChanged
	MonitorFocusChanged
	MonitorAdded
	MonitorRemoved
)

var eventKindNames = map[EventKind]string{
	WorkspaceChanged:    "workspace-changed",
	WorkspaceCreated:    "workspace-created",
	WorkspaceDestroyed:  "workspace-destroyed",
	WorkspaceMoved:      "workspace-moved",
	ActiveWindowChanged: "active-window-changed",
	MonitorFocusChanged: "monitor-focus-changed",
	MonitorAdded:        "monitor-added",
	MonitorRemoved:      "monitor-removed",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a parsed compositor event. Fields not carried by a kind are zero.
type Event struct {
	Kind          EventKind
	WorkspaceID   int
	WorkspaceName string
	Monitor       string
	Class         string
	Title         string
}

// needsMonitor reports whether the event should be completed with the
// workspace's monitor through the request socket.
func (e Event) needsMonitor() bool {
	return (e.Kind == WorkspaceChanged || e.Kind == WorkspaceCreated) && e.Monitor == ""
}

// ParseError describes a malformed line for a known event.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed event %q: %s", e.Line, e.Reason)
}

// ParseEvent parses one "name>>payload" line. It reports ok=false for events
// the shell does not consume, including v1 events that duplicate a v2 event.
func ParseEvent(line string) (ev Event, ok bool, err error) {
	name, payload, found := strings.Cut(line, ">>")
	if !found {
		return Event{}, false, &ParseError{Line: line, Reason: "missing separator"}
	}

	switch name {
	case "workspacev2", "createworkspacev2", "destroyworkspacev2":
		fields := strings.SplitN(payload, ",", 2)
		if len(fields) != 2 {
			return Event{}, false, &ParseError{Line: line, Reason: "want id,name"}
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return Event{}, false, &ParseError{Line: line, Reason: "bad workspace id"}
		}
		kind := map[string]EventKind{
			"workspacev2":        WorkspaceChanged,
			"createworkspacev2":  WorkspaceCreated,
			"destroyworkspacev2": WorkspaceDestroyed,
		}[name]
		return Event{Kind: kind, WorkspaceID: id, WorkspaceName: fields[1]}, true, nil

	case "moveworkspacev2":
		// The workspace name may contain commas; the monitor name never does.
		idx := strings.LastIndexByte(payload, ',')
		if idx < 0 {
			return Event{}, false, &ParseError{Line: line, Reason: "want id,name,monitor"}
		}
		head, monitor := payload[:idx], payload[idx+1:]
		idStr, wsName, found := strings.Cut(head, ",")
		if !found {
			return Event{}, false, &ParseError{Line: line, Reason: "want id,name,monitor"}
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return Event{}, false, &ParseError{Line: line, Reason: "bad workspace id"}
		}
		return Event{Kind: WorkspaceMoved, WorkspaceID: id, WorkspaceName: wsName, Monitor: monitor}, true, nil

	case "activewindow":
		class, title, _ := strings.Cut(payload, ",")
		return Event{Kind: ActiveWindowChanged, Class: class, Title: title}, true, nil

	case "focusedmonv2":
		monitor, idStr, found := strings.Cut(payload, ",")
		if !found {
			return Event{}, false, &ParseError{Line: line, Reason: "want monitor,workspace id"}
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return Event{}, false, &ParseError{Line: line, Reason: "bad workspace id"}
		}
		return Event{Kind: MonitorFocusChanged, Monitor: monitor, WorkspaceID: id}, true, nil

	case "monitoraddedv2", "monitorremovedv2":
		fields := strings.SplitN(payload, ",", 3)
		if len(fields) < 2 || fields[1] == "" {
			return Event{}, false, &ParseError{Line: line, Reason: "want id,name,description"}
		}
		kind := MonitorAdded
		if name == "monitorremovedv2" {
			kind = MonitorRemoved
		}
		return Event{Kind: kind, Monitor: fields[1]}, true, nil
	}

	return Event{}, false, nil
}
