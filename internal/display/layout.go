package display

import (
	"fmt"
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"

	"github.com/jmylchreest/hyprbar/internal/hyprland"
	"github.com/jmylchreest/hyprbar/internal/monitor"
)

// DisplayMonitors lists the toolkit's monitors in display order.
func DisplayMonitors(display *gdk.Display) []monitor.DisplayMonitor {
	if display == nil {
		return nil
	}
	list := display.Monitors()
	if list == nil {
		return nil
	}

	n := list.NItems()
	out := make([]monitor.DisplayMonitor, 0, n)
	for i := range n {
		m := wrapMonitor(list.Item(i))
		if m == nil {
			continue
		}
		geo := m.Geometry()
		out = append(out, monitor.DisplayMonitor{
			Key:       monitorKey(m, int(i)),
			Index:     int(i),
			X:         geo.X(),
			Y:         geo.Y(),
			Width:     geo.Width(),
			Height:    geo.Height(),
			Connector: m.Connector(),
		})
	}
	return out
}

// findMonitor returns the toolkit monitor with the given key.
func findMonitor(display *gdk.Display, key string) *gdk.Monitor {
	if display == nil {
		return nil
	}
	list := display.Monitors()
	if list == nil {
		return nil
	}
	for i := range list.NItems() {
		m := wrapMonitor(list.Item(i))
		if m != nil && monitorKey(m, int(i)) == key {
			return m
		}
	}
	return nil
}

// monitorKey is the connector name, or a positional key when the backend
// does not report one.
func monitorKey(m *gdk.Monitor, index int) string {
	if c := m.Connector(); c != "" {
		return c
	}
	return fmt.Sprintf("monitor-%d", index)
}

// compositorMonitors converts the request-socket monitor list, skipping
// disabled outputs.
func compositorMonitors(ms []hyprland.Monitor) []monitor.CompositorMonitor {
	out := make([]monitor.CompositorMonitor, 0, len(ms))
	for _, m := range ms {
		if m.Disabled {
			continue
		}
		out = append(out, monitor.CompositorMonitor{
			Name:  m.Name,
			Index: len(out),
			X:     m.X,
			Y:     m.Y,
		})
	}
	return out
}

// wrapMonitor wraps a glib.Object from the monitor list as a gdk.Monitor.
// gotk4 does not export its own wrapper.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// gdk.Monitor is a struct embedding *glib.Object; this mirrors the
	// generated wrapper.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
