package display

import (
	"time"

	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"

	"github.com/jmylchreest/hyprbar/internal/dispatch"
	"github.com/jmylchreest/hyprbar/internal/switcher"
)

// MainLoop schedules callbacks on the GLib main loop.
type MainLoop struct{}

var (
	_ dispatch.Scheduler = MainLoop{}
	_ switcher.Clock     = MainLoop{}
)

// Every runs fn every period until stop is called.
func (MainLoop) Every(period time.Duration, fn func()) (stop func()) {
	stopped := false
	handle := coreglib.TimeoutAdd(milliseconds(period), func() bool {
		if stopped {
			return false
		}
		fn()
		return !stopped
	})
	return func() {
		if stopped {
			return
		}
		stopped = true
		coreglib.SourceRemove(handle)
	}
}

// AfterFunc runs f once after d.
func (MainLoop) AfterFunc(d time.Duration, f func()) switcher.Timer {
	t := &loopTimer{}
	t.handle = coreglib.TimeoutAdd(milliseconds(d), func() bool {
		t.done = true
		f()
		return false
	})
	return t
}

type loopTimer struct {
	handle coreglib.SourceHandle
	done   bool
}

// Stop cancels the callback. It reports false if the callback already ran.
func (t *loopTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	coreglib.SourceRemove(t.handle)
	return true
}

func milliseconds(d time.Duration) uint {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return uint(ms)
}
