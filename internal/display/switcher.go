package display

import (
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/hyprbar/internal/shell"
	"github.com/jmylchreest/hyprbar/internal/switcher"
)

// switcherView is a switcher trigger on one bar plus its popover. A
// switcher is shared by every bar; its popover opens only on the bar whose
// trigger was clicked.
type switcherView struct {
	bar     *Bar
	sw      *switcher.Switcher
	trigger *gtk.Button
	label   *gtk.Label
	popover *gtk.Popover
	menu    *gtk.Box
	items   []*gtk.Button
	shown   bool
}

func newSwitcherView(bar *Bar, sw *switcher.Switcher) *switcherView {
	v := &switcherView{bar: bar, sw: sw}
	a := sw.Appearance()

	content := gtk.NewBox(gtk.OrientationHorizontal, 4)
	if a.Icon != "" {
		content.Append(gtk.NewImageFromIconName(a.Icon))
	}
	v.label = gtk.NewLabel(sw.Label())
	content.Append(v.label)

	v.trigger = gtk.NewButton()
	v.trigger.SetChild(content)
	v.trigger.AddCSSClass("switcher-trigger")
	if a.Widget != "" {
		v.trigger.AddCSSClass(a.Widget)
	}
	v.trigger.SetTooltipText(sw.Name())
	v.trigger.ConnectClicked(v.toggle)

	v.menu = gtk.NewBox(gtk.OrientationVertical, 2)
	v.menu.AddCSSClass("switcher-menu")

	v.popover = gtk.NewPopover()
	v.popover.AddCSSClass("switcher-popup")
	if a.Prefix != "" {
		v.popover.AddCSSClass(a.Prefix + "-popup")
	}
	v.popover.SetHasArrow(false)
	v.popover.SetChild(v.menu)
	v.popover.SetParent(v.trigger)
	v.popover.ConnectClosed(func() {
		// Closed by the toolkit (click outside), not by render.
		if v.shown {
			v.shown = false
			if v.owned() {
				v.sw.Close()
			}
		}
	})

	motion := gtk.NewEventControllerMotion()
	motion.ConnectEnter(func(x, y float64) { v.sw.FocusGained() })
	motion.ConnectLeave(func() { v.sw.FocusLost() })
	v.popover.AddController(motion)

	return v
}

func (v *switcherView) owned() bool {
	return v.bar.shell.popupOwner[v.sw.Name()] == v.bar
}

func (v *switcherView) toggle() {
	s := v.bar.shell
	if v.sw.IsOpen() && v.owned() {
		v.sw.Close()
		return
	}
	s.popupOwner[v.sw.Name()] = v.bar
	if v.sw.IsOpen() {
		// Open on another bar: move it here.
		s.invalidate(shell.DirtySwitchers)
		return
	}
	v.sw.Open()
}

func (v *switcherView) render() {
	state, known := v.sw.State()
	v.label.SetText(v.sw.Label())
	if known {
		v.trigger.RemoveCSSClass("unknown")
	} else {
		v.trigger.AddCSSClass("unknown")
	}

	open := v.sw.IsOpen() && v.owned()
	switch {
	case open:
		v.fill(state)
		if !v.shown {
			v.shown = true
			v.popover.Popup()
		}
	case v.shown:
		v.shown = false
		v.popover.Popdown()
	}
}

func (v *switcherView) fill(state switcher.State) {
	for _, item := range v.items {
		v.menu.Remove(item)
	}
	v.items = v.items[:0]

	prefix := v.sw.Appearance().Prefix
	for _, candidate := range state.Candidates {
		btn := gtk.NewButtonWithLabel(candidate)
		btn.AddCSSClass("flat")
		if prefix != "" {
			btn.AddCSSClass(prefix + "-item")
		}
		if state.IsCurrent(candidate) {
			btn.AddCSSClass("current")
		}
		btn.ConnectClicked(func() {
			v.sw.Activate(v.bar.shell.ctx, candidate)
		})
		v.menu.Append(btn)
		v.items = append(v.items, btn)
	}
}

func (v *switcherView) destroy() {
	if v.owned() {
		delete(v.bar.shell.popupOwner, v.sw.Name())
		if v.shown {
			v.sw.Close()
		}
	}
	v.shown = false
	v.popover.Unparent()
}
