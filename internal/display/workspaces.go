package display

import (
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// workspacesView is the workspace button row of one bar plus a hover
// preview of the last capture of the hovered workspace.
type workspacesView struct {
	bar     *Bar
	box     *gtk.Box
	buttons []*gtk.Button

	preview *gtk.Popover
	picture *gtk.Picture

	active    int
	hasActive bool
	hovered   int
	hovering  bool
}

func newWorkspacesView(bar *Bar) *workspacesView {
	v := &workspacesView{bar: bar}
	v.box = gtk.NewBox(gtk.OrientationHorizontal, 2)
	v.box.AddCSSClass("workspaces")

	v.picture = gtk.NewPicture()
	v.picture.SetCanShrink(true)
	v.preview = gtk.NewPopover()
	v.preview.AddCSSClass("workspace-preview")
	v.preview.SetAutohide(false)
	v.preview.SetHasArrow(false)
	if bar.shell.cfg.Bar.Position == "bottom" {
		v.preview.SetPosition(gtk.PosTop)
	} else {
		v.preview.SetPosition(gtk.PosBottom)
	}
	v.preview.SetChild(v.picture)
	v.preview.SetParent(v.box)
	return v
}

func (v *workspacesView) render() {
	s := v.bar.shell
	ws := s.state.Workspaces
	output := v.bar.binding.Name

	for _, btn := range v.buttons {
		v.box.Remove(btn)
	}
	v.buttons = v.buttons[:0]

	active, hasActive := ws.Active(output)
	for _, w := range ws.On(output) {
		id := w.ID
		btn := gtk.NewButtonWithLabel(w.Label())
		btn.AddCSSClass("flat")
		if hasActive && id == active {
			btn.AddCSSClass("active")
		}
		btn.ConnectClicked(func() { s.focusWorkspace(id) })

		motion := gtk.NewEventControllerMotion()
		motion.ConnectEnter(func(x, y float64) { v.hover(id) })
		motion.ConnectLeave(func() { v.unhover(id) })
		btn.AddController(motion)

		v.box.Append(btn)
		v.buttons = append(v.buttons, btn)
	}

	setClass(v.box, "focused-output", ws.Focused() == output)

	if hasActive && (!v.hasActive || active != v.active) {
		s.captureSoon(output, active)
	}
	v.active, v.hasActive = active, hasActive
}

func (v *workspacesView) hover(id int) {
	v.hovered = id
	v.hovering = true
	if v.hasActive && id == v.active {
		v.bar.shell.capture(v.bar.binding.Name, id)
	}
	v.renderPreview()
}

func (v *workspacesView) unhover(id int) {
	if v.hovered != id {
		return
	}
	v.hovering = false
	v.preview.Popdown()
}

func (v *workspacesView) renderPreview() {
	if !v.hovering {
		return
	}
	f, ok := v.bar.shell.state.Thumbnail(v.hovered)
	if !ok || f.Image == nil {
		v.preview.Popdown()
		return
	}
	v.picture.SetPaintable(textureFromRGBA(f.Image))
	v.picture.SetSizeRequest(f.Image.Bounds().Dx(), f.Image.Bounds().Dy())
	v.preview.Popup()
}

func (v *workspacesView) destroy() {
	v.preview.Popdown()
	v.preview.Unparent()
}
