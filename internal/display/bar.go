package display

import (
	"log/slog"
	"strconv"
	"time"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"

	"github.com/jmylchreest/hyprbar/internal/layout"
	"github.com/jmylchreest/hyprbar/internal/monitor"
	"github.com/jmylchreest/hyprbar/internal/shell"
)

// Bar is the layer-shell bar window of one monitor binding.
type Bar struct {
	shell   *Shell
	binding monitor.Binding
	window  *gtk.Window
	logger  *slog.Logger

	workspaces []*workspacesView
	titles     []*titleView
	clocks     []*clockView
	indicators []*indicatorView
	switchers  []*switcherView
	centers    []*notificationsView
}

var _ monitor.Bar = (*Bar)(nil)

func newBar(s *Shell, b monitor.Binding, mon *gdk.Monitor) *Bar {
	bar := &Bar{
		shell:   s,
		binding: b,
		logger:  s.logger.With("monitor", b.Name),
	}

	height := s.cfg.Bar.Height
	if s.layout.Height > 0 {
		height = s.layout.Height
	}

	bar.window = gtk.NewWindow()
	bar.window.SetApplication(s.app)
	bar.window.SetDecorated(false)
	bar.window.SetDefaultSize(-1, height)

	layershell.InitForWindow(bar.window)
	layershell.SetLayer(bar.window, layershell.LayerShellLayerTop)
	layershell.SetNamespace(bar.window, "hyprbar")
	layershell.SetMonitor(bar.window, mon)
	layershell.SetKeyboardMode(bar.window, layershell.LayerShellKeyboardModeOnDemand)
	edge := layershell.LayerShellEdgeTop
	if s.cfg.Bar.Position == "bottom" {
		edge = layershell.LayerShellEdgeBottom
	}
	layershell.SetAnchor(bar.window, edge, true)
	layershell.SetAnchor(bar.window, layershell.LayerShellEdgeLeft, true)
	layershell.SetAnchor(bar.window, layershell.LayerShellEdgeRight, true)
	layershell.SetExclusiveZone(bar.window, height)

	root := gtk.NewCenterBox()
	root.AddCSSClass("hyprbar")
	root.SetStartWidget(bar.section("start", s.layout.Start))
	root.SetCenterWidget(bar.section("center", s.layout.Center))
	root.SetEndWidget(bar.section("end", s.layout.End))
	bar.window.SetChild(root)

	bar.render(allDirty)
	bar.renderClock(time.Now())
	bar.window.Present()
	return bar
}

// Destroy implements monitor.Bar.
func (b *Bar) Destroy() {
	for _, v := range b.switchers {
		v.destroy()
	}
	for _, v := range b.centers {
		v.destroy()
	}
	for _, v := range b.workspaces {
		v.destroy()
	}
	b.window.Destroy()
}

func (b *Bar) section(name string, elems []layout.LayoutElement) gtk.Widgetter {
	box := gtk.NewBox(gtk.OrientationHorizontal, 6)
	box.AddCSSClass("section")
	box.AddCSSClass(name)
	for _, elem := range elems {
		if w := b.build(elem); w != nil {
			box.Append(w)
		}
	}
	return box
}

// build creates the widget for a layout element.
func (b *Bar) build(elem layout.LayoutElement) gtk.Widgetter {
	switch elem.Type {
	case layout.ElementTypeWorkspaces:
		v := newWorkspacesView(b)
		b.workspaces = append(b.workspaces, v)
		return v.box

	case layout.ElementTypeWindow:
		v := newTitleView(atoiOr(elem.Attributes["max-chars"], 60))
		b.titles = append(b.titles, v)
		return v.label

	case layout.ElementTypeClock:
		format := elem.Attributes["format"]
		if format == "" {
			format = b.shell.cfg.Bar.ClockFormat
		}
		v := &clockView{label: gtk.NewLabel(""), format: format}
		v.label.AddCSSClass("clock")
		b.clocks = append(b.clocks, v)
		return v.label

	case layout.ElementTypeBattery, layout.ElementTypeVolume, layout.ElementTypeNetwork:
		v := newIndicatorView(elem.Type)
		b.indicators = append(b.indicators, v)
		return v.box

	case layout.ElementTypeMedia:
		v := newIndicatorView(elem.Type)
		v.box.SetVisible(false)
		click := gtk.NewGestureClick()
		click.ConnectReleased(func(int, float64, float64) { b.shell.focusPlayer() })
		v.box.AddController(click)
		b.indicators = append(b.indicators, v)
		return v.box

	case layout.ElementTypeNotifications:
		v := newNotificationsView(b)
		b.centers = append(b.centers, v)
		return v.trigger

	case layout.ElementTypeSwitcher:
		provider := elem.Attributes["provider"]
		sw, ok := b.shell.switchers[provider]
		if !ok {
			b.logger.Debug("switcher not enabled, skipping", "provider", provider)
			return nil
		}
		v := newSwitcherView(b, sw)
		b.switchers = append(b.switchers, v)
		return v.trigger

	case layout.ElementTypeGroup:
		box := gtk.NewBox(gtk.OrientationHorizontal, 4)
		box.AddCSSClass("group")
		if class := elem.Attributes["class"]; class != "" {
			box.AddCSSClass(class)
		}
		for _, child := range elem.Children {
			if w := b.build(child); w != nil {
				box.Append(w)
			}
		}
		return box
	}
	return nil
}

// render redraws the widgets named by dirty.
func (b *Bar) render(dirty shell.Dirty) {
	st := b.shell.state
	if dirty.Has(shell.DirtyWorkspaces | shell.DirtyMonitors) {
		for _, v := range b.workspaces {
			v.render()
		}
	}
	if dirty.Has(shell.DirtyThumbnails) {
		for _, v := range b.workspaces {
			v.renderPreview()
		}
	}
	if dirty.Has(shell.DirtyWindow) {
		for _, v := range b.titles {
			v.render(st.Workspaces.WindowTitle)
		}
	}
	for _, v := range b.indicators {
		if dirty.Has(v.dirty) {
			v.render(st)
		}
	}
	if dirty.Has(shell.DirtySwitchers) {
		for _, v := range b.switchers {
			v.render()
		}
	}
	if dirty.Has(shell.DirtyHistory) {
		for _, v := range b.centers {
			v.render(st)
		}
	}
}

func (b *Bar) renderClock(now time.Time) {
	for _, v := range b.clocks {
		v.label.SetText(now.Format(v.format))
	}
}

type titleView struct {
	label *gtk.Label
}

func newTitleView(maxChars int) *titleView {
	v := &titleView{label: gtk.NewLabel("")}
	v.label.AddCSSClass("window-title")
	v.label.SetEllipsize(pango.EllipsizeEnd)
	v.label.SetMaxWidthChars(maxChars)
	return v
}

func (v *titleView) render(title string) {
	v.label.SetText(title)
	v.label.SetTooltipText(title)
}

type clockView struct {
	label  *gtk.Label
	format string
}

// indicatorView is an icon and label for one polled reading.
type indicatorView struct {
	kind  layout.ElementType
	dirty shell.Dirty
	box   *gtk.Box
	icon  *gtk.Image
	label *gtk.Label
}

func newIndicatorView(kind layout.ElementType) *indicatorView {
	v := &indicatorView{
		kind:  kind,
		box:   gtk.NewBox(gtk.OrientationHorizontal, 4),
		icon:  gtk.NewImage(),
		label: gtk.NewLabel(shell.UnknownLabel),
	}
	switch kind {
	case layout.ElementTypeBattery:
		v.dirty = shell.DirtyBattery
	case layout.ElementTypeVolume:
		v.dirty = shell.DirtyVolume
	case layout.ElementTypeNetwork:
		v.dirty = shell.DirtyNetwork
	case layout.ElementTypeMedia:
		v.dirty = shell.DirtyMedia
	}
	v.box.AddCSSClass("indicator")
	v.box.AddCSSClass(string(kind))
	v.box.AddCSSClass("unknown")
	v.box.Append(v.icon)
	v.box.Append(v.label)
	return v
}

func (v *indicatorView) render(st *shell.State) {
	var text, icon string
	var known bool
	switch v.kind {
	case layout.ElementTypeBattery:
		text, icon, known = shell.Label(st.Battery), shell.Icon(st.Battery), st.Battery.Known
		low := known && !st.Battery.Value.Charging && st.Battery.Value.Percent <= 15
		setClass(v.box, "low", low)
	case layout.ElementTypeVolume:
		text, icon, known = shell.Label(st.Volume), shell.Icon(st.Volume), st.Volume.Known
		setClass(v.box, "muted", known && st.Volume.Value.Muted)
	case layout.ElementTypeNetwork:
		text, icon, known = shell.Label(st.Network), shell.Icon(st.Network), st.Network.Known
		if known && st.Network.Value.Online() {
			v.box.SetTooltipText(st.Network.Value.Interface)
		}
	case layout.ElementTypeMedia:
		text, icon, known = shell.Label(st.Media), shell.Icon(st.Media), st.Media.Known
		v.box.SetVisible(known && st.Media.Value.Playing)
		v.box.SetTooltipText(st.Media.Value.Identity)
	}
	v.label.SetText(text)
	v.icon.SetFromIconName(icon)
	v.icon.SetVisible(icon != "")
	setClass(v.box, "unknown", !known)
}

func setClass(w interface {
	AddCSSClass(string)
	RemoveCSSClass(string)
}, class string, on bool) {
	if on {
		w.AddCSSClass(class)
	} else {
		w.RemoveCSSClass(class)
	}
}

func atoiOr(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
