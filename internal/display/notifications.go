package display

import (
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"

	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/shell"
)

// notificationsView is the unread badge on one bar and the history popover
// behind it. It only reads snapshots; every change goes to the daemon.
type notificationsView struct {
	bar     *Bar
	trigger *gtk.Button
	icon    *gtk.Image
	badge   *gtk.Label
	popover *gtk.Popover
	list    *gtk.Box
	rows    []gtk.Widgetter
	shown   bool
}

func newNotificationsView(bar *Bar) *notificationsView {
	v := &notificationsView{bar: bar}

	content := gtk.NewBox(gtk.OrientationHorizontal, 4)
	v.icon = gtk.NewImageFromIconName("notification-symbolic")
	v.badge = gtk.NewLabel("")
	v.badge.AddCSSClass("badge")
	content.Append(v.icon)
	content.Append(v.badge)

	v.trigger = gtk.NewButton()
	v.trigger.SetChild(content)
	v.trigger.AddCSSClass("notification-center-trigger")
	v.trigger.SetTooltipText("Notifications")
	v.trigger.ConnectClicked(v.toggle)

	v.list = gtk.NewBox(gtk.OrientationVertical, 2)
	v.list.AddCSSClass("notification-list")

	scroll := gtk.NewScrolledWindow()
	scroll.SetPolicy(gtk.PolicyNever, gtk.PolicyAutomatic)
	scroll.SetPropagateNaturalHeight(true)
	scroll.SetMaxContentHeight(480)
	scroll.SetChild(v.list)

	markAll := gtk.NewButtonWithLabel("Mark all read")
	markAll.ConnectClicked(func() { v.bar.shell.state.MarkAllRead() })
	clearAll := gtk.NewButtonWithLabel("Clear all")
	clearAll.ConnectClicked(func() {
		v.bar.shell.state.ClearHistory()
		v.popover.Popdown()
	})
	footer := gtk.NewBox(gtk.OrientationHorizontal, 6)
	footer.AddCSSClass("notification-center-footer")
	footer.SetHAlign(gtk.AlignEnd)
	footer.Append(markAll)
	footer.Append(clearAll)

	body := gtk.NewBox(gtk.OrientationVertical, 6)
	body.SetSizeRequest(340, -1)
	body.Append(scroll)
	body.Append(footer)

	v.popover = gtk.NewPopover()
	v.popover.AddCSSClass("notification-center")
	v.popover.SetHasArrow(false)
	v.popover.SetChild(body)
	v.popover.SetParent(v.trigger)
	v.popover.ConnectClosed(func() { v.shown = false })

	return v
}

func (v *notificationsView) toggle() {
	if v.shown {
		v.popover.Popdown()
		return
	}
	v.shown = true
	v.fill(v.bar.shell.state)
	v.popover.Popup()
}

func (v *notificationsView) render(st *shell.State) {
	text := shell.Label(st.History)
	v.badge.SetText(text)
	v.badge.SetVisible(text != "")
	if icon := shell.Icon(st.History); icon != "" {
		v.icon.SetFromIconName(icon)
	}
	setClass(v.trigger, "has-unread", st.History.Known && st.History.Value.Unread > 0)
	setClass(v.trigger, "unknown", !st.History.Known)

	if v.shown {
		v.fill(st)
	}
}

func (v *notificationsView) fill(st *shell.State) {
	for _, row := range v.rows {
		v.list.Remove(row)
	}
	v.rows = v.rows[:0]

	switch {
	case !st.History.Known:
		v.placeholder("History unavailable")
	case len(st.History.Value.Recent) == 0:
		v.placeholder("No notifications")
	default:
		for _, n := range st.History.Value.Recent {
			v.append(v.row(n))
		}
	}
}

func (v *notificationsView) placeholder(text string) {
	label := gtk.NewLabel(text)
	label.AddCSSClass("notification-empty")
	v.append(label)
}

func (v *notificationsView) append(w gtk.Widgetter) {
	v.list.Append(w)
	v.rows = append(v.rows, w)
}

func (v *notificationsView) row(n model.Notification) gtk.Widgetter {
	app := gtk.NewLabel(n.AppName)
	app.AddCSSClass("notification-item-app")
	app.SetHAlign(gtk.AlignStart)
	app.SetHExpand(true)

	when := gtk.NewLabel(n.RelativeTime())
	when.AddCSSClass("notification-item-time")
	when.SetHAlign(gtk.AlignEnd)

	top := gtk.NewBox(gtk.OrientationHorizontal, 0)
	top.Append(app)
	top.Append(when)

	box := gtk.NewBox(gtk.OrientationVertical, 1)
	box.Append(top)
	box.Append(ellipsized(n.Summary, "notification-item-summary", 50))
	if n.Body != "" {
		box.Append(ellipsized(n.Body, "notification-item-body", 80))
	}

	btn := gtk.NewButton()
	btn.AddCSSClass("flat")
	btn.AddCSSClass("notification-item")
	btn.SetChild(box)
	if n.Read {
		btn.AddCSSClass("read")
	} else {
		btn.AddCSSClass("unread")
		id := n.ID
		btn.ConnectClicked(func() { v.bar.shell.state.MarkRead(id) })
	}
	return btn
}

func ellipsized(text, class string, maxChars int) *gtk.Label {
	l := gtk.NewLabel(text)
	l.AddCSSClass(class)
	l.SetHAlign(gtk.AlignStart)
	l.SetXAlign(0)
	l.SetEllipsize(pango.EllipsizeEnd)
	l.SetMaxWidthChars(maxChars)
	return l
}

func (v *notificationsView) destroy() {
	if v.shown {
		v.popover.Popdown()
	}
	v.shown = false
	v.popover.Unparent()
}
