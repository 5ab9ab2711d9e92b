package display

import (
	"strings"
	"time"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"

	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/shell"
)

// Popup is the layer-shell window of one toast.
type Popup struct {
	window *gtk.Window
	box    *gtk.Box
	id     uint64

	appNameLbl *gtk.Label
	timeLbl    *gtk.Label
	summaryLbl *gtk.Label
	bodyLbl    *gtk.Label
	progress   *gtk.ProgressBar
	actionBox  *gtk.Box
	classes    []string
	defaultKey string

	shownAt time.Time

	onDismiss func(id uint64)
	onAction  func(id uint64, key string)
}

// NewPopup creates the window for a toast on monitor (the compositor's
// choice when nil). It is not shown until Place and Show are called.
func NewPopup(app *gtk.Application, t *shell.Toast, width int, mon *gdk.Monitor) *Popup {
	p := &Popup{
		id:      t.Notification.ID,
		shownAt: t.ShownAt,
	}

	p.window = gtk.NewWindow()
	p.window.SetApplication(app)
	p.window.SetDecorated(false)
	p.window.SetResizable(false)
	p.window.SetDefaultSize(width, -1)
	p.window.SetSizeRequest(width, -1)

	layershell.InitForWindow(p.window)
	layershell.SetLayer(p.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(p.window, 0)
	layershell.SetKeyboardMode(p.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(p.window, "hyprbar-toast")
	if mon != nil {
		layershell.SetMonitor(p.window, mon)
	}

	p.buildUI()
	p.Update(t)
	p.connectSignals()
	return p
}

func (p *Popup) buildUI() {
	p.box = gtk.NewBox(gtk.OrientationVertical, 4)
	p.box.AddCSSClass("toast")

	header := gtk.NewBox(gtk.OrientationHorizontal, 8)
	p.appNameLbl = gtk.NewLabel("")
	p.appNameLbl.AddCSSClass("app-name")
	p.appNameLbl.SetXAlign(0)
	p.appNameLbl.SetHExpand(true)
	p.timeLbl = gtk.NewLabel("")
	p.timeLbl.AddCSSClass("time")
	closeBtn := gtk.NewButtonFromIconName("window-close-symbolic")
	closeBtn.AddCSSClass("flat")
	closeBtn.ConnectClicked(func() { p.dismiss() })
	header.Append(p.appNameLbl)
	header.Append(p.timeLbl)
	header.Append(closeBtn)

	p.summaryLbl = gtk.NewLabel("")
	p.summaryLbl.AddCSSClass("summary")
	p.summaryLbl.SetXAlign(0)
	p.summaryLbl.SetEllipsize(pango.EllipsizeEnd)
	p.summaryLbl.SetMaxWidthChars(40)

	p.bodyLbl = gtk.NewLabel("")
	p.bodyLbl.AddCSSClass("body")
	p.bodyLbl.SetXAlign(0)
	p.bodyLbl.SetWrap(true)
	p.bodyLbl.SetWrapMode(pango.WrapWordChar)
	p.bodyLbl.SetMaxWidthChars(50)

	p.progress = gtk.NewProgressBar()
	p.progress.AddCSSClass("progress")

	p.actionBox = gtk.NewBox(gtk.OrientationHorizontal, 6)
	p.actionBox.AddCSSClass("actions")

	p.box.Append(header)
	p.box.Append(p.summaryLbl)
	p.box.Append(p.bodyLbl)
	p.box.Append(p.progress)
	p.box.Append(p.actionBox)
	p.window.SetChild(p.box)
}

// Update redraws the toast content, for a new toast or one replaced in place.
func (p *Popup) Update(t *shell.Toast) {
	n := &t.Notification
	p.shownAt = t.ShownAt

	p.appNameLbl.SetText(n.AppName)
	p.appNameLbl.SetVisible(n.AppName != "")
	p.timeLbl.SetText(t.ShownAt.Format("15:04"))
	p.summaryLbl.SetText(n.Summary)

	p.bodyLbl.SetVisible(n.Body != "")
	if strings.Contains(n.Body, "<") {
		p.bodyLbl.SetMarkup(n.Body)
	} else {
		p.bodyLbl.SetText(n.Body)
	}

	p.progress.SetVisible(n.HasProgress())
	if n.HasProgress() {
		p.progress.SetFraction(float64(n.Progress) / 100)
	}

	for _, class := range p.classes {
		p.box.RemoveCSSClass(class)
	}
	p.classes = toastClasses(n)
	for _, class := range p.classes {
		p.box.AddCSSClass(class)
	}

	p.defaultKey, _ = n.DefaultAction()
	p.rebuildActions(n)
}

func (p *Popup) rebuildActions(n *model.Notification) {
	p.box.Remove(p.actionBox)
	p.actionBox = gtk.NewBox(gtk.OrientationHorizontal, 6)
	p.actionBox.AddCSSClass("actions")
	buttons := 0
	for _, action := range n.Actions {
		if action.Key == "default" {
			continue
		}
		key := action.Key
		btn := gtk.NewButtonWithLabel(action.Label)
		btn.ConnectClicked(func() { p.invoke(key) })
		p.actionBox.Append(btn)
		buttons++
	}
	p.actionBox.SetVisible(buttons > 0)
	p.box.Append(p.actionBox)
}

// toastClasses returns the CSS classes describing a notification.
func toastClasses(n *model.Notification) []string {
	var classes []string
	switch n.Urgency {
	case model.UrgencyLow:
		classes = append(classes, "low")
	case model.UrgencyCritical:
		classes = append(classes, "critical")
	}
	if n.AppName != "" {
		if c := sanitizeClassName(n.AppName); c != "" {
			classes = append(classes, "app-"+c)
		}
	}
	if n.Category != "" {
		if c := sanitizeClassName(n.Category); c != "" {
			classes = append(classes, "category-"+c)
		}
	}
	if n.Origin == model.OriginInternal {
		classes = append(classes, "internal")
	}
	return classes
}

// sanitizeClassName converts a string to a valid CSS class name.
func sanitizeClassName(name string) string {
	var result strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			result.WriteRune(r)
			prevHyphen = false
		case r == '-' || r == '_' || r == ' ' || r == '.' || r == '/':
			if !prevHyphen && result.Len() > 0 {
				result.WriteRune('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(result.String(), "-")
}

// connectSignals routes clicks: left runs the default action when there is
// one and dismisses otherwise, right always dismisses.
func (p *Popup) connectSignals() {
	clickCtrl := gtk.NewGestureClick()
	clickCtrl.SetButton(0)
	clickCtrl.ConnectReleased(func(nPress int, x, y float64) {
		switch clickCtrl.CurrentButton() {
		case 1:
			if p.defaultKey != "" {
				p.invoke(p.defaultKey)
			} else {
				p.dismiss()
			}
		case 3:
			p.dismiss()
		}
	})
	p.window.AddController(clickCtrl)
}

func (p *Popup) dismiss() {
	if p.onDismiss != nil {
		p.onDismiss(p.id)
	}
}

func (p *Popup) invoke(key string) {
	if p.onAction != nil {
		p.onAction(p.id, key)
	}
}

// Place anchors the window according to pl.
func (p *Popup) Place(pl shell.Placement) {
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, pl.Anchor.Top)
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeBottom, pl.Anchor.Bottom)
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeLeft, pl.Anchor.Left)
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeRight, pl.Anchor.Right)
	layershell.SetMargin(p.window, layershell.LayerShellEdgeTop, pl.Top)
	layershell.SetMargin(p.window, layershell.LayerShellEdgeBottom, pl.Bottom)
	layershell.SetMargin(p.window, layershell.LayerShellEdgeLeft, pl.Left)
	layershell.SetMargin(p.window, layershell.LayerShellEdgeRight, pl.Right)
}

// Show presents the window.
func (p *Popup) Show() {
	p.window.Present()
}

// Close destroys the window.
func (p *Popup) Close() {
	p.window.Destroy()
}
