package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/hyprbar/internal/model"
)

var (
	dimColor      = lipgloss.Color("8")
	accentColor   = lipgloss.Color("12")
	keyColor      = lipgloss.Color("10")
	errorColor    = lipgloss.Color("9")
	criticalColor = lipgloss.Color("1")
)

type copyResultMsg struct {
	err error
}

// notificationItem wraps a notification for the list component.
type notificationItem struct {
	notification model.Notification
}

func (i notificationItem) Title() string {
	return i.notification.Summary
}

func (i notificationItem) Description() string {
	n := i.notification
	return fmt.Sprintf("[%s] %s - %s", n.AppName, humanize.Time(n.CreatedTime()), n.BodyTruncated(50))
}

func (i notificationItem) FilterValue() string {
	return i.notification.Summary + " " + i.notification.Body + " " + i.notification.AppName
}

// notificationDelegate dims read notifications and marks critical ones.
type notificationDelegate struct {
	list.DefaultDelegate
}

func newNotificationDelegate() notificationDelegate {
	return notificationDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

func (d notificationDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(notificationItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}
	n := ni.notification

	titleStyle := d.Styles.NormalTitle
	descStyle := d.Styles.NormalDesc
	if index == m.Index() {
		titleStyle = d.Styles.SelectedTitle
		descStyle = d.Styles.SelectedDesc
	}
	switch {
	case n.Read:
		titleStyle = titleStyle.Foreground(dimColor)
		descStyle = descStyle.Foreground(dimColor)
	case n.Urgency == model.UrgencyCritical:
		titleStyle = titleStyle.Foreground(criticalColor)
	}

	width := m.Width() - titleStyle.GetHorizontalFrameSize()
	title := ni.Title()
	if !n.Read {
		title = "● " + title
	}
	fmt.Fprint(w, titleStyle.Render(clip(title, width)))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(clip(ni.Description(), width)))
}

// clip shortens s to width terminal cells.
func clip(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

func renderDetail(n model.Notification) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	label := lipgloss.NewStyle().Foreground(dimColor)

	var b strings.Builder
	b.WriteString(header.Render(n.Summary) + "\n\n")

	field := func(name, value string) {
		if value != "" {
			b.WriteString(label.Render(name+": ") + value + "\n")
		}
	}
	field("App", n.AppName)
	field("Time", n.CreatedTime().Format("2006-01-02 15:04:05")+" ("+humanize.Time(n.CreatedTime())+")")
	field("Urgency", n.UrgencyName())
	field("Category", n.Category)
	if n.IsClosed() {
		field("Closed", n.CloseReason.String())
	}
	if n.HasActions() {
		labels := make([]string, len(n.Actions))
		for i, a := range n.Actions {
			labels[i] = a.Label
		}
		field("Actions", strings.Join(labels, ", "))
	}

	b.WriteString("\n" + label.Render("Body:") + "\n")
	b.WriteString(n.Body + "\n")
	return b.String()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeList:
		return m.list.View() + "\n" + m.footer(m.listBindings())
	case ModeDetail:
		header := lipgloss.NewStyle().Bold(true).Padding(0, 1).Render("Notification Detail")
		return header + "\n" + m.viewport.View() + "\n" + m.footer(m.detailBindings())
	case ModeSearch:
		count := lipgloss.NewStyle().Foreground(dimColor).Render(fmt.Sprintf("(%d matches)", len(m.list.Items())))
		kind := "Search"
		if isFilterExpression(m.query) {
			kind = "Filter"
		}
		bar := kind + ": " + m.searchInput.View() + " " + count
		return bar + "\n" + m.list.View() + "\n" + m.footer(m.searchBindings())
	case ModeHelp:
		title := lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginBottom(1).Render("Keyboard Shortcuts")
		hint := lipgloss.NewStyle().Foreground(dimColor).Render("Press ? or esc to return")
		h := m.help
		h.ShowAll = true
		return title + "\n\n" + h.View(m.keys) + "\n\n" + hint
	}
	return ""
}

func (m Model) listBindings() []key.Binding {
	return []key.Binding{
		m.keys.Quit, m.keys.Enter, m.keys.Help, m.keys.Search,
		m.keys.ToggleRead, m.keys.ShowAll, m.keys.Copy, m.keys.MarkAllRead,
		m.keys.Delete, m.keys.Refresh,
	}
}

func (m Model) detailBindings() []key.Binding {
	return []key.Binding{m.keys.Quit, m.keys.Back, m.keys.Search, m.keys.Copy, m.keys.CopySummary}
}

func (m Model) searchBindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithHelp("enter", "view")),
		key.NewBinding(key.WithHelp("esc", "close")),
		key.NewBinding(key.WithHelp("↑/↓", "navigate")),
	}
}

// footer shows the status message, or as many bindings as fit the width.
func (m Model) footer(binds []key.Binding) string {
	if m.statusMsg != "" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			style = style.Foreground(errorColor)
		}
		return style.Render(m.statusMsg)
	}
	if m.cfg != nil && !m.cfg.TUI.ShowHelp {
		return ""
	}
	return keybindBar(binds, m.width)
}

// keybindBar joins bindings in priority order, stopping before width is
// exceeded.
func keybindBar(binds []key.Binding, width int) string {
	const sep = "  "
	keyStyle := lipgloss.NewStyle().Foreground(keyColor)

	var parts []string
	used := 0
	for _, b := range binds {
		h := b.Help()
		item := keyStyle.Render(h.Key) + " " + h.Desc
		w := lipgloss.Width(item)
		if used > 0 {
			w += len(sep)
		}
		if width > 0 && used+w > width {
			break
		}
		parts = append(parts, item)
		used += w
	}
	return lipgloss.NewStyle().Foreground(dimColor).Render(strings.Join(parts, sep))
}
