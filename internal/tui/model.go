// Package tui is the hyprbarctl history browser.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/hyprbar/internal/adapter/output"
	"github.com/jmylchreest/hyprbar/internal/config"
	"github.com/jmylchreest/hyprbar/internal/core"
	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/store"
)

// storeTimeout bounds every store call made from the UI.
const storeTimeout = 5 * time.Second

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeSearch
	ModeHelp
)

// Model is the bubbletea model of the history browser.
type Model struct {
	cfg   *config.Config
	store *store.Store

	mode Mode

	list        list.Model
	viewport    viewport.Model
	searchInput textinput.Model
	help        help.Model
	keys        KeyMap

	notifications []model.Notification
	selected      *model.Notification
	query         string
	showRead      bool
	width         int
	height        int
	ready         bool

	statusMsg string
	statusErr bool

	changes <-chan store.ChangeEvent
}

// New creates the browser over s.
func New(cfg *config.Config, s *store.Store) Model {
	l := list.New(nil, newNotificationDelegate(), 0, 0)
	l.Title = "Notification History"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	searchInput := textinput.New()
	searchInput.Placeholder = "text, or a filter such as app=slack,urgency>=normal"
	searchInput.CharLimit = 200

	return Model{
		cfg:         cfg,
		store:       s,
		mode:        ModeList,
		list:        l,
		searchInput: searchInput,
		help:        help.New(),
		keys:        DefaultKeyMap(),
		changes:     s.Subscribe(),
	}
}

type loadedMsg struct {
	notifications []model.Notification
	err           error
}

type changedMsg struct{}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load, m.waitForChange)
}

func (m Model) load() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	ns, err := m.store.List(ctx, store.FilterOptions{})
	return loadedMsg{notifications: ns, err: err}
}

// waitForChange blocks until the store or another process changes history.
func (m Model) waitForChange() tea.Msg {
	if _, ok := <-m.changes; !ok {
		return nil
	}
	return changedMsg{}
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isErr: isErr} }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.list.SetSize(msg.Width, msg.Height-2)
		m.viewport = viewport.New(msg.Width, msg.Height-4)
		m.viewport.YPosition = 2
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			return m, status("Failed to load history: "+msg.err.Error(), true)
		}
		m.notifications = msg.notifications
		m.refreshItems()
		return m, nil

	case changedMsg:
		return m, tea.Batch(m.load, m.waitForChange)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeList:
		m.list, cmd = m.list.Update(msg)
	case ModeDetail:
		m.viewport, cmd = m.viewport.Update(msg)
	case ModeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != ModeSearch {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			if m.mode == ModeHelp {
				m.mode = ModeList
			} else {
				m.mode = ModeHelp
			}
			return m, nil
		}
	}

	switch m.mode {
	case ModeList:
		return m.handleListKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	case ModeSearch:
		return m.handleSearchKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
	}
	return m, nil
}

func (m Model) current() (model.Notification, bool) {
	item, ok := m.list.SelectedItem().(notificationItem)
	return item.notification, ok
}

func (m Model) visible() []model.Notification {
	items := m.list.Items()
	ns := make([]model.Notification, 0, len(items))
	for _, item := range items {
		if ni, ok := item.(notificationItem); ok {
			ns = append(ns, ni.notification)
		}
	}
	return ns
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		return m.openDetail()

	case key.Matches(msg, m.keys.Copy):
		if n, ok := m.current(); ok {
			return m, m.copyToClipboard(n.Body)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopySummary):
		if n, ok := m.current(); ok {
			return m, m.copyToClipboard(n.Summary)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyAllJSON):
		data, err := json.MarshalIndent(recordsOf(m.visible()), "", "  ")
		if err != nil {
			return m, status("Failed to marshal JSON: "+err.Error(), true)
		}
		return m, m.copyToClipboard(string(data))

	case key.Matches(msg, m.keys.CopyAllYAML):
		data, err := yaml.Marshal(recordsOf(m.visible()))
		if err != nil {
			return m, status("Failed to marshal YAML: "+err.Error(), true)
		}
		return m, m.copyToClipboard(string(data))

	case key.Matches(msg, m.keys.ToggleRead):
		n, ok := m.current()
		if !ok {
			return m, nil
		}
		if err := m.setRead([]uint64{n.ID}, !n.Read); err != nil {
			return m, status("Failed to update: "+err.Error(), true)
		}
		m.markLocal(func(x *model.Notification) bool { return x.ID == n.ID }, !n.Read)
		if n.Read {
			return m, status("Marked unread", false)
		}
		return m, status("Marked read", false)

	case key.Matches(msg, m.keys.MarkAllRead):
		if err := m.setRead(nil, true); err != nil {
			return m, status("Failed to update: "+err.Error(), true)
		}
		m.markLocal(func(*model.Notification) bool { return true }, true)
		return m, status("All notifications marked read", false)

	case key.Matches(msg, m.keys.Delete):
		n, ok := m.current()
		if !ok {
			return m, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if _, err := m.store.Delete(ctx, n.ID); err != nil {
			return m, status("Failed to delete: "+err.Error(), true)
		}
		m.notifications = removeID(m.notifications, n.ID)
		m.refreshItems()
		return m, status("Notification deleted", false)

	case key.Matches(msg, m.keys.ShowAll):
		m.showRead = !m.showRead
		m.refreshItems()
		if m.showRead {
			return m, status("Showing all notifications", false)
		}
		return m, status("Showing unread notifications", false)

	case key.Matches(msg, m.keys.Search):
		return m.enterSearch()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.load
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.selected = nil
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if m.selected != nil {
			return m, m.copyToClipboard(m.selected.Body)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopySummary):
		if m.selected != nil {
			return m, m.copyToClipboard(m.selected.Summary)
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.selected = nil
		return m.enterSearch()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.query = ""
		m.refreshItems()
		return m, nil

	case tea.KeyEnter:
		m.searchInput.Blur()
		return m.openDetail()

	case tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.query = m.searchInput.Value()
	m.refreshItems()
	return m, cmd
}

func (m Model) enterSearch() (tea.Model, tea.Cmd) {
	m.searchInput.SetValue("")
	m.query = ""
	m.refreshItems()
	m.mode = ModeSearch
	m.searchInput.Focus()
	return m, textinput.Blink
}

// openDetail shows the selected notification and marks it read.
func (m Model) openDetail() (tea.Model, tea.Cmd) {
	n, ok := m.current()
	if !ok {
		return m, nil
	}
	m.selected = &n
	m.mode = ModeDetail
	m.viewport.SetContent(renderDetail(n))
	m.viewport.GotoTop()

	if n.Read {
		return m, nil
	}
	if err := m.setRead([]uint64{n.ID}, true); err != nil {
		return m, status("Failed to mark read: "+err.Error(), true)
	}
	m.markLocal(func(x *model.Notification) bool { return x.ID == n.ID }, true)
	return m, nil
}

func (m Model) setRead(ids []uint64, read bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	_, err := m.store.SetRead(ctx, ids, read)
	return err
}

// markLocal updates the loaded copy without waiting for the change event.
func (m *Model) markLocal(match func(*model.Notification) bool, read bool) {
	for i := range m.notifications {
		if match(&m.notifications[i]) {
			m.notifications[i].Read = read
		}
	}
	m.refreshItems()
}

func (m *Model) refreshItems() {
	m.list.SetItems(buildItems(m.notifications, m.query, m.showRead))
}

// buildItems applies the read toggle and the search box. A query that parses
// as a filter expression is applied as one; anything else is a text search.
func buildItems(notifications []model.Notification, query string, showRead bool) []list.Item {
	ns := notifications
	if !showRead {
		ns = make([]model.Notification, 0, len(notifications))
		for _, n := range notifications {
			if !n.Read {
				ns = append(ns, n)
			}
		}
	}

	if query = strings.TrimSpace(query); query != "" {
		if expr, ok := parseFilterExpression(query); ok {
			ns = core.Apply(ns, expr)
		} else {
			ns = core.Search(ns, query)
		}
	}

	items := make([]list.Item, len(ns))
	for i, n := range ns {
		items[i] = notificationItem{notification: n}
	}
	return items
}

func parseFilterExpression(query string) (*core.FilterExpr, bool) {
	expr, err := core.ParseFilter(query)
	if err != nil || len(expr.Conditions) == 0 {
		return nil, false
	}
	return expr, true
}

func isFilterExpression(query string) bool {
	_, ok := parseFilterExpression(query)
	return ok
}

func removeID(ns []model.Notification, id uint64) []model.Notification {
	out := ns[:0]
	for _, n := range ns {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}

func recordsOf(ns []model.Notification) []output.Record {
	out := make([]output.Record, len(ns))
	for i := range ns {
		out[i] = output.NewRecord(&ns[i])
	}
	return out
}

func (m Model) copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text, m.cfg)}
	}
}

// RunOptions configures the browser.
type RunOptions struct {
	Config *config.Config
	Store  *store.Store
	// DBPath is watched for writes by the shell. Empty disables watching.
	DBPath string
	Logger *slog.Logger
}

// Run starts the browser and blocks until it exits.
func Run(opts RunOptions) error {
	if opts.Store == nil {
		return fmt.Errorf("no history store")
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.DBPath != "" {
		watcher, err := store.NewFileWatcher(opts.Store, opts.DBPath, opts.Logger)
		if err != nil {
			opts.Logger.Warn("failed to create file watcher", "error", err)
		} else if err := watcher.Start(); err != nil {
			opts.Logger.Warn("failed to start file watcher", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	m := New(opts.Config, opts.Store)
	m.showRead = opts.Config.TUI.ShowRead
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
