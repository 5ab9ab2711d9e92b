package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the browser's key bindings. Navigation keys are handled by
// the list itself and appear here for the help view.
type KeyMap struct {
	Up, Down         key.Binding
	PageUp, PageDown key.Binding
	Home, End        key.Binding

	Enter, Back              key.Binding
	Copy, CopySummary        key.Binding
	CopyAllJSON, CopyAllYAML key.Binding
	ToggleRead, MarkAllRead  key.Binding
	Delete                   key.Binding
	Search, Refresh          key.Binding
	ShowAll                  key.Binding

	Quit, Help key.Binding
}

func bind(helpKey, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(helpKey, desc))
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp implements help.KeyMap, one column per group.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Enter, k.Back, k.Search, k.Refresh, k.ShowAll},
		{k.ToggleRead, k.MarkAllRead, k.Delete},
		{k.Copy, k.CopySummary, k.CopyAllJSON, k.CopyAllYAML},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       bind("↑/k", "up", "up", "k"),
		Down:     bind("↓/j", "down", "down", "j"),
		PageUp:   bind("pgup", "page up", "pgup", "ctrl+u"),
		PageDown: bind("pgdn", "page down", "pgdown", "ctrl+d"),
		Home:     bind("g", "top", "home", "g"),
		End:      bind("G", "bottom", "end", "G"),

		Enter:       bind("enter", "view", "enter"),
		Back:        bind("esc", "back", "esc", "backspace"),
		Copy:        bind("c", "copy body", "c"),
		CopySummary: bind("s", "copy summary", "s"),
		CopyAllJSON: bind("C", "copy visible as JSON", "C"),
		CopyAllYAML: bind("alt+c", "copy visible as YAML", "alt+c"),
		ToggleRead:  bind("m", "toggle read", "m"),
		MarkAllRead: bind("M", "mark all read", "M"),
		Delete:      bind("D", "delete", "D", "delete"),
		Search:      bind("/", "search", "/"),
		Refresh:     bind("r", "refresh", "r"),
		ShowAll:     bind("a", "show read", "a"),

		Quit: bind("q", "quit", "q", "ctrl+c"),
		Help: bind("?", "help", "?"),
	}
}
