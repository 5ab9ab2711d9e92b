// Package switcher implements the bar's context switchers: a provider of
// named candidates (kube contexts, gcloud configurations), a poller that
// keeps their state fresh and a UI-agnostic popup controller.
package switcher

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/jmylchreest/hyprbar/internal/poll"
)

// Provider is a source of switchable candidates.
// Current, List and Activate may block; they are never called on the UI thread.
type Provider interface {
	Name() string
	Current(ctx context.Context) (string, error)
	List(ctx context.Context) ([]string, error)
	Activate(ctx context.Context, candidate string) error
}

// Appearance describes how a provider is drawn on the bar.
type Appearance struct {
	Widget      string // CSS name of the bar widget
	Prefix      string // CSS prefix for trigger, popup and menu items
	Icon        string
	Fallback    string // label when there is no current candidate
	MaxLabelLen int
}

// Describer is implemented by providers with their own appearance.
type Describer interface {
	Appearance() Appearance
}

// AppearanceOf returns the provider's appearance, or a plain default.
func AppearanceOf(p Provider) Appearance {
	if d, ok := p.(Describer); ok {
		return d.Appearance()
	}
	return Appearance{
		Widget:      p.Name(),
		Prefix:      p.Name(),
		Fallback:    "none",
		MaxLabelLen: 24,
	}
}

// State is one poll of a provider.
type State struct {
	Provider   string
	Current    string
	Candidates []string
}

// Label returns the bar label: the current candidate truncated in the
// middle, or the fallback when there is none.
func (s State) Label(a Appearance) string {
	if s.Current == "" {
		return a.Fallback
	}
	return TruncateMiddle(s.Current, a.MaxLabelLen)
}

// IsCurrent reports whether candidate is the active one.
func (s State) IsCurrent(candidate string) bool {
	return candidate != "" && candidate == s.Current
}

// Read polls a provider once. A failing List still yields the current
// candidate; a failing Current is an error.
func Read(ctx context.Context, p Provider) (State, error) {
	current, err := p.Current(ctx)
	if err != nil {
		return State{Provider: p.Name()}, err
	}
	candidates, err := p.List(ctx)
	if err != nil {
		candidates = nil
	}
	if current != "" && !slices.Contains(candidates, current) {
		candidates = append(candidates, current)
	}
	return State{Provider: p.Name(), Current: current, Candidates: candidates}, nil
}

// Poller wraps a provider in a polling worker.
func Poller(p Provider, interval time.Duration, logger *slog.Logger) *poll.Poller[State] {
	if interval <= 0 {
		interval = poll.CommandInterval
	}
	return poll.New(p.Name(), interval, func(ctx context.Context) (State, error) {
		return Read(ctx, p)
	}, logger)
}

// TruncateMiddle shortens name to maxLen runes by replacing its middle with
// "...". Names that fit are returned unchanged.
func TruncateMiddle(name string, maxLen int) string {
	runes := []rune(name)
	if maxLen <= 0 || len(runes) <= maxLen {
		return name
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	keep := (maxLen - 3) / 2
	tail := maxLen - 3 - keep
	return string(runes[:keep]) + "..." + string(runes[len(runes)-tail:])
}
