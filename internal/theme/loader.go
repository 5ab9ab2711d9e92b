package theme

import (
	"log/slog"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/hyprbar/internal/config"
)

// Loader applies styles to the display through one CSS provider.
// It must be used from the UI thread.
type Loader struct {
	logger   *slog.Logger
	provider *gtk.CSSProvider
	theme    *Theme
	onError  func(error)
}

// NewLoader creates a loader. onError receives CSS parse errors; it may be nil.
func NewLoader(onError func(error), logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		logger:   logger,
		provider: gtk.NewCSSProvider(),
		onError:  onError,
	}
	l.provider.ConnectParsingError(func(section *gtk.CSSSection, err error) {
		l.logger.Warn("style parse error", "location", section.String(), "error", err)
		if l.onError != nil {
			l.onError(err)
		}
	})
	return l
}

// Apply attaches the provider to display (the default display when nil).
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply style")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_USER)
}

// Load replaces the active style.
func (l *Loader) Load(t *Theme) {
	if t == nil {
		t = NewEmbeddedTheme(DefaultStyleName)
	}
	l.provider.LoadFromString(t.CSS)
	l.theme = t
	l.logger.Info("loaded style", "style", t.Name, "embedded", t.Embedded)
}

// Theme returns the active style.
func (l *Loader) Theme() *Theme {
	return l.theme
}

// SetColorScheme forces light or dark, or follows the system.
func SetColorScheme(scheme string) {
	manager := adw.StyleManagerGetDefault()
	switch config.ColorScheme(scheme) {
	case config.ColorSchemeLight:
		manager.SetColorScheme(adw.ColorSchemeForceLight)
	case config.ColorSchemeDark:
		manager.SetColorScheme(adw.ColorSchemeForceDark)
	default:
		manager.SetColorScheme(adw.ColorSchemeDefault)
	}
}
