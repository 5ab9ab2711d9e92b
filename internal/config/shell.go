package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "10s", "1m", "1h30m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Plain integers are milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Milliseconds returns the duration in milliseconds.
func (d Duration) Milliseconds() int {
	return int(time.Duration(d).Milliseconds())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// ShellConfig is the configuration for the hyprbar shell.
// Loaded from ~/.config/hyprbar/hyprbar.toml
type ShellConfig struct {
	Log           LogConfig          `toml:"log"`
	Dispatch      DispatchConfig     `toml:"dispatch"`
	Poll          PollConfig         `toml:"poll"`
	Bar           BarConfig          `toml:"bar"`
	Notifications NotificationConfig `toml:"notifications"`
	History       HistoryConfig      `toml:"history"`
	Switcher      SwitcherConfig     `toml:"switcher"`
	Capture       CaptureConfig      `toml:"capture"`
	Theme         ThemeConfig        `toml:"theme"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DispatchConfig controls the UI-thread drain.
type DispatchConfig struct {
	Tick Duration `toml:"tick"`
}

// PollConfig holds the interval of every polling worker.
type PollConfig struct {
	Battery Duration `toml:"battery"`
	Volume  Duration `toml:"volume"`
	Network Duration `toml:"network"`
	Command Duration `toml:"command"` // external tool status (gcloud, kube)
	Media   Duration `toml:"media"`   // MPRIS players
}

// BarConfig contains per-monitor bar settings.
type BarConfig struct {
	Position    string `toml:"position"` // "top" or "bottom"
	Height      int    `toml:"height"`
	ClockFormat string `toml:"clock_format"` // Go time layout
	Layout      string `toml:"layout"`       // bundled layout name or XML file, empty = default
	Battery     bool   `toml:"battery"`
	Volume      bool   `toml:"volume"`
	Network     bool   `toml:"network"`
	Media       bool   `toml:"media"`
}

// NotificationConfig contains toast settings.
type NotificationConfig struct {
	Enabled       bool     `toml:"enabled"` // Claim org.freedesktop.Notifications
	Position      string   `toml:"position"`
	OffsetX       int      `toml:"offset_x"`
	OffsetY       int      `toml:"offset_y"`
	Width         int      `toml:"width"`
	Height        int      `toml:"height"` // stacking slot per toast
	MaxVisible    int      `toml:"max_visible"`
	Gap           int      `toml:"gap"`
	Timeout       Duration `toml:"timeout"`        // expire_timeout -1 without actions
	ActionTimeout Duration `toml:"action_timeout"` // expire_timeout -1 with actions
	RateLimit     Duration `toml:"rate_limit"`     // per-key limit for internal notifications
}

// HistoryConfig controls how long notifications are kept.
type HistoryConfig struct {
	MaxAge        Duration `toml:"max_age"` // 0 = forever
	Keep          int      `toml:"keep"`    // 0 = unlimited
	PruneInterval Duration `toml:"prune_interval"`
	Recent        int      `toml:"recent"` // rows listed by the bar's notification center
}

// SwitcherConfig selects the context switchers shown on the bar.
type SwitcherConfig struct {
	Kube       bool     `toml:"kube"`
	Gcloud     bool     `toml:"gcloud"`
	Kubeconfig string   `toml:"kubeconfig"` // empty = $KUBECONFIG or ~/.kube/config
	Debounce   Duration `toml:"debounce"`
}

// CaptureConfig controls workspace thumbnails.
type CaptureConfig struct {
	Enabled        bool   `toml:"enabled"`
	Command        string `toml:"command"`
	ThumbnailWidth int    `toml:"thumbnail_width"`
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Style       string `toml:"style"`        // explicit style.css path, empty = discover
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// Position represents a toast stack position on screen.
type Position string

const (
	PositionTopLeft      Position = "top-left"
	PositionTopRight     Position = "top-right"
	PositionTopCenter    Position = "top-center"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomRight  Position = "bottom-right"
	PositionBottomCenter Position = "bottom-center"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{
		PositionTopLeft,
		PositionTopRight,
		PositionTopCenter,
		PositionBottomLeft,
		PositionBottomRight,
		PositionBottomCenter,
	}
}

// DefaultShellConfig returns a new ShellConfig with default values.
func DefaultShellConfig() *ShellConfig {
	return &ShellConfig{
		Log: LogConfig{
			Level: "info",
		},
		Dispatch: DispatchConfig{
			Tick: Duration(16 * time.Millisecond),
		},
		Poll: PollConfig{
			Battery: Duration(30 * time.Second),
			Volume:  Duration(time.Second),
			Network: Duration(5 * time.Second),
			Command: Duration(5 * time.Second),
			Media:   Duration(2 * time.Second),
		},
		Bar: BarConfig{
			Position:    "top",
			Height:      28,
			ClockFormat: "Mon 02 Jan 15:04",
			Layout:      "default",
			Battery:     true,
			Volume:      true,
			Network:     true,
			Media:       true,
		},
		Notifications: NotificationConfig{
			Enabled:       true,
			Position:      string(PositionTopRight),
			OffsetX:       10,
			OffsetY:       10,
			Width:         350,
			Height:        110,
			MaxVisible:    5,
			Gap:           5,
			Timeout:       Duration(5 * time.Second),
			ActionTimeout: Duration(15 * time.Second),
			RateLimit:     Duration(5 * time.Second),
		},
		History: HistoryConfig{
			MaxAge:        Duration(30 * 24 * time.Hour),
			Keep:          5000,
			PruneInterval: Duration(time.Hour),
			Recent:        20,
		},
		Switcher: SwitcherConfig{
			Kube:     true,
			Gcloud:   true,
			Debounce: Duration(500 * time.Millisecond),
		},
		Capture: CaptureConfig{
			Enabled:        true,
			Command:        "grim",
			ThumbnailWidth: 240,
		},
		Theme: ThemeConfig{
			ColorScheme: string(ColorSchemeSystem),
		},
	}
}

// ShellConfigPath returns the path to the shell config file.
func ShellConfigPath() string {
	return filepath.Join(ConfigDir(), "hyprbar.toml")
}

// LoadShellConfig loads the shell configuration from path, or from
// ShellConfigPath when path is empty. A missing file yields the defaults.
func LoadShellConfig(path string) (*ShellConfig, error) {
	if path == "" {
		path = ShellConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultShellConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultShellConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveShellConfig atomically writes the configuration to path.
func SaveShellConfig(path string, cfg *ShellConfig) error {
	if path == "" {
		path = ShellConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *ShellConfig) Validate() error {
	if !slices.Contains(ValidPositions(), Position(c.Notifications.Position)) {
		return fmt.Errorf("invalid position %q, must be one of: %v", c.Notifications.Position, ValidPositions())
	}
	if c.Bar.Position != "top" && c.Bar.Position != "bottom" {
		return fmt.Errorf("bar position must be top or bottom, got %q", c.Bar.Position)
	}
	if c.Bar.Height < 12 || c.Bar.Height > 200 {
		return fmt.Errorf("bar height must be between 12 and 200, got %d", c.Bar.Height)
	}

	if c.Notifications.Width < 100 || c.Notifications.Width > 1000 {
		return fmt.Errorf("width must be between 100 and 1000, got %d", c.Notifications.Width)
	}
	if c.Notifications.Height < 40 || c.Notifications.Height > 600 {
		return fmt.Errorf("height must be between 40 and 600, got %d", c.Notifications.Height)
	}
	if c.Notifications.MaxVisible < 1 || c.Notifications.MaxVisible > 20 {
		return fmt.Errorf("max_visible must be between 1 and 20, got %d", c.Notifications.MaxVisible)
	}

	if c.Dispatch.Tick.Duration() < time.Millisecond || c.Dispatch.Tick.Duration() > time.Second {
		return fmt.Errorf("dispatch tick must be between 1ms and 1s, got %s", c.Dispatch.Tick.Duration())
	}
	for name, d := range map[string]Duration{
		"battery": c.Poll.Battery,
		"volume":  c.Poll.Volume,
		"network": c.Poll.Network,
		"command": c.Poll.Command,
		"media":   c.Poll.Media,
	} {
		if d.Duration() < 100*time.Millisecond {
			return fmt.Errorf("poll interval %s must be at least 100ms, got %s", name, d.Duration())
		}
	}

	if c.History.Keep < 0 {
		return fmt.Errorf("history keep must not be negative, got %d", c.History.Keep)
	}
	if c.History.Recent < 1 || c.History.Recent > 200 {
		return fmt.Errorf("history recent must be between 1 and 200, got %d", c.History.Recent)
	}

	if !slices.Contains(ValidColorSchemes(), ColorScheme(c.Theme.ColorScheme)) {
		return fmt.Errorf("invalid color scheme %q, must be one of: %v", c.Theme.ColorScheme, ValidColorSchemes())
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	return nil
}

// LayoutPath expands a configured bar layout path.
func (c *ShellConfig) LayoutPath() string {
	return expandPath(c.Bar.Layout)
}

// StylePath expands a configured style path.
func (c *ShellConfig) StylePath() string {
	return expandPath(c.Theme.Style)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
