// Package config handles configuration file loading and parsing for the
// shell (hyprbar.toml) and the CLI (hyprbarctl.toml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"
)

// CLI defaults.
const (
	DefaultSince     = "48h"
	DefaultSortField = "timestamp"
	DefaultSortOrder = "desc"
	DefaultOlderThan = "48h"
	DefaultNotifyApp = "hyprbarctl"

	// DefaultDmenuTmpl leads with the id so a picked line can be fed back.
	DefaultDmenuTmpl = "{{.ID}} | {{.AppName}} | {{.Summary}} - {{.BodyTruncated 50}} | {{.RelativeTime}}"
	DefaultFullTmpl  = "{{.CreatedAt | formatTime}} {{.AppName}}: {{.Summary}}\n{{.Body}}"
	DefaultBodyTmpl  = "{{.Body}}"
)

var (
	sortFields = []string{"timestamp", "app", "urgency", "id"}
	sortOrders = []string{"asc", "desc"}
	urgencies  = []string{"low", "normal", "critical"}
)

// Config is the hyprbarctl configuration.
type Config struct {
	Filter    FilterConfig    `toml:"filter"`
	Sort      SortConfig      `toml:"sort"`
	Prune     PruneConfig     `toml:"prune"`
	Templates TemplatesConfig `toml:"templates"`
	Notify    NotifyConfig    `toml:"notify"`
	TUI       TUIConfig       `toml:"tui"`
	Clipboard ClipboardConfig `toml:"clipboard"`
}

// FilterConfig holds the default listing window of hyprbarctl history.
type FilterConfig struct {
	Since string `toml:"since"` // "0" = all time
	Limit int    `toml:"limit"` // 0 = unlimited
}

// SortConfig holds default sorting options.
type SortConfig struct {
	Field string `toml:"field"`
	Order string `toml:"order"`
}

// PruneConfig holds the rule applied by a bare hyprbarctl prune.
type PruneConfig struct {
	OlderThan string `toml:"older_than"`
	Keep      int    `toml:"keep"` // 0 = unlimited
}

// TemplatesConfig holds named output templates for --template.
type TemplatesConfig struct {
	Dmenu  string            `toml:"dmenu"`
	Full   string            `toml:"full"`
	Body   string            `toml:"body"`
	Custom map[string]string `toml:"custom"`
}

// NotifyConfig holds defaults for hyprbarctl notify.
type NotifyConfig struct {
	App     string `toml:"app"`
	Urgency string `toml:"urgency"`
	Icon    string `toml:"icon"`
}

// TUIConfig holds history browser settings.
type TUIConfig struct {
	ShowRead bool `toml:"show_read"` // Include read notifications on start
	ShowHelp bool `toml:"show_help"`
}

// ClipboardConfig holds the browser's clipboard command.
type ClipboardConfig struct {
	Command string `toml:"command"` // Auto-detected if empty
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Filter: FilterConfig{Since: DefaultSince},
		Sort: SortConfig{
			Field: DefaultSortField,
			Order: DefaultSortOrder,
		},
		Prune: PruneConfig{OlderThan: DefaultOlderThan},
		Templates: TemplatesConfig{
			Dmenu:  DefaultDmenuTmpl,
			Full:   DefaultFullTmpl,
			Body:   DefaultBodyTmpl,
			Custom: make(map[string]string),
		},
		Notify: NotifyConfig{
			App:     DefaultNotifyApp,
			Urgency: "normal",
		},
		TUI: TUIConfig{
			ShowRead: true,
			ShowHelp: true,
		},
	}
}

// ConfigDir returns the hyprbar config directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "hyprbar")
}

// ConfigPath returns the path to the CLI config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "hyprbarctl.toml")
}

// LoadConfig loads the CLI configuration from path, or from ConfigPath when
// path is empty. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Templates.Custom == nil {
		cfg.Templates.Custom = make(map[string]string)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the enumerated and numeric settings. Durations and
// templates are checked where they are used.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(sortFields, c.Sort.Field) {
		errs = append(errs, fmt.Errorf("sort.field must be one of %v, got %q", sortFields, c.Sort.Field))
	}
	if !slices.Contains(sortOrders, c.Sort.Order) {
		errs = append(errs, fmt.Errorf("sort.order must be one of %v, got %q", sortOrders, c.Sort.Order))
	}
	if c.Filter.Limit < 0 {
		errs = append(errs, fmt.Errorf("filter.limit must not be negative"))
	}
	if c.Prune.Keep < 0 {
		errs = append(errs, fmt.Errorf("prune.keep must not be negative"))
	}
	if c.Notify.Urgency != "" && !slices.Contains(urgencies, c.Notify.Urgency) {
		errs = append(errs, fmt.Errorf("notify.urgency must be one of %v, got %q", urgencies, c.Notify.Urgency))
	}
	return errors.Join(errs...)
}

// Save atomically writes the configuration to path, creating parent
// directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return renameio.WriteFile(path, data, 0o644)
}

// GetTemplate returns the named template: a custom one first, then the
// built-ins. Unknown names yield "".
func (c *Config) GetTemplate(name string) string {
	if tmpl, ok := c.Templates.Custom[name]; ok {
		return tmpl
	}
	switch name {
	case "dmenu":
		return c.Templates.Dmenu
	case "full":
		return c.Templates.Full
	case "body":
		return c.Templates.Body
	}
	return ""
}
