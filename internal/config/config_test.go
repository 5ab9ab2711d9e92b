package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hyprbarctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "48h", cfg.Filter.Since)
	assert.Equal(t, "timestamp", cfg.Sort.Field)
	assert.Equal(t, "desc", cfg.Sort.Order)
	assert.Equal(t, DefaultNotifyApp, cfg.Notify.App)
	assert.True(t, cfg.TUI.ShowRead)
	assert.Contains(t, cfg.Templates.Dmenu, "{{.ID}}")
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Overlay(t *testing.T) {
	path := writeConfig(t, `
[filter]
limit = 100

[sort]
field = "urgency"
order = "asc"

[prune]
older_than = "7d"
keep = 500

[templates.custom]
slack = "{{.Summary}}: {{.Body}}"

[notify]
urgency = "critical"

[tui]
show_read = false

[clipboard]
command = "wl-copy --primary"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultSince, cfg.Filter.Since, "unset keys keep defaults")
	assert.Equal(t, 100, cfg.Filter.Limit)
	assert.Equal(t, "urgency", cfg.Sort.Field)
	assert.Equal(t, "asc", cfg.Sort.Order)
	assert.Equal(t, 500, cfg.Prune.Keep)
	assert.Equal(t, "{{.Summary}}: {{.Body}}", cfg.GetTemplate("slack"))
	assert.Equal(t, "critical", cfg.Notify.Urgency)
	assert.Equal(t, DefaultNotifyApp, cfg.Notify.App)
	assert.False(t, cfg.TUI.ShowRead)
	assert.True(t, cfg.TUI.ShowHelp)
	assert.Equal(t, "wl-copy --primary", cfg.Clipboard.Command)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"syntax", `this is not valid toml [`, "failed to parse"},
		{"sort field", "[sort]\nfield = \"size\"", "sort.field"},
		{"sort order", "[sort]\norder = \"up\"", "sort.order"},
		{"negative limit", "[filter]\nlimit = -1", "filter.limit"},
		{"negative keep", "[prune]\nkeep = -5", "prune.keep"},
		{"urgency", "[notify]\nurgency = \"urgent\"", "notify.urgency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hyprbarctl.toml")

	cfg := DefaultConfig()
	cfg.Filter.Since = "1h"
	cfg.Templates.Custom["short"] = "{{.Summary}}"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfig_GetTemplate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Templates.Custom["body"] = "override: {{.Body}}"

	assert.Equal(t, cfg.Templates.Dmenu, cfg.GetTemplate("dmenu"))
	assert.Equal(t, cfg.Templates.Full, cfg.GetTemplate("full"))
	assert.Equal(t, "override: {{.Body}}", cfg.GetTemplate("body"), "custom names shadow built-ins")
	assert.Empty(t, cfg.GetTemplate("{{.Summary}}"))
}

func TestConfigPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/hyprbar/hyprbarctl.toml", ConfigPath())
	assert.Equal(t, "/custom/config/hyprbar/hyprbar.toml", ShellConfigPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Contains(t, ConfigPath(), filepath.Join(".config", "hyprbar", "hyprbarctl.toml"))
}
