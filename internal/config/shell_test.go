package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"5s", 5 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"16ms", 16 * time.Millisecond, false},
		{"2500", 2500 * time.Millisecond, false},
		{"0", 0, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Duration())
		})
	}
}

func TestDefaultShellConfig(t *testing.T) {
	cfg := DefaultShellConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 16*time.Millisecond, cfg.Dispatch.Tick.Duration())
	assert.Equal(t, 30*time.Second, cfg.Poll.Battery.Duration())
	assert.Equal(t, time.Second, cfg.Poll.Volume.Duration())
	assert.Equal(t, 5*time.Second, cfg.Poll.Network.Duration())
	assert.Equal(t, 5*time.Second, cfg.Poll.Command.Duration())
	assert.Equal(t, 2*time.Second, cfg.Poll.Media.Duration())
	assert.True(t, cfg.Bar.Media)
	assert.Equal(t, 20, cfg.History.Recent)
	assert.Equal(t, 500*time.Millisecond, cfg.Switcher.Debounce.Duration())
	assert.Equal(t, 5000, cfg.Notifications.Timeout.Milliseconds())
	assert.Equal(t, 15000, cfg.Notifications.ActionTimeout.Milliseconds())
}

func TestLoadShellConfig_Missing(t *testing.T) {
	cfg, err := LoadShellConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultShellConfig(), cfg)
}

func TestLoadShellConfig_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hyprbar.toml")
	content := `
[dispatch]
tick = "8ms"

[poll]
battery = 60000

[notifications]
position = "bottom-left"

[switcher]
kube = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadShellConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Millisecond, cfg.Dispatch.Tick.Duration())
	assert.Equal(t, time.Minute, cfg.Poll.Battery.Duration())
	assert.Equal(t, "bottom-left", cfg.Notifications.Position)
	assert.False(t, cfg.Switcher.Kube)

	// Untouched sections keep their defaults
	assert.True(t, cfg.Switcher.Gcloud)
	assert.Equal(t, time.Second, cfg.Poll.Volume.Duration())
	assert.Equal(t, 350, cfg.Notifications.Width)
}

func TestLoadShellConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `[bar`},
		{"position", "[notifications]\nposition = \"middle\""},
		{"tick", "[dispatch]\ntick = \"5s\""},
		{"poll", "[poll]\nvolume = \"1ms\""},
		{"bar", "[bar]\nposition = \"left\""},
		{"scheme", "[theme]\ncolor_scheme = \"sepia\""},
		{"log", "[log]\nlevel = \"loud\""},
		{"duration", "[poll]\nnetwork = \"often\""},
		{"recent", "[history]\nrecent = 0"},
		{"media", "[poll]\nmedia = \"10ms\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hyprbar.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadShellConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveShellConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hyprbar.toml")

	cfg := DefaultShellConfig()
	cfg.Bar.Position = "bottom"
	cfg.History.Keep = 42
	require.NoError(t, SaveShellConfig(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadShellConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestStylePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultShellConfig()
	cfg.Theme.Style = "~/themes/bar.css"
	assert.Equal(t, filepath.Join(home, "themes/bar.css"), cfg.StylePath())

	cfg.Theme.Style = "/etc/hyprbar/style.css"
	assert.Equal(t, "/etc/hyprbar/style.css", cfg.StylePath())
}
