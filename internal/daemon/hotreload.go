package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/hyprbar/internal/config"
	"github.com/jmylchreest/hyprbar/internal/source"
)

// ConfigReload is delivered to the UI after the config file changed.
// Exactly one of Config and Err is set.
type ConfigReload struct {
	Config *config.ShellConfig
	Err    error
}

// ConfigWatcher watches the shell config file and reloads it on change.
// An invalid file is reported and the last valid config stays current.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	configPath string
	debounce   time.Duration
	current    *config.ShellConfig

	out chan ConfigReload
}

// NewConfigWatcher creates a watcher for path seeded with the config already in use.
func NewConfigWatcher(path string, initial *config.ShellConfig, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = config.ShellConfigPath()
	}
	return &ConfigWatcher{
		logger:     logger,
		configPath: path,
		debounce:   200 * time.Millisecond,
		current:    initial,
		out:        make(chan ConfigReload, 4),
	}
}

// Name implements source.Worker.
func (w *ConfigWatcher) Name() string { return "config" }

// Events returns the channel of reload results.
func (w *ConfigWatcher) Events() <-chan ConfigReload {
	return w.out
}

// Current returns the last valid configuration.
func (w *ConfigWatcher) Current() *config.ShellConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Run watches until ctx is cancelled.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace the file, so watch the directory instead.
	dir := filepath.Dir(w.configPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Debug("config watcher started", "path", w.configPath)

	name := filepath.Base(w.configPath)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			if !source.Send(ctx, w.out, w.reload()) {
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// reload loads and validates the file, keeping the last valid config on error.
func (w *ConfigWatcher) reload() ConfigReload {
	cfg, err := config.LoadShellConfig(w.configPath)
	if err != nil {
		w.logger.Warn("config file changed but validation failed", "error", err)
		return ConfigReload{Err: err}
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("config reloaded successfully", "path", w.configPath)
	return ConfigReload{Config: cfg}
}
