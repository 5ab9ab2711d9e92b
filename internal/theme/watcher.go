package theme

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/hyprbar/internal/source"
)

// Update is delivered to the UI when the resolved style changed.
// Theme is always set; Err reports a style file that could not be read.
type Update struct {
	Theme *Theme
	Err   error
}

// Watcher re-resolves the style whenever a CSS file in one of the search
// directories changes, including a new file appearing in a location that
// takes precedence over the current one.
type Watcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	search   Search
	debounce time.Duration
	current  *Theme

	out chan Update
}

// NewWatcher creates a watcher seeded with the style already applied.
func NewWatcher(search Search, current *Theme, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:   logger,
		search:   search,
		debounce: 200 * time.Millisecond,
		current:  current,
		out:      make(chan Update, 4),
	}
}

// Name implements source.Worker.
func (w *Watcher) Name() string { return "style" }

// Events returns the channel of style updates.
func (w *Watcher) Events() <-chan Update {
	return w.out
}

// Current returns the last resolved style.
func (w *Watcher) Current() *Theme {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create style watcher: %w", err)
	}
	defer watcher.Close()

	dirs := make(map[string]bool)
	for _, path := range w.search.Candidates() {
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		// Missing directories are not an error, the style is optional.
		if err := watcher.Add(dir); err != nil {
			w.logger.Debug("not watching style directory", "dir", dir, "error", err)
		}
	}
	if len(watcher.WatchList()) == 0 {
		w.logger.Debug("no style directories to watch")
	}

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
			if filepath.Ext(event.Name) != ".css" || event.Has(fsnotify.Chmod) {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			update, changed := w.reload()
			if !changed {
				continue
			}
			if !source.Send(ctx, w.out, update) {
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("style watcher error", "error", err)
		}
	}
}

// reload resolves the style again. Unchanged CSS is not reported.
func (w *Watcher) reload() (Update, bool) {
	t, err := w.search.Resolve()
	if err != nil {
		w.logger.Warn("style changed but could not be loaded", "error", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err == nil && w.current != nil && w.current.CSS == t.CSS {
		return Update{}, false
	}
	w.current = t
	w.logger.Info("style reloaded", "style", t.Name)
	return Update{Theme: t, Err: err}, true
}
