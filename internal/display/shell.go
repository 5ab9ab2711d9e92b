package display

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/hyprbar/internal/capture"
	"github.com/jmylchreest/hyprbar/internal/config"
	"github.com/jmylchreest/hyprbar/internal/dispatch"
	"github.com/jmylchreest/hyprbar/internal/hyprland"
	"github.com/jmylchreest/hyprbar/internal/layout"
	"github.com/jmylchreest/hyprbar/internal/monitor"
	"github.com/jmylchreest/hyprbar/internal/shell"
	"github.com/jmylchreest/hyprbar/internal/source"
	"github.com/jmylchreest/hyprbar/internal/switcher"
)

const (
	// fetchTimeout bounds one round of request-socket queries.
	fetchTimeout = 2 * time.Second
	// captureDelay lets the compositor finish a workspace switch before
	// the new workspace is captured.
	captureDelay = 300 * time.Millisecond
	// expiryTick is how often toast timeouts are checked.
	expiryTick = 250 * time.Millisecond
)

// allDirty redraws every widget.
const allDirty = ^shell.Dirty(0)

var errNoCompositor = errors.New("compositor request socket not available")

// Options configures a Shell.
type Options struct {
	App    *gtk.Application
	Config *config.ShellConfig
	Layout *layout.BarLayout
	State  *shell.State
	// Client queries the compositor. It may be nil outside Hyprland, in
	// which case every bar shows an unknown output.
	Client *hyprland.Client
	// Capturer produces workspace previews. It may be nil.
	Capturer  *capture.Capturer
	Switchers []*switcher.Switcher
	Logger    *slog.Logger
}

// snapshot is one round of request-socket queries.
type snapshot struct {
	monitors   []hyprland.Monitor
	workspaces []hyprland.Workspace
	window     hyprland.Window
	err        error
}

// Shell owns every window. It is driven by the Dispatcher: values drained
// from the workers land in State, and Render redraws what they dirtied.
type Shell struct {
	app       *gtk.Application
	cfg       *config.ShellConfig
	base      *layout.BarLayout // as loaded
	layout    *layout.BarLayout // filtered by cfg
	state     *shell.State
	client    *hyprland.Client
	capturer  *capture.Capturer
	switchers map[string]*switcher.Switcher
	logger    *slog.Logger

	display    *gdk.Display
	reconciler *monitor.Reconciler
	toasts     *Manager
	popupOwner map[string]*Bar

	snapshots    chan snapshot
	fetching     bool
	refetch      bool
	renderQueued bool

	ctx    context.Context
	cancel context.CancelFunc
	stops  []func()
}

// New creates the shell. Windows appear once Start runs.
func New(opts Options) (*Shell, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = config.DefaultShellConfig()
	}
	if opts.Layout == nil {
		opts.Layout = layout.DefaultLayout()
	}
	if opts.State == nil {
		return nil, &DisplayError{Message: "shell state is required"}
	}

	display := gdk.DisplayGetDefault()
	if display == nil {
		return nil, &DisplayError{Message: "no display available"}
	}

	s := &Shell{
		app:        opts.App,
		cfg:        opts.Config,
		base:       opts.Layout,
		layout:     barLayout(opts.Layout, opts.Config),
		state:      opts.State,
		client:     opts.Client,
		capturer:   opts.Capturer,
		switchers:  make(map[string]*switcher.Switcher, len(opts.Switchers)),
		logger:     opts.Logger,
		display:    display,
		popupOwner: make(map[string]*Bar),
		snapshots:  make(chan snapshot, 1),
	}
	s.reconciler = monitor.NewReconciler(s.newBar, s.logger)
	s.toasts = NewManager(opts.App, opts.State, opts.Config.Notifications, s.logger)
	s.toasts.monitor = s.focusedMonitor
	s.toasts.onChanged = func() { s.invalidate(shell.DirtyToasts) }

	for _, sw := range opts.Switchers {
		s.switchers[sw.Name()] = sw
		sw.SetChangeHandler(func() { s.invalidate(shell.DirtySwitchers) })
	}
	return s, nil
}

// barLayout drops the indicators disabled in the config.
func barLayout(l *layout.BarLayout, cfg *config.ShellConfig) *layout.BarLayout {
	return l.Filter(func(e layout.LayoutElement) bool {
		switch e.Type {
		case layout.ElementTypeBattery:
			return cfg.Bar.Battery
		case layout.ElementTypeVolume:
			return cfg.Bar.Volume
		case layout.ElementTypeNetwork:
			return cfg.Bar.Network
		case layout.ElementTypeMedia:
			return cfg.Bar.Media
		}
		return true
	})
}

// Start subscribes the shell to d, attaches d to the main loop and creates
// the bars. It must run on the main thread.
func (s *Shell) Start(ctx context.Context, d *dispatch.Dispatcher) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	dispatch.Subscribe(d, "outputs", s.snapshots, s.applySnapshot)
	d.SetAfterDrainHandler(func(int) { s.Render() })
	d.Attach(MainLoop{})
	s.stops = append(s.stops, d.Detach)

	list := s.display.Monitors()
	handle := list.ConnectItemsChanged(func(position, removed, added uint) {
		s.logger.Debug("display monitors changed", "removed", removed, "added", added)
		s.requestReconcile()
	})
	s.stops = append(s.stops, func() { list.HandlerDisconnect(handle) })

	loop := MainLoop{}
	s.stops = append(s.stops,
		loop.Every(time.Second, s.tickClock),
		loop.Every(expiryTick, func() {
			s.state.ExpireToasts()
			s.Render()
		}),
	)

	s.requestReconcile()
	s.logger.Info("shell started", "tick", d.Tick())
}

// Stop destroys every window.
func (s *Shell) Stop() {
	for i := len(s.stops) - 1; i >= 0; i-- {
		s.stops[i]()
	}
	s.stops = nil
	if s.cancel != nil {
		s.cancel()
	}
	s.reconciler.Close()
	s.toasts.CloseAll()
	s.logger.Info("shell stopped")
}

// Render redraws whatever the last state changes dirtied.
func (s *Shell) Render() {
	dirty := s.state.TakeDirty()
	if dirty == 0 {
		return
	}
	if dirty.Has(shell.DirtyMonitors) {
		s.requestReconcile()
	}
	s.reconciler.Each(func(_ monitor.Binding, bar monitor.Bar) {
		bar.(*Bar).render(dirty)
	})
	if dirty.Has(shell.DirtyToasts) {
		s.toasts.Sync()
	}
}

// invalidate marks widgets dirty and renders once the current event
// handler returns.
func (s *Shell) invalidate(d shell.Dirty) {
	s.state.Touch(d)
	if s.renderQueued {
		return
	}
	s.renderQueued = true
	coreglib.IdleAdd(func() {
		s.renderQueued = false
		s.Render()
	})
}

// UpdateConfig applies a reloaded config and layout. Bars are rebuilt when
// anything they were built from changed.
func (s *Shell) UpdateConfig(cfg *config.ShellConfig, l *layout.BarLayout) {
	if l == nil {
		l = layout.DefaultLayout()
	}
	rebuild := s.cfg.Bar != cfg.Bar || !cmp.Equal(s.base, l)

	s.cfg = cfg
	s.base = l
	s.layout = barLayout(l, cfg)
	s.state.Toasts.SetPolicy(shell.ExpiryFromConfig(cfg.Notifications), cfg.Notifications.MaxVisible)
	s.toasts.UpdateConfig(cfg.Notifications)

	if rebuild {
		s.logger.Info("bar settings changed, rebuilding bars")
		s.reconciler.Close()
		s.requestReconcile()
	}
	s.invalidate(allDirty &^ shell.DirtyMonitors)
}

func (s *Shell) tickClock() {
	now := time.Now()
	s.reconciler.Each(func(_ monitor.Binding, bar monitor.Bar) {
		bar.(*Bar).renderClock(now)
	})
}

func (s *Shell) newBar(b monitor.Binding) (monitor.Bar, error) {
	mon := findMonitor(s.display, b.Display.Key)
	if mon == nil {
		return nil, &DisplayError{Message: "monitor vanished: " + b.Display.Key}
	}
	return newBar(s, b, mon), nil
}

// focusedMonitor returns the toolkit monitor of the focused output.
func (s *Shell) focusedMonitor() *gdk.Monitor {
	focused := s.state.Workspaces.Focused()
	for _, b := range s.reconciler.Bindings() {
		if b.Name == focused {
			return findMonitor(s.display, b.Display.Key)
		}
	}
	return nil
}

// requestReconcile fetches the compositor's outputs off the main thread.
// The result comes back through the dispatcher.
func (s *Shell) requestReconcile() {
	if s.fetching {
		s.refetch = true
		return
	}
	s.fetching = true

	ctx := s.ctx
	go func() {
		fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		source.Send(ctx, s.snapshots, fetchSnapshot(fctx, s.client))
	}()
}

func fetchSnapshot(ctx context.Context, client *hyprland.Client) snapshot {
	if client == nil {
		return snapshot{err: errNoCompositor}
	}
	var snap snapshot
	snap.monitors, snap.err = client.Monitors(ctx)
	if snap.err != nil {
		return snap
	}
	snap.workspaces, snap.err = client.Workspaces(ctx)
	if snap.err != nil {
		return snap
	}
	// No focused window is not an error.
	snap.window, _ = client.ActiveWindow(ctx)
	return snap
}

func (s *Shell) applySnapshot(snap snapshot) {
	s.fetching = false

	if snap.err != nil {
		s.logger.Warn("failed to query compositor outputs", "error", snap.err)
	} else {
		s.state.Workspaces.Reset(snap.monitors, snap.workspaces, snap.window)
	}
	bindings := s.reconciler.Reconcile(DisplayMonitors(s.display), compositorMonitors(snap.monitors))
	s.logger.Debug("monitors reconciled", "bars", len(bindings))
	s.state.Touch(allDirty &^ shell.DirtyMonitors)

	if s.refetch {
		s.refetch = false
		s.requestReconcile()
	}
}

// focusWorkspace asks the compositor to switch workspaces.
func (s *Shell) focusWorkspace(id int) {
	if s.client == nil {
		return
	}
	ctx := s.ctx
	go func() {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		if err := s.client.Dispatch(ctx, "workspace", strconv.Itoa(id)); err != nil {
			s.logger.Warn("failed to switch workspace", "workspace", id, "error", err)
		}
	}()
}

// focusPlayer raises the window of the playing media player.
func (s *Shell) focusPlayer() {
	if s.client == nil || !s.state.Media.Known {
		return
	}
	selector := shell.PlayerWindowSelector(s.state.Media.Value.WindowHints())
	if selector == "" {
		return
	}
	ctx := s.ctx
	go func() {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		if err := s.client.Dispatch(ctx, "focuswindow", selector); err != nil {
			s.logger.Debug("failed to focus media player", "selector", selector, "error", err)
		}
	}()
}

// capture requests a preview of what output shows now.
func (s *Shell) capture(output string, workspace int) {
	if s.capturer == nil {
		return
	}
	s.capturer.Request(output, workspace)
}

func (s *Shell) captureSoon(output string, workspace int) {
	if s.capturer == nil {
		return
	}
	MainLoop{}.AfterFunc(captureDelay, func() {
		if active, ok := s.state.Workspaces.Active(output); ok && active == workspace {
			s.capturer.Request(output, workspace)
		}
	})
}
