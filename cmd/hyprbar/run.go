package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/hyprbar/internal/capture"
	"github.com/jmylchreest/hyprbar/internal/config"
	"github.com/jmylchreest/hyprbar/internal/daemon"
	"github.com/jmylchreest/hyprbar/internal/dbus"
	"github.com/jmylchreest/hyprbar/internal/dispatch"
	"github.com/jmylchreest/hyprbar/internal/display"
	"github.com/jmylchreest/hyprbar/internal/hyprland"
	"github.com/jmylchreest/hyprbar/internal/layout"
	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/poll"
	"github.com/jmylchreest/hyprbar/internal/shell"
	"github.com/jmylchreest/hyprbar/internal/source"
	"github.com/jmylchreest/hyprbar/internal/store"
	"github.com/jmylchreest/hyprbar/internal/switcher"
	"github.com/jmylchreest/hyprbar/internal/theme"
)

// shutdownTimeout bounds how long workers get to exit after cancellation.
const shutdownTimeout = 3 * time.Second

type runOptions struct {
	config     *config.ShellConfig
	configPath string
	configErr  error
	logger     *slog.Logger
}

// components holds everything created on activation so shutdown can
// release it from the main loop.
type components struct {
	supervisor *source.Supervisor
	shell      *display.Shell
	server     *dbus.NotificationServer
	history    *store.Store
	watcher    *store.FileWatcher
	volume     *poll.VolumeReader
	media      *poll.MediaReader
	switchers  []*switcher.Switcher
}

func run(opts runOptions) error {
	logger := opts.logger
	logger.Info("starting hyprbar", "version", version)

	app := adw.NewApplication(appID, 0)

	var (
		c       components
		running atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
		case <-ctx.Done():
			return
		}
		cancel()
		glib.IdleAdd(func() {
			app.Quit()
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		c = activate(ctx, app, opts)
		if c.shell == nil {
			app.Quit()
			return
		}
		app.Hold()
		logger.Info("hyprbar ready")
	})

	app.ConnectShutdown(func() {
		logger.Info("shutting down")
		cancel()
		c.shutdown(logger)
	})

	if code := app.Run([]string{os.Args[0]}); code > 0 {
		os.Exit(code)
	}
	return nil
}

// activate builds every worker, subscribes it to the dispatcher and starts
// the shell. It runs on the main thread.
func activate(ctx context.Context, app *adw.Application, opts runOptions) components {
	cfg := opts.config
	logger := opts.logger

	var c components
	c.supervisor = source.NewSupervisor(logger)
	d := dispatch.New(cfg.Dispatch.Tick.Duration(), logger)

	notifier := daemon.NewInternalNotifier(logger)
	notifier.SetMinInterval(cfg.Notifications.RateLimit.Duration())
	if opts.configErr != nil {
		notifier.NotifyConfigError(opts.configErr)
	}

	// History and the notification bus
	dbPath := store.DBPath()
	c.history = store.Open(dbPath, logger)
	if c.history.Degraded() {
		notifier.NotifyHistoryDegraded(dbPath)
	}
	c.supervisor.Add(daemon.NewPruner(c.history, cfg.History, logger))

	var commands chan<- model.DaemonCommand
	if cfg.Notifications.Enabled {
		server := dbus.NewNotificationServer(c.history, logger)
		info := dbus.DefaultServerInfo()
		info.Version = version
		server.SetServerInfo(info)

		if err := server.Start(ctx); err != nil {
			logger.Warn("notification daemon disabled", "error", err)
			notifier.NotifyBusUnavailable(err)
		} else {
			c.server = server
			commands = server.Commands()
			c.supervisor.Add(source.Func("notifications", server.Run))
		}
	}

	state := shell.NewState(shell.Options{
		Expiry:     shell.ExpiryFromConfig(cfg.Notifications),
		MaxVisible: cfg.Notifications.MaxVisible,
		Commands:   commands,
		Logger:     logger,
	})

	if c.server != nil {
		dispatch.Subscribe(d, "notifications", c.server.Events(), state.ApplyDaemon)
	}
	dispatch.Subscribe(d, "internal", notifier.Events(), state.ApplyInternal)

	// Notification center
	if !c.history.Degraded() {
		// Pick up hyprbarctl read/prune from outside the process.
		watcher, err := store.NewFileWatcher(c.history, dbPath, logger)
		if err == nil {
			err = watcher.Start()
		}
		if err != nil {
			logger.Warn("history file watcher unavailable", "error", err)
		} else {
			c.watcher = watcher
		}
	}
	snapshots := make(chan poll.Reading[daemon.HistorySnapshot], 4)
	c.supervisor.Add(daemon.NewHistoryFeed(c.history, cfg.History.Recent, logger).Worker(snapshots))
	dispatch.Subscribe(d, "history", snapshots, state.ApplyHistory)

	// Compositor
	client, err := hyprland.DefaultClient()
	if err != nil {
		logger.Warn("compositor request socket unavailable", "error", err)
	}
	if eventPath, err := hyprland.EventSocketPath(); err != nil {
		logger.Warn("compositor event socket unavailable", "error", err)
	} else {
		var resolver hyprland.MonitorResolver
		if client != nil {
			resolver = client
		}
		listener := hyprland.NewListener(eventPath, resolver, logger)
		events := make(chan hyprland.Event, 64)
		c.supervisor.Add(source.Func("compositor", func(ctx context.Context) error {
			return listener.Run(ctx, events)
		}))
		dispatch.Subscribe(d, "compositor", events, state.ApplyCompositor)
	}

	// Polling workers
	if cfg.Bar.Battery {
		battery := poll.New("battery", cfg.Poll.Battery.Duration(), poll.NewBatteryReader().Read, logger)
		readings := make(chan poll.Reading[poll.Battery], 4)
		c.supervisor.Add(battery.Worker(readings))
		dispatch.Subscribe(d, "battery", readings, state.ApplyBattery)
	}
	if cfg.Bar.Volume {
		c.volume = poll.NewVolumeReader(poll.Exec)
		volume := poll.New("volume", cfg.Poll.Volume.Duration(), c.volume.Read, logger)
		readings := make(chan poll.Reading[poll.Volume], 4)
		c.supervisor.Add(volume.Worker(readings))
		dispatch.Subscribe(d, "volume", readings, state.ApplyVolume)
	}
	if cfg.Bar.Network {
		network := poll.New("network", cfg.Poll.Network.Duration(), poll.NewNetworkReader(poll.Exec).Read, logger)
		readings := make(chan poll.Reading[poll.Link], 4)
		c.supervisor.Add(network.Worker(readings))
		dispatch.Subscribe(d, "network", readings, state.ApplyNetwork)
	}
	if cfg.Bar.Media {
		c.media = poll.NewMediaReader(nil)
		media := poll.New("media", cfg.Poll.Media.Duration(), c.media.Read, logger)
		readings := make(chan poll.Reading[poll.Media], 4)
		c.supervisor.Add(media.Worker(readings))
		dispatch.Subscribe(d, "media", readings, state.ApplyMedia)
	}

	// Context switchers
	var providers []switcher.Provider
	if cfg.Switcher.Kube {
		providers = append(providers, switcher.NewKube(cfg.Switcher.Kubeconfig))
	}
	if cfg.Switcher.Gcloud {
		providers = append(providers, switcher.NewGcloud(poll.Exec))
	}
	for _, p := range providers {
		poller := switcher.Poller(p, cfg.Poll.Command.Duration(), logger)
		sw := switcher.New(p, switcher.Options{
			Clock:    display.MainLoop{},
			Debounce: cfg.Switcher.Debounce.Duration(),
			Refresh:  poller.Refresh,
			Logger:   logger.With("switcher", p.Name()),
		})
		readings := make(chan poll.Reading[switcher.State], 4)
		c.supervisor.Add(poller.Worker(readings))
		dispatch.Subscribe(d, "switcher-"+p.Name(), readings, func(r poll.Reading[switcher.State]) {
			state.ApplySwitcher(sw, r)
		})
		c.switchers = append(c.switchers, sw)
	}

	// Workspace previews
	var capturer *capture.Capturer
	if cfg.Capture.Enabled {
		capturer = capture.NewCapturer(capture.NewGrimProducer(cfg.Capture.Command), cfg.Capture.ThumbnailWidth, logger)
		frames := make(chan capture.Frame, 4)
		c.supervisor.Add(capturer.Worker(frames))
		dispatch.Subscribe(d, "capture", frames, state.ApplyFrame)
	}

	// Style
	loader := theme.NewLoader(notifier.NotifyThemeError, logger)
	search := theme.DefaultSearch(cfg.StylePath())
	current, err := search.Resolve()
	if err != nil {
		logger.Warn("failed to resolve style, using built-in", "error", err)
		notifier.NotifyThemeError(err)
	}
	loader.Load(current)
	loader.Apply(nil)
	theme.SetColorScheme(cfg.Theme.ColorScheme)

	styles := theme.NewWatcher(search, current, logger)
	c.supervisor.Add(styles)
	dispatch.Subscribe(d, "style", styles.Events(), func(u theme.Update) {
		if u.Err != nil {
			notifier.NotifyThemeError(u.Err)
			return
		}
		loader.Load(u.Theme)
	})

	// Layout
	barLayout, err := layout.Resolve(cfg.LayoutPath())
	if err != nil {
		logger.Warn("failed to load bar layout, using default", "layout", cfg.Bar.Layout, "error", err)
		notifier.NotifyConfigError(err)
		barLayout = layout.DefaultLayout()
	}

	c.shell, err = display.New(display.Options{
		App:       &app.Application,
		Config:    cfg,
		Layout:    barLayout,
		State:     state,
		Client:    client,
		Capturer:  capturer,
		Switchers: c.switchers,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to create shell", "error", err)
		c.shutdown(logger)
		return components{}
	}

	// Config reload
	configs := daemon.NewConfigWatcher(opts.configPath, cfg, logger)
	c.supervisor.Add(configs)
	dispatch.Subscribe(d, "config", configs.Events(), func(r daemon.ConfigReload) {
		if r.Err != nil {
			notifier.NotifyConfigError(r.Err)
			return
		}
		next := r.Config

		l, err := layout.Resolve(next.LayoutPath())
		if err != nil {
			notifier.NotifyConfigError(err)
			l = layout.DefaultLayout()
		}
		c.shell.UpdateConfig(next, l)
		notifier.SetMinInterval(next.Notifications.RateLimit.Duration())

		if next.Theme.ColorScheme != cfg.Theme.ColorScheme {
			theme.SetColorScheme(next.Theme.ColorScheme)
		}
		if next.StylePath() != cfg.StylePath() {
			// The watcher keeps its original search path until restart.
			t, err := theme.DefaultSearch(next.StylePath()).Resolve()
			if err != nil {
				notifier.NotifyThemeError(err)
			}
			loader.Load(t)
		}
		cfg = next
		notifier.NotifyConfigReloaded()
	})

	c.shell.Start(ctx, d)
	if err := c.supervisor.Start(ctx); err != nil {
		logger.Error("failed to start workers", "error", err)
	}
	logger.Debug("workers started", "workers", c.supervisor.Names(), "sources", d.Sources())
	return c
}

// shutdown stops the shell, waits for workers and releases the store.
func (c *components) shutdown(logger *slog.Logger) {
	if c.shell != nil {
		c.shell.Stop()
		c.shell = nil
	}
	for _, sw := range c.switchers {
		sw.Wait()
	}
	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			logger.Warn("error stopping notification daemon", "error", err)
		}
		c.server = nil
	}

	if c.supervisor != nil {
		done := make(chan struct{})
		go func() {
			if err := c.supervisor.Wait(); err != nil {
				logger.Debug("workers exited", "error", err)
			}
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(shutdownTimeout):
			logger.Warn("workers did not exit in time")
		}
		c.supervisor = nil
	}

	if c.volume != nil {
		c.volume.Close()
		c.volume = nil
	}
	if c.media != nil {
		_ = c.media.Close()
		c.media = nil
	}
	if c.watcher != nil {
		_ = c.watcher.Stop()
		c.watcher = nil
	}
	if c.history != nil {
		if err := c.history.Close(); err != nil {
			logger.Warn("error closing store", "error", err)
		}
		c.history = nil
	}
}
