package shell

import (
	"log/slog"
	"math"
	"time"

	"github.com/jmylchreest/hyprbar/internal/capture"
	"github.com/jmylchreest/hyprbar/internal/daemon"
	"github.com/jmylchreest/hyprbar/internal/dbus"
	"github.com/jmylchreest/hyprbar/internal/hyprland"
	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/poll"
	"github.com/jmylchreest/hyprbar/internal/switcher"
)

// Dirty flags mark which widgets need a redraw after a drain.
type Dirty uint

const (
	DirtyWorkspaces Dirty = 1 << iota
	DirtyWindow
	DirtyBattery
	DirtyVolume
	DirtyNetwork
	DirtySwitchers
	DirtyToasts
	DirtyThumbnails
	DirtyMonitors
	DirtyHistory
	DirtyMedia
)

// Has reports whether any of flags is set.
func (d Dirty) Has(flags Dirty) bool {
	return d&flags != 0
}

// UnknownLabel is shown for a source whose last read failed.
const UnknownLabel = "unknown"

// Labeled is a reading value that knows how to present itself.
type Labeled interface {
	Label() string
	Icon() string
}

// Label renders a reading, or UnknownLabel when the read failed.
func Label[T Labeled](r poll.Reading[T]) string {
	if !r.Known {
		return UnknownLabel
	}
	return r.Value.Label()
}

// Icon returns the reading's icon, or empty when the read failed.
func Icon[T Labeled](r poll.Reading[T]) string {
	if !r.Known {
		return ""
	}
	return r.Value.Icon()
}

// Options configures a State.
type Options struct {
	Expiry     ExpiryPolicy
	MaxVisible int
	// Commands is the daemon's command relay. It may be nil when the
	// notification daemon is disabled.
	Commands chan<- model.DaemonCommand
	Logger   *slog.Logger
}

// State is everything the bars and toasts render. It is applied to by the
// Dispatcher and read by the views, both on the UI thread.
type State struct {
	Workspaces *Workspaces
	Toasts     *Toasts

	Battery poll.Reading[poll.Battery]
	Volume  poll.Reading[poll.Volume]
	Network poll.Reading[poll.Link]
	Media   poll.Reading[poll.Media]
	History poll.Reading[daemon.HistorySnapshot]

	thumbnails map[int]capture.Frame
	commands   chan<- model.DaemonCommand
	logger     *slog.Logger
	now        func() time.Time
	dirty      Dirty
}

// NewState creates an empty state.
func NewState(opts Options) *State {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	expiry := opts.Expiry
	if expiry == (ExpiryPolicy{}) {
		expiry = DefaultExpiryPolicy()
	}
	return &State{
		Workspaces: NewWorkspaces(),
		Toasts:     NewToasts(expiry, opts.MaxVisible),
		thumbnails: make(map[int]capture.Frame),
		commands:   opts.Commands,
		logger:     logger,
		now:        time.Now,
	}
}

// TakeDirty returns the accumulated dirty flags and clears them.
func (s *State) TakeDirty() Dirty {
	d := s.dirty
	s.dirty = 0
	return d
}

// Touch marks widgets dirty for a change that did not come through Apply,
// such as a popup opened by a click.
func (s *State) Touch(d Dirty) {
	s.dirty |= d
}

// ApplyCompositor folds a compositor event into the workspace view.
func (s *State) ApplyCompositor(ev hyprland.Event) {
	switch ev.Kind {
	case hyprland.ActiveWindowChanged:
		s.dirty |= DirtyWindow
	case hyprland.WorkspaceDestroyed:
		if _, ok := s.thumbnails[ev.WorkspaceID]; ok {
			delete(s.thumbnails, ev.WorkspaceID)
			s.dirty |= DirtyThumbnails
		}
		s.dirty |= DirtyWorkspaces
	default:
		s.dirty |= DirtyWorkspaces
	}
	if s.Workspaces.Apply(ev) {
		s.dirty |= DirtyMonitors
	}
}

// ApplyBattery stores a battery reading.
func (s *State) ApplyBattery(r poll.Reading[poll.Battery]) {
	s.Battery = r
	s.dirty |= DirtyBattery
}

// ApplyVolume stores a volume reading.
func (s *State) ApplyVolume(r poll.Reading[poll.Volume]) {
	s.Volume = r
	s.dirty |= DirtyVolume
}

// ApplyNetwork stores a network reading.
func (s *State) ApplyNetwork(r poll.Reading[poll.Link]) {
	s.Network = r
	s.dirty |= DirtyNetwork
}

// ApplyMedia stores an MPRIS reading.
func (s *State) ApplyMedia(r poll.Reading[poll.Media]) {
	s.Media = r
	s.dirty |= DirtyMedia
}

// ApplyHistory stores a notification center snapshot.
func (s *State) ApplyHistory(r poll.Reading[daemon.HistorySnapshot]) {
	s.History = r
	s.dirty |= DirtyHistory
}

// ApplySwitcher hands a provider reading to its switcher.
func (s *State) ApplySwitcher(sw *switcher.Switcher, r poll.Reading[switcher.State]) {
	sw.Apply(r)
	s.dirty |= DirtySwitchers
}

// ApplyDaemon shows or drops a toast for a daemon event.
func (s *State) ApplyDaemon(ev dbus.Event) {
	switch ev.Kind {
	case dbus.EventShow:
		s.Toasts.Show(ev.Notification, s.now())
		s.dirty |= DirtyToasts
	case dbus.EventDrop:
		if s.Toasts.Drop(uint64(ev.ID)) {
			s.dirty |= DirtyToasts
		}
	}
}

// ApplyInternal shows a notification raised by the shell itself.
func (s *State) ApplyInternal(n model.Notification) {
	s.Toasts.Show(n, s.now())
	s.dirty |= DirtyToasts
}

// ApplyFrame stores a workspace thumbnail.
func (s *State) ApplyFrame(f capture.Frame) {
	s.thumbnails[f.Workspace] = f
	s.dirty |= DirtyThumbnails
}

// Thumbnail returns the latest capture of a workspace.
func (s *State) Thumbnail(workspace int) (capture.Frame, bool) {
	f, ok := s.thumbnails[workspace]
	return f, ok
}

// Dismiss closes a toast on user request.
func (s *State) Dismiss(id uint64) {
	cmd, ok := s.Toasts.Dismiss(id)
	s.dirty |= DirtyToasts
	if ok {
		s.relay(cmd)
	}
}

// Invoke activates a toast action.
func (s *State) Invoke(id uint64, key string) {
	cmd, ok := s.Toasts.Invoke(id, key)
	s.dirty |= DirtyToasts
	if ok {
		s.relay(cmd)
	}
}

// ExpireToasts closes every toast that timed out.
func (s *State) ExpireToasts() {
	before := s.Toasts.Len()
	for _, cmd := range s.Toasts.Expire(s.now()) {
		s.relay(cmd)
	}
	if s.Toasts.Len() != before {
		s.dirty |= DirtyToasts
	}
}

// MarkRead asks the daemon to mark one history row read. The store change
// comes back as a new snapshot.
func (s *State) MarkRead(id uint64) {
	if model.IsInternalID(id) || id > math.MaxUint32 {
		return
	}
	s.relay(model.MarkReadCommand(uint32(id)))
}

// MarkAllRead asks the daemon to mark the whole history read.
func (s *State) MarkAllRead() {
	s.relay(model.MarkAllReadCommand())
}

// ClearHistory asks the daemon to delete the whole history.
func (s *State) ClearHistory() {
	s.relay(model.ClearHistoryCommand())
}

// relay hands a command to the daemon. The UI thread never waits on the
// daemon, so a full relay drops the command.
func (s *State) relay(cmd model.DaemonCommand) {
	if s.commands == nil {
		return
	}
	select {
	case s.commands <- cmd:
	default:
		s.logger.Error("command relay full, dropping command", "command", cmd.String())
	}
}
