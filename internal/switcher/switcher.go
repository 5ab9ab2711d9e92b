package switcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/hyprbar/internal/poll"
)

// Options configures a Switcher.
type Options struct {
	Clock    Clock
	Debounce time.Duration
	// Refresh forces the provider's poller to read now.
	Refresh func()
	Logger  *slog.Logger
}

// Switcher is the popup controller for one provider. The UI calls it from
// the main thread; it owns no widgets and reports changes through the
// change handler.
type Switcher struct {
	mu         sync.Mutex
	provider   Provider
	appearance Appearance
	logger     *slog.Logger
	refresh    func()
	debounce   *Debouncer
	onChange   func()

	state State
	known bool
	open  bool

	inflight sync.WaitGroup
}

// New creates a controller for p.
func New(p Provider, opts Options) *Switcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Refresh == nil {
		opts.Refresh = func() {}
	}
	s := &Switcher{
		provider:   p,
		appearance: AppearanceOf(p),
		logger:     opts.Logger,
		refresh:    opts.Refresh,
		state:      State{Provider: p.Name()},
	}
	s.debounce = NewDebouncer(opts.Clock, opts.Debounce, s.Close)
	return s
}

// SetChangeHandler sets the function called after any visible change.
func (s *Switcher) SetChangeHandler(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Name returns the provider name.
func (s *Switcher) Name() string { return s.provider.Name() }

// Appearance returns the provider's appearance.
func (s *Switcher) Appearance() Appearance { return s.appearance }

// Apply records a poll result. An unknown reading keeps the last state.
func (s *Switcher) Apply(r poll.Reading[State]) {
	s.update(func() bool {
		if !r.Known {
			changed := s.known
			s.known = false
			return changed
		}
		s.state = r.Value
		s.known = true
		return true
	})
}

// State returns the last known state and whether it is current.
func (s *Switcher) State() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.known
}

// Label returns the bar label.
func (s *Switcher) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Label(s.appearance)
}

// IsOpen reports whether the popup is shown.
func (s *Switcher) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Toggle flips the popup.
func (s *Switcher) Toggle() {
	if s.IsOpen() {
		s.Close()
		return
	}
	s.Open()
}

// Open shows the popup.
func (s *Switcher) Open() {
	s.debounce.Cancel()
	s.update(func() bool {
		changed := !s.open
		s.open = true
		return changed
	})
}

// Close hides the popup.
func (s *Switcher) Close() {
	s.debounce.Cancel()
	s.update(func() bool {
		changed := s.open
		s.open = false
		return changed
	})
}

// FocusLost starts the close countdown.
func (s *Switcher) FocusLost() {
	if s.IsOpen() {
		s.debounce.Trigger()
	}
}

// FocusGained cancels a pending close.
func (s *Switcher) FocusGained() {
	s.debounce.Cancel()
}

// ClosePending reports whether a focus-loss countdown is running.
func (s *Switcher) ClosePending() bool {
	return s.debounce.Pending()
}

// Activate switches to candidate. The popup closes and the label updates
// immediately; the provider runs on its own goroutine and a refresh follows.
func (s *Switcher) Activate(ctx context.Context, candidate string) {
	s.debounce.Cancel()
	s.update(func() bool {
		s.open = false
		s.state.Current = candidate
		return true
	})

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.provider.Activate(ctx, candidate); err != nil {
			s.logger.Warn("failed to activate candidate",
				"provider", s.provider.Name(), "candidate", candidate, "error", err)
		}
		s.refresh()
	}()
}

// Wait blocks until in-flight activations finish.
func (s *Switcher) Wait() {
	s.inflight.Wait()
}

// update applies fn under the lock and runs the change handler if it
// reported a change.
func (s *Switcher) update(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	onChange := s.onChange
	s.mu.Unlock()

	if changed && onChange != nil {
		onChange()
	}
}
