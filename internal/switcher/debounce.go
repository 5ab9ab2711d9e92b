package switcher

import (
	"sync"
	"time"
)

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The GTK build runs them on the main loop; tests
// use a fake clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock schedules with time.AfterFunc.
type RealClock struct{}

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DefaultDebounce is the grace period between focus loss and popup close.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer fires once after Trigger unless Cancel or another Trigger comes
// first. A callback that was already scheduled when Cancel ran is discarded.
type Debouncer struct {
	mu    sync.Mutex
	clock Clock
	delay time.Duration
	fire  func()
	timer Timer
	gen   uint64
}

// NewDebouncer creates a debouncer. A nil clock uses RealClock.
func NewDebouncer(clock Clock, delay time.Duration, fire func()) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{clock: clock, delay: delay, fire: fire}
}

// Trigger (re)starts the countdown.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.gen != gen || d.timer == nil {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		fire := d.fire
		d.mu.Unlock()

		fire()
	})
}

// Cancel stops a pending countdown.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Pending reports whether a countdown is running.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
