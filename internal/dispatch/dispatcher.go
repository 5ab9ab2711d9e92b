// Package dispatch moves values from Source Worker channels onto the UI thread.
package dispatch

import (
	"log/slog"
	"time"
)

// DefaultTick is the drain period of the Dispatcher.
const DefaultTick = 16 * time.Millisecond

// Scheduler runs fn on the UI thread every period until stop is called.
type Scheduler interface {
	Every(period time.Duration, fn func()) (stop func())
}

// source is a type-erased subscription.
type source interface {
	name() string
	drain() int
	done() bool
}

// Dispatcher drains every subscribed channel on a fixed tick.
// All methods must be called from the UI thread.
type Dispatcher struct {
	tick       time.Duration
	logger     *slog.Logger
	sources    []source
	afterDrain func(applied int)
	stop       func()
}

// New creates a Dispatcher with the given tick (DefaultTick when zero).
func New(tick time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Dispatcher{tick: tick, logger: logger}
}

// Tick returns the drain period.
func (d *Dispatcher) Tick() time.Duration {
	return d.tick
}

// SetAfterDrainHandler sets a callback run once after any drain that applied
// at least one message.
func (d *Dispatcher) SetAfterDrainHandler(fn func(applied int)) {
	d.afterDrain = fn
}

// Sources returns the names of the subscribed channels.
func (d *Dispatcher) Sources() []string {
	names := make([]string, len(d.sources))
	for i, s := range d.sources {
		names[i] = s.name()
	}
	return names
}

// Drain receives from every channel without blocking until each one is
// empty, applying messages in receive order. It returns the number applied.
// Closed channels are dropped from the set.
func (d *Dispatcher) Drain() int {
	total := 0
	live := d.sources[:0]
	for _, s := range d.sources {
		total += s.drain()
		if s.done() {
			d.logger.Debug("dispatch source closed", "source", s.name())
			continue
		}
		live = append(live, s)
	}
	for i := len(live); i < len(d.sources); i++ {
		d.sources[i] = nil
	}
	d.sources = live

	if total > 0 && d.afterDrain != nil {
		d.afterDrain(total)
	}
	return total
}

// Attach starts draining on every tick through the scheduler.
func (d *Dispatcher) Attach(s Scheduler) {
	if d.stop != nil {
		return
	}
	d.stop = s.Every(d.tick, func() { d.Drain() })
	d.logger.Debug("dispatcher attached", "tick", d.tick, "sources", len(d.sources))
}

// Detach stops the tick.
func (d *Dispatcher) Detach() {
	if d.stop == nil {
		return
	}
	d.stop()
	d.stop = nil
}

// Attached reports whether the tick is running.
func (d *Dispatcher) Attached() bool {
	return d.stop != nil
}

type subscription[T any] struct {
	label  string
	ch     <-chan T
	apply  func(T)
	closed bool
}

func (s *subscription[T]) name() string { return s.label }
func (s *subscription[T]) done() bool   { return s.closed }

func (s *subscription[T]) drain() int {
	n := 0
	for {
		select {
		case v, ok := <-s.ch:
			if !ok {
				s.closed = true
				return n
			}
			s.apply(v)
			n++
		default:
			return n
		}
	}
}

// Subscribe registers ch with d. Every value received is passed to apply on
// the UI thread.
func Subscribe[T any](d *Dispatcher, name string, ch <-chan T, apply func(T)) {
	d.sources = append(d.sources, &subscription[T]{label: name, ch: ch, apply: apply})
}
