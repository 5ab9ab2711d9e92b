// Package poll implements the periodic Source Workers: battery, volume,
// network link and external-tool status.
package poll

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/hyprbar/internal/source"
)

// Default poll intervals per source kind.
const (
	BatteryInterval = 30 * time.Second
	VolumeInterval  = time.Second
	NetworkInterval = 5 * time.Second
	CommandInterval = 5 * time.Second
)

// Reading is one poll result. Known is false when the read failed; the
// widget then shows an "unknown" state.
type Reading[T any] struct {
	Value T
	Known bool
	Err   error
	At    time.Time
}

// Poller runs Read on a fixed interval and forwards every result.
type Poller[T any] struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single read; defaults to Interval, at least one second.
	Timeout time.Duration
	Read    func(ctx context.Context) (T, error)
	Logger  *slog.Logger

	refresh chan struct{}
}

// New creates a poller.
func New[T any](name string, interval time.Duration, read func(ctx context.Context) (T, error), logger *slog.Logger) *Poller[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller[T]{
		Name:     name,
		Interval: interval,
		Read:     read,
		Logger:   logger,
		refresh:  make(chan struct{}, 1),
	}
}

// Refresh asks a running poller to read now instead of waiting for the next
// tick. Pending requests coalesce. It is a no-op on pollers not built by New.
func (p *Poller[T]) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Once performs a single bounded read.
func (p *Poller[T]) Once(ctx context.Context) Reading[T] {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = max(p.Interval, time.Second)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := p.Read(ctx)
	r := Reading[T]{At: time.Now()}
	if err != nil {
		r.Err = err
		return r
	}
	r.Value = v
	r.Known = true
	return r
}

// Run reads immediately, then once per interval, until ctx is cancelled.
// A failed read is forwarded as an unknown reading; the loop never exits
// on read errors.
func (p *Poller[T]) Run(ctx context.Context, out chan<- Reading[T]) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	failing := false
	for {
		r := p.Once(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case r.Err != nil && !failing:
			logger.Warn("poll failed", "source", p.Name, "error", r.Err)
			failing = true
		case r.Err == nil && failing:
			logger.Info("poll recovered", "source", p.Name)
			failing = false
		}

		if !source.Send(ctx, out, r) {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-p.refresh:
			ticker.Reset(p.Interval)
		}
	}
}

// Worker binds the poller to its output channel.
func (p *Poller[T]) Worker(out chan<- Reading[T]) source.Worker {
	return source.Func(p.Name, func(ctx context.Context) error {
		return p.Run(ctx, out)
	})
}
