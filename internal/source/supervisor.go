package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Worker is a long-running producer. Run blocks until ctx is cancelled.
// Workers handle their own failures; a returned error is logged, never
// propagated to other workers.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

// WorkerFunc adapts a function to the Worker interface.
type WorkerFunc struct {
	WorkerName string
	Fn         func(ctx context.Context) error
}

// Name implements Worker.
func (w WorkerFunc) Name() string { return w.WorkerName }

// Run implements Worker.
func (w WorkerFunc) Run(ctx context.Context) error { return w.Fn(ctx) }

// Func returns a named Worker backed by fn.
func Func(name string, fn func(ctx context.Context) error) Worker {
	return WorkerFunc{WorkerName: name, Fn: fn}
}

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("supervisor already started")

// Supervisor starts a fixed set of workers.
type Supervisor struct {
	logger  *slog.Logger
	mu      sync.Mutex
	workers []Worker
	group   *errgroup.Group
	ctx     context.Context
	started bool
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{logger: logger}
}

// Add registers a worker. Workers added after Start are started immediately.
func (s *Supervisor) Add(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workers = append(s.workers, w)
	if s.started {
		s.spawn(w)
	}
}

// Start launches every registered worker on its own goroutine.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.group, s.ctx = errgroup.WithContext(ctx)

	for _, w := range s.workers {
		s.spawn(w)
	}
	s.logger.Debug("source workers started", "count", len(s.workers))
	return nil
}

// Wait blocks until every worker has returned, which only happens after the
// context passed to Start is cancelled.
func (s *Supervisor) Wait() error {
	s.mu.Lock()
	g := s.group
	s.mu.Unlock()

	if g == nil {
		return nil
	}
	return g.Wait()
}

// Names returns the registered worker names in registration order.
func (s *Supervisor) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.workers))
	for i, w := range s.workers {
		names[i] = w.Name()
	}
	return names
}

func (s *Supervisor) spawn(w Worker) {
	ctx := s.ctx
	s.group.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("source worker panicked", "worker", w.Name(), "panic", fmt.Sprint(r))
			}
		}()

		runErr := w.Run(ctx)
		switch {
		case runErr == nil, errors.Is(runErr, context.Canceled):
			s.logger.Debug("source worker stopped", "worker", w.Name())
		default:
			s.logger.Error("source worker exited", "worker", w.Name(), "error", runErr)
		}
		// Never cancel siblings: one source failing must not stop the others.
		return nil
	})
}

// Send delivers v on ch, blocking only on this worker's own channel.
// It reports false when ctx is cancelled first.
func Send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
