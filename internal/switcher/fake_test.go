package switcher

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward and runs due callbacks in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

type fakeProvider struct {
	mu         sync.Mutex
	current    string
	candidates []string
	currentErr error
	listErr    error
	activated  []string
	activateFn func(string) error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Current(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.currentErr
}

func (p *fakeProvider) List(context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.candidates...), p.listErr
}

func (p *fakeProvider) Activate(_ context.Context, candidate string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activated = append(p.activated, candidate)
	if p.activateFn != nil {
		return p.activateFn(candidate)
	}
	p.current = candidate
	return nil
}

var errNoTool = errors.New("executable file not found")
