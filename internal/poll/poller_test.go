package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoller_FailureYieldsUnknownAndContinues(t *testing.T) {
	var calls atomic.Int32
	p := New("flaky", 10*time.Millisecond, func(context.Context) (int, error) {
		n := calls.Add(1)
		if n == 2 {
			return 0, errors.New("device busy")
		}
		return int(n), nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Reading[int], 8)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, out) }()

	first := <-out
	assert.True(t, first.Known)
	assert.Equal(t, 1, first.Value)

	second := <-out
	assert.False(t, second.Known)
	assert.EqualError(t, second.Err, "device busy")

	third := <-out
	assert.True(t, third.Known, "worker keeps running after a failed read")
	assert.Equal(t, 3, third.Value)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPoller_StalledReadIsBounded(t *testing.T) {
	p := New("stalled", time.Hour, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}, nil)
	p.Timeout = 20 * time.Millisecond

	start := time.Now()
	r := p.Once(context.Background())
	assert.False(t, r.Known)
	assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPoller_IndependentWorkers(t *testing.T) {
	block := make(chan struct{})
	slow := New("slow", time.Hour, func(ctx context.Context) (int, error) {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return 0, nil
	}, nil)
	slow.Timeout = time.Hour
	fast := New("fast", 5*time.Millisecond, func(context.Context) (int, error) { return 1, nil }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	slowOut := make(chan Reading[int], 1)
	fastOut := make(chan Reading[int], 16)
	done := make(chan struct{}, 2)
	go func() { _ = slow.Run(ctx, slowOut); done <- struct{}{} }()
	go func() { _ = fast.Run(ctx, fastOut); done <- struct{}{} }()

	for range 3 {
		select {
		case r := <-fastOut:
			assert.True(t, r.Known)
		case <-time.After(time.Second):
			t.Fatal("a stalled worker delayed another worker")
		}
	}

	cancel()
	close(block)
	<-done
	<-done
}

func TestPoller_Worker(t *testing.T) {
	p := New("n", time.Hour, func(context.Context) (int, error) { return 5, nil }, nil)
	out := make(chan Reading[int], 1)
	w := p.Worker(out)
	assert.Equal(t, "n", w.Name())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	assert.Equal(t, 5, (<-out).Value)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestPoller_Refresh(t *testing.T) {
	var calls atomic.Int32
	p := New("refresh", time.Hour, func(context.Context) (int32, error) {
		return calls.Add(1), nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Reading[int32], 4)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, out) }()

	assert.Equal(t, int32(1), (<-out).Value)

	p.Refresh()
	p.Refresh()
	select {
	case r := <-out:
		assert.Equal(t, int32(2), r.Value)
	case <-time.After(time.Second):
		t.Fatal("refresh did not trigger a read")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, Lines([]byte("a\n\n  b c  \n")))
	assert.Nil(t, Lines(nil))
}
