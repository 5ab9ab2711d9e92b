package switcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hyprbar/internal/poll"
)

func newTestSwitcher(p Provider) (*Switcher, *fakeClock, *atomic.Int32) {
	clock := &fakeClock{}
	var refreshes atomic.Int32
	s := New(p, Options{
		Clock:   clock,
		Refresh: func() { refreshes.Add(1) },
	})
	return s, clock, &refreshes
}

func TestSwitcher_ToggleOpenClose(t *testing.T) {
	s, _, _ := newTestSwitcher(&fakeProvider{})
	changes := 0
	s.SetChangeHandler(func() { changes++ })

	s.Toggle()
	assert.True(t, s.IsOpen())
	s.Open()
	assert.Equal(t, 1, changes, "opening an open popup is not a change")

	s.Toggle()
	assert.False(t, s.IsOpen())
	assert.Equal(t, 2, changes)
}

func TestSwitcher_FocusLossClosesAfterDebounce(t *testing.T) {
	s, clock, _ := newTestSwitcher(&fakeProvider{})
	s.Open()

	s.FocusLost()
	assert.True(t, s.ClosePending())
	clock.Advance(499 * time.Millisecond)
	assert.True(t, s.IsOpen())

	clock.Advance(time.Millisecond)
	assert.False(t, s.IsOpen())
	assert.False(t, s.ClosePending())
}

func TestSwitcher_FocusRegainKeepsOpen(t *testing.T) {
	s, clock, _ := newTestSwitcher(&fakeProvider{})
	s.Open()

	s.FocusLost()
	clock.Advance(200 * time.Millisecond)
	s.FocusGained()
	clock.Advance(time.Second)

	assert.True(t, s.IsOpen())
}

func TestSwitcher_FocusLostWhileClosed(t *testing.T) {
	s, _, _ := newTestSwitcher(&fakeProvider{})
	s.FocusLost()
	assert.False(t, s.ClosePending())
}

func TestSwitcher_Apply(t *testing.T) {
	s, _, _ := newTestSwitcher(&fakeProvider{})
	assert.Equal(t, "none", s.Label())

	s.Apply(poll.Reading[State]{Known: true, Value: State{Provider: "fake", Current: "dev", Candidates: []string{"dev", "prod"}}})
	state, known := s.State()
	assert.True(t, known)
	assert.Equal(t, "dev", state.Current)
	assert.Equal(t, "dev", s.Label())

	// A failed poll keeps the last state but marks it stale.
	s.Apply(poll.Reading[State]{Err: errNoTool})
	state, known = s.State()
	assert.False(t, known)
	assert.Equal(t, "dev", state.Current)
}

func TestSwitcher_Activate(t *testing.T) {
	p := &fakeProvider{current: "dev", candidates: []string{"dev", "prod"}}
	s, _, refreshes := newTestSwitcher(p)
	s.Open()

	s.Activate(context.Background(), "prod")
	assert.False(t, s.IsOpen())
	assert.Equal(t, "prod", s.Label(), "label updates before the provider returns")

	s.Wait()
	assert.Equal(t, []string{"prod"}, p.activated)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestSwitcher_ActivateFailureStillRefreshes(t *testing.T) {
	p := &fakeProvider{activateFn: func(string) error { return errors.New("denied") }}
	s, _, refreshes := newTestSwitcher(p)

	s.Activate(context.Background(), "prod")
	s.Wait()
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestSwitcher_ActivateCancelsPendingClose(t *testing.T) {
	s, clock, _ := newTestSwitcher(&fakeProvider{})
	s.Open()
	s.FocusLost()

	s.Activate(context.Background(), "x")
	s.Wait()
	assert.False(t, s.ClosePending())

	s.Open()
	clock.Advance(time.Second)
	assert.True(t, s.IsOpen(), "stale close must not hide a reopened popup")
}

func TestRead(t *testing.T) {
	ctx := context.Background()

	t.Run("current and list", func(t *testing.T) {
		st, err := Read(ctx, &fakeProvider{current: "b", candidates: []string{"a", "b"}})
		require.NoError(t, err)
		assert.Equal(t, State{Provider: "fake", Current: "b", Candidates: []string{"a", "b"}}, st)
	})

	t.Run("current missing from list", func(t *testing.T) {
		st, err := Read(ctx, &fakeProvider{current: "c", candidates: []string{"a"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, st.Candidates)
	})

	t.Run("list failure", func(t *testing.T) {
		st, err := Read(ctx, &fakeProvider{current: "c", listErr: errNoTool})
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, st.Candidates)
	})

	t.Run("current failure", func(t *testing.T) {
		_, err := Read(ctx, &fakeProvider{currentErr: errNoTool})
		assert.ErrorIs(t, err, errNoTool)
	})
}

func TestPollerWrapsProvider(t *testing.T) {
	p := Poller(&fakeProvider{current: "dev"}, 0, nil)
	assert.Equal(t, "fake", p.Name)
	assert.Equal(t, poll.CommandInterval, p.Interval)

	r := p.Once(context.Background())
	require.True(t, r.Known)
	assert.Equal(t, "dev", r.Value.Current)
}

func TestTruncateMiddle(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		max    int
		expect string
	}{
		{"fits", "dev", 24, "dev"},
		{"exact", "abcdefghij", 10, "abcdefghij"},
		{"long", "gke_my-project_europe-west1_prod-cluster", 24, "gke_my-pro...rod-cluster"},
		{"odd split", "abcdefghijkl", 10, "abc...ijkl"},
		{"runes", "ääääääääääää", 7, "ää...ää"},
		{"tiny", "abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateMiddle(tt.in, tt.max)
			assert.Equal(t, tt.expect, got)
			assert.LessOrEqual(t, len([]rune(got)), tt.max)
		})
	}
}

func TestStateLabel(t *testing.T) {
	a := NewGcloud(nil).Appearance()
	assert.Equal(t, "no config", State{}.Label(a))
	assert.Equal(t, "default", State{Current: "default"}.Label(a))
	assert.Len(t, []rune(State{Current: "a-very-long-configuration-name"}.Label(a)), 20)
}
