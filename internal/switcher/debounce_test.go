package switcher

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_FiresOnce(t *testing.T) {
	clock := &fakeClock{}
	fired := 0
	d := NewDebouncer(clock, 500*time.Millisecond, func() { fired++ })

	d.Trigger()
	assert.True(t, d.Pending())

	clock.Advance(499 * time.Millisecond)
	assert.Equal(t, 0, fired)

	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.False(t, d.Pending())

	clock.Advance(time.Hour)
	assert.Equal(t, 1, fired)
}

func TestDebouncer_CancelWithinWindow(t *testing.T) {
	clock := &fakeClock{}
	fired := 0
	d := NewDebouncer(clock, 500*time.Millisecond, func() { fired++ })

	d.Trigger()
	clock.Advance(300 * time.Millisecond)
	d.Cancel()
	clock.Advance(time.Second)

	assert.Equal(t, 0, fired)
	assert.False(t, d.Pending())
}

func TestDebouncer_RetriggerRestarts(t *testing.T) {
	clock := &fakeClock{}
	fired := 0
	d := NewDebouncer(clock, 500*time.Millisecond, func() { fired++ })

	d.Trigger()
	clock.Advance(400 * time.Millisecond)
	d.Trigger()
	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, 0, fired)

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

// A stale callback that slipped past Stop must not fire.
type leakyClock struct {
	fakeClock
}

type leakyTimer struct{ *fakeTimer }

func (t leakyTimer) Stop() bool { return false }

func (c *leakyClock) AfterFunc(d time.Duration, f func()) Timer {
	return leakyTimer{c.fakeClock.AfterFunc(d, f).(*fakeTimer)}
}

func TestDebouncer_StaleCallbackIgnored(t *testing.T) {
	clock := &leakyClock{}
	fired := 0
	d := NewDebouncer(clock, 500*time.Millisecond, func() { fired++ })

	d.Trigger()
	d.Cancel()
	clock.Advance(time.Second)
	assert.Equal(t, 0, fired)
}

// Random focus-loss/regain sequences: the debouncer fires exactly when a
// loss is followed by a quiet window without regain.
func TestDebouncer_RandomSequences(t *testing.T) {
	const window = 500 * time.Millisecond
	rng := rand.New(rand.NewPCG(7, 11))

	for range 200 {
		clock := &fakeClock{}
		fired := 0
		d := NewDebouncer(clock, window, func() { fired++ })

		expected := 0
		pending := false
		var since time.Duration
		for range 20 {
			step := time.Duration(rng.IntN(800)) * time.Millisecond
			if pending && since+step >= window {
				expected++
				pending = false
			}
			since += step
			clock.Advance(step)

			if rng.IntN(2) == 0 {
				d.Trigger()
				pending, since = true, 0
			} else {
				d.Cancel()
				pending = false
			}
		}
		clock.Advance(window)
		if pending {
			expected++
		}
		assert.Equal(t, expected, fired)
	}
}
