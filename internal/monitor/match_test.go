package monitor

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func disp(index, x, y int) DisplayMonitor {
	return DisplayMonitor{Key: fmt.Sprintf("mon-%d-%d-%d", index, x, y), Index: index, X: x, Y: y, Width: 1920, Height: 1080}
}

func names(bindings []Binding) []string {
	out := make([]string, len(bindings))
	for i, b := range bindings {
		out[i] = b.Name
	}
	return out
}

func TestMatch_ByPosition(t *testing.T) {
	display := []DisplayMonitor{disp(0, 0, 0), disp(1, 1920, 0)}
	comp := []CompositorMonitor{
		{Name: "DP-1", Index: 0, X: 1920, Y: 0},
		{Name: "eDP-1", Index: 1, X: 0, Y: 0},
	}

	got := Match(display, comp)
	want := []Binding{
		{Display: display[0], Name: "eDP-1", Method: ByPosition},
		{Display: display[1], Name: "DP-1", Method: ByPosition},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Match() mismatch (-want +got):\n%s", diff)
	}
}

func TestMatch_IndexFallback(t *testing.T) {
	// Scaled outputs report different logical positions to the toolkit.
	display := []DisplayMonitor{disp(0, 0, 0), disp(1, 1536, 0)}
	comp := []CompositorMonitor{
		{Name: "eDP-1", Index: 0, X: 0, Y: 0},
		{Name: "DP-1", Index: 1, X: 1920, Y: 0},
	}

	got := Match(display, comp)
	assert.Equal(t, []string{"eDP-1", "DP-1"}, names(got))
	assert.Equal(t, ByPosition, got[0].Method)
	assert.Equal(t, ByIndex, got[1].Method)
}

func TestMatch_PositionTieFallsThroughToIndex(t *testing.T) {
	// Two mirrored display monitors at the same position.
	display := []DisplayMonitor{disp(0, 0, 0), disp(1, 0, 0)}
	comp := []CompositorMonitor{
		{Name: "HDMI-A-1", Index: 0, X: 0, Y: 0},
		{Name: "DP-2", Index: 1, X: 0, Y: 0},
	}

	got := Match(display, comp)
	assert.Equal(t, []string{"HDMI-A-1", "DP-2"}, names(got))
	for _, b := range got {
		assert.Equal(t, ByIndex, b.Method)
	}
}

func TestMatch_AmbiguousCompositorPosition(t *testing.T) {
	display := []DisplayMonitor{disp(0, 0, 0), disp(1, 2560, 0)}
	comp := []CompositorMonitor{
		{Name: "A", Index: 0, X: 0, Y: 0},
		{Name: "B", Index: 1, X: 0, Y: 0},
		{Name: "C", Index: 2, X: 2560, Y: 0},
	}

	got := Match(display, comp)
	assert.Equal(t, []string{"A", "C"}, names(got))
	assert.Equal(t, ByIndex, got[0].Method)
	assert.Equal(t, ByPosition, got[1].Method)
}

func TestMatch_MoreDisplaysThanOutputs(t *testing.T) {
	display := []DisplayMonitor{disp(0, 0, 0), disp(1, 1920, 0), disp(2, 3840, 0)}
	comp := []CompositorMonitor{{Name: "DP-1", Index: 0, X: 1920, Y: 0}}

	got := Match(display, comp)
	assert.Equal(t, []string{"unknown-0", "DP-1", "unknown-2"}, names(got))
	assert.Equal(t, Unmatched, got[0].Method)
}

func TestMatch_Empty(t *testing.T) {
	assert.Empty(t, Match(nil, []CompositorMonitor{{Name: "DP-1"}}))
	got := Match([]DisplayMonitor{disp(0, 0, 0)}, nil)
	assert.Equal(t, []string{"unknown-0"}, names(got))
}

func TestMatch_UnsortedInput(t *testing.T) {
	display := []DisplayMonitor{disp(1, 10, 10), disp(0, 20, 20)}
	comp := []CompositorMonitor{{Name: "second", Index: 1}, {Name: "first", Index: 0}}

	got := Match(display, comp)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Display.Index)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "second", got[1].Name)
}

// Every compositor monitor is used at most once and every display monitor
// gets exactly one binding, for arbitrary inputs.
func TestMatch_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	positions := []int{0, 1920, 3840}

	for iter := range 500 {
		nd, nc := rng.IntN(4), rng.IntN(4)
		var display []DisplayMonitor
		for i := range nd {
			display = append(display, disp(i, positions[rng.IntN(3)], 0))
		}
		var comp []CompositorMonitor
		for i := range nc {
			comp = append(comp, CompositorMonitor{Name: fmt.Sprintf("OUT-%d", i), Index: i, X: positions[rng.IntN(3)]})
		}

		got := Match(display, comp)
		require.Len(t, got, nd, "iteration %d", iter)

		seen := map[string]bool{}
		for _, b := range got {
			assert.False(t, seen[b.Name], "iteration %d: %s bound twice", iter, b.Name)
			seen[b.Name] = true
			if b.Method == ByPosition {
				assert.Equal(t, b.Display.X, comp[indexOf(comp, b.Name)].X)
			}
		}
		assert.Equal(t, min(nd, nc), countMatched(got), "iteration %d", iter)
	}
}

func indexOf(comp []CompositorMonitor, name string) int {
	for i, c := range comp {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func countMatched(bindings []Binding) int {
	n := 0
	for _, b := range bindings {
		if b.Method != Unmatched {
			n++
		}
	}
	return n
}

func TestMatchMethodString(t *testing.T) {
	assert.Equal(t, "position", ByPosition.String())
	assert.Equal(t, "index", ByIndex.String())
	assert.Equal(t, "unmatched", Unmatched.String())
	assert.Equal(t, "unknown", MatchMethod(0).String())
}
