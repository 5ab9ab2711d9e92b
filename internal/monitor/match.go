// Package monitor binds display-system monitors to compositor outputs and
// keeps exactly one bar alive per binding.
package monitor

import (
	"fmt"
	"sort"
)

// DisplayMonitor is a monitor as seen by the toolkit.
type DisplayMonitor struct {
	// Key identifies the monitor across reconciles (the connector name when
	// the toolkit reports one, otherwise a synthetic key).
	Key       string
	Index     int
	X, Y      int
	Width     int
	Height    int
	Connector string
}

// CompositorMonitor is an output as seen by the compositor.
type CompositorMonitor struct {
	Name  string
	Index int
	X, Y  int
}

// Binding pairs a display monitor with the compositor output it shows.
type Binding struct {
	Display DisplayMonitor
	Name    string
	// Method records how the pair was made.
	Method MatchMethod
}

// MatchMethod records how a binding was made.
type MatchMethod int

const (
	ByPosition MatchMethod = iota + 1
	ByIndex
	Unmatched
)

func (m MatchMethod) String() string {
	switch m {
	case ByPosition:
		return "position"
	case ByIndex:
		return "index"
	case Unmatched:
		return "unmatched"
	default:
		return "unknown"
	}
}

// UnknownName is the output name given to a display monitor with no
// compositor output left to pair with.
func UnknownName(index int) string {
	return fmt.Sprintf("unknown-%d", index)
}

type point struct{ x, y int }

// Match pairs display monitors with compositor monitors.
//
// A display monitor binds by position when exactly one compositor monitor
// sits at its (x, y) and no other display monitor shares that position.
// Everything left pairs in ascending index order. Display monitors with no
// partner get UnknownName so a bar is still rendered. The result is ordered
// by display index; each compositor monitor is used at most once.
func Match(display []DisplayMonitor, comp []CompositorMonitor) []Binding {
	displays := append([]DisplayMonitor(nil), display...)
	sort.SliceStable(displays, func(i, j int) bool { return displays[i].Index < displays[j].Index })
	comps := append([]CompositorMonitor(nil), comp...)
	sort.SliceStable(comps, func(i, j int) bool { return comps[i].Index < comps[j].Index })

	displayAt := make(map[point]int)
	for _, d := range displays {
		displayAt[point{d.X, d.Y}]++
	}
	compAt := make(map[point][]int)
	for i, c := range comps {
		p := point{c.X, c.Y}
		compAt[p] = append(compAt[p], i)
	}

	bindings := make([]Binding, len(displays))
	bound := make([]bool, len(displays))
	used := make([]bool, len(comps))

	// Pass 1: unique position equality.
	for i, d := range displays {
		p := point{d.X, d.Y}
		candidates := compAt[p]
		if len(candidates) != 1 || displayAt[p] != 1 {
			continue
		}
		ci := candidates[0]
		bindings[i] = Binding{Display: d, Name: comps[ci].Name, Method: ByPosition}
		bound[i] = true
		used[ci] = true
	}

	// Pass 2: ascending index order among the leftovers.
	next := 0
	for i, d := range displays {
		if bound[i] {
			continue
		}
		for next < len(comps) && used[next] {
			next++
		}
		if next < len(comps) {
			bindings[i] = Binding{Display: d, Name: comps[next].Name, Method: ByIndex}
			used[next] = true
			next++
			continue
		}
		bindings[i] = Binding{Display: d, Name: UnknownName(d.Index), Method: Unmatched}
	}

	return bindings
}
