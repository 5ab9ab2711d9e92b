package monitor

import (
	"log/slog"
	"sort"
)

// Bar is a live per-monitor bar instance.
type Bar interface {
	// Destroy tears the bar down and releases its resources.
	Destroy()
}

// BarFactory creates the bar for a new binding.
type BarFactory func(b Binding) (Bar, error)

type liveBar struct {
	binding Binding
	bar     Bar
}

// Reconciler owns one bar per binding. It must only be used from the UI
// thread and never starts goroutines.
type Reconciler struct {
	factory BarFactory
	logger  *slog.Logger
	live    map[string]*liveBar
}

// NewReconciler creates a reconciler that builds bars with factory.
func NewReconciler(factory BarFactory, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		factory: factory,
		logger:  logger,
		live:    make(map[string]*liveBar),
	}
}

// Reconcile matches the monitor sets and brings the live bars in line:
// bars whose display monitor vanished or whose output changed are torn
// down, new bindings get a bar. It returns the live bindings.
func (r *Reconciler) Reconcile(display []DisplayMonitor, comp []CompositorMonitor) []Binding {
	bindings := Match(display, comp)

	wanted := make(map[string]Binding, len(bindings))
	for _, b := range bindings {
		if _, dup := wanted[b.Display.Key]; dup {
			r.logger.Warn("duplicate display monitor key, skipping", "key", b.Display.Key, "index", b.Display.Index)
			continue
		}
		wanted[b.Display.Key] = b
	}

	for key, lb := range r.live {
		b, ok := wanted[key]
		if ok && b.Name == lb.binding.Name {
			lb.binding = b
			continue
		}
		r.logger.Info("removing bar", "monitor", lb.binding.Name, "key", key)
		lb.bar.Destroy()
		delete(r.live, key)
	}

	for _, b := range bindings {
		if _, ok := r.live[b.Display.Key]; ok {
			continue
		}
		if w, ok := wanted[b.Display.Key]; !ok || w.Display.Index != b.Display.Index {
			continue
		}
		bar, err := r.factory(b)
		if err != nil {
			r.logger.Error("failed to create bar", "monitor", b.Name, "error", err)
			continue
		}
		r.logger.Info("created bar", "monitor", b.Name, "key", b.Display.Key, "match", b.Method.String())
		r.live[b.Display.Key] = &liveBar{binding: b, bar: bar}
	}

	return r.Bindings()
}

// Bindings returns the live bindings ordered by display index.
func (r *Reconciler) Bindings() []Binding {
	out := make([]Binding, 0, len(r.live))
	for _, lb := range r.live {
		out = append(out, lb.binding)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Display.Index < out[j].Display.Index })
	return out
}

// Len returns the number of live bars.
func (r *Reconciler) Len() int {
	return len(r.live)
}

// Each calls fn for every live bar.
func (r *Reconciler) Each(fn func(b Binding, bar Bar)) {
	for _, b := range r.Bindings() {
		fn(b, r.live[b.Display.Key].bar)
	}
}

// Close destroys every bar.
func (r *Reconciler) Close() {
	for key, lb := range r.live {
		lb.bar.Destroy()
		delete(r.live, key)
	}
}
