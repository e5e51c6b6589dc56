package timegrid

import (
	"time"

	"github.com/signalsfoundry/missionbench/model"
)

// Grid samples a horizon at a fixed step. Unlike a live simulation clock,
// a Grid is pure data: iterating it twice yields the same instants, which
// keeps window detection and latency sampling bit-reproducible across
// agents, baselines, and verifiers.
type Grid struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
}

// FromHorizon builds a grid over the given horizon.
func FromHorizon(h model.Horizon, step time.Duration) Grid {
	return Grid{Start: h.Start, End: h.End, Step: step}
}

// Valid reports whether the grid can be iterated: positive step and a
// non-inverted range.
func (g Grid) Valid() bool {
	return g.Step > 0 && !g.End.Before(g.Start)
}

// Len returns the number of sample instants, including both endpoints.
// The end instant is always sampled even when it does not fall on a step
// boundary, so horizon edges are never extrapolated past.
func (g Grid) Len() int {
	if !g.Valid() {
		return 0
	}
	n := int(g.End.Sub(g.Start)/g.Step) + 1
	if g.Start.Add(time.Duration(n-1) * g.Step).Before(g.End) {
		n++
	}
	return n
}

// At returns the i-th sample instant. The final instant is clamped to the
// grid end.
func (g Grid) At(i int) time.Time {
	t := g.Start.Add(time.Duration(i) * g.Step)
	if t.After(g.End) {
		return g.End
	}
	return t
}

// Times materializes every sample instant in order.
func (g Grid) Times() []time.Time {
	n := g.Len()
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = g.At(i)
	}
	return out
}

// Walk invokes fn for each sample instant in order, stopping early when fn
// returns false.
func (g Grid) Walk(fn func(t time.Time) bool) {
	n := g.Len()
	for i := 0; i < n; i++ {
		if !fn(g.At(i)) {
			return
		}
	}
}
