package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/missionbench/model"
	"github.com/signalsfoundry/missionbench/timegrid"
)

// AccessWindows computes the time intervals within h during which the two
// entities are mutually visible under the given constraint set.
//
// The result is sorted by start time, non-overlapping, fully contained in
// the intersection of h and the case horizon, and free of zero-duration
// entries (instantaneous tangencies are dropped). A pair that is never
// visible, or a query horizon that does not overlap the case horizon,
// yields an empty result, not an error.
//
// The visibility metric is sampled at the engine's coarse step; each sign
// change is then refined by bisection to the configured precision. Windows
// that extend past the horizon edge are clipped, never extrapolated.
func (e *Engine) AccessWindows(ctx context.Context, aID, bID string, h model.Horizon, cons []model.Constraint) ([]model.AccessWindow, error) {
	if !e.knows(aID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, aID)
	}
	if !e.knows(bID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, bID)
	}

	clipped, ok := h.Overlap(e.horizon)
	if !ok {
		return nil, nil
	}

	grid := timegrid.FromHorizon(clipped, e.opts.SampleStep)
	if !grid.Valid() {
		return nil, nil
	}

	var (
		out        []model.AccessWindow
		windowOpen bool
		openAt     time.Time
		maxElev    float64
		prevT      time.Time
		prevAbove  bool
	)

	closeWindow := func(end time.Time) {
		if end.After(openAt) {
			w := model.AccessWindow{
				EntityA:     aID,
				EntityB:     bID,
				Window:      model.Interval{T0: openAt, T1: end},
				Constraints: cons,
			}
			if !math.IsNaN(maxElev) {
				w.MaxElevationDeg = maxElev
			}
			out = append(out, w)
		}
		windowOpen = false
	}

	n := grid.Len()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := grid.At(i)

		margin, elev, err := e.sampleAt(aID, bID, t, cons)
		if err != nil {
			return nil, err
		}
		above := margin >= 0

		switch {
		case i == 0 && above:
			// Visible at the horizon edge: clip, do not extrapolate.
			windowOpen = true
			openAt = t
			maxElev = elev
		case above && !prevAbove:
			rise, err := e.refineCrossing(aID, bID, cons, prevT, t, true)
			if err != nil {
				return nil, err
			}
			windowOpen = true
			openAt = rise
			maxElev = elev
		case !above && prevAbove && windowOpen:
			set, err := e.refineCrossing(aID, bID, cons, prevT, t, false)
			if err != nil {
				return nil, err
			}
			closeWindow(set)
		case above && windowOpen:
			if !math.IsNaN(elev) && (math.IsNaN(maxElev) || elev > maxElev) {
				maxElev = elev
			}
		}

		prevT = t
		prevAbove = above
	}

	if windowOpen {
		closeWindow(clipped.End)
	}

	return out, nil
}

// AccessIntervals is AccessWindows reduced to its bare interval sequence.
func (e *Engine) AccessIntervals(ctx context.Context, aID, bID string, h model.Horizon, cons []model.Constraint) ([]model.Interval, error) {
	windows, err := e.AccessWindows(ctx, aID, bID, h, cons)
	if err != nil {
		return nil, err
	}
	out := make([]model.Interval, len(windows))
	for i, w := range windows {
		out[i] = w.Window
	}
	return out, nil
}

// sampleAt evaluates the combined visibility margin at t, plus the
// elevation when the pair has a ground side (NaN otherwise).
func (e *Engine) sampleAt(aID, bID string, t time.Time, cons []model.Constraint) (margin, elevDeg float64, err error) {
	g, err := e.pairGeometryAt(aID, bID, t)
	if err != nil {
		return 0, 0, err
	}
	margin = math.Inf(1)
	for _, c := range cons {
		if m := constraintMargin(c, g); m < margin {
			margin = m
		}
	}
	elevDeg = math.NaN()
	if g.ground != nil {
		elevDeg = ElevationDegrees(*g.ground, *g.space)
	}
	return margin, elevDeg, nil
}

// refineCrossing bisects a sign change of the visibility margin between lo
// and hi down to the engine precision. For a rising crossing it returns
// the earliest instant known to be visible; for a setting crossing, the
// latest. Either way the returned instant lies inside the window, so the
// reported interval never overstates visibility.
func (e *Engine) refineCrossing(aID, bID string, cons []model.Constraint, lo, hi time.Time, rising bool) (time.Time, error) {
	// Invariant: exactly one endpoint is visible; above tracks which.
	for hi.Sub(lo) > e.opts.Precision {
		half := (hi.Sub(lo) / 2).Truncate(time.Second)
		if half <= 0 {
			break
		}
		mid := lo.Add(half)

		margin, _, err := e.sampleAt(aID, bID, mid, cons)
		if err != nil {
			return time.Time{}, err
		}
		if margin >= 0 {
			if rising {
				hi = mid
			} else {
				lo = mid
			}
		} else {
			if rising {
				lo = mid
			} else {
				hi = mid
			}
		}
	}
	if rising {
		return hi, nil
	}
	return lo, nil
}
