package model

import "time"

// Horizon is the closed planning window [Start, End] in UTC over which a
// case is propagated, scheduled, and scored.
type Horizon struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (h Horizon) Duration() time.Duration {
	return h.End.Sub(h.Start)
}

// Contains reports whether t lies inside the closed horizon.
func (h Horizon) Contains(t time.Time) bool {
	return !t.Before(h.Start) && !t.After(h.End)
}

// Clamp restricts t to the horizon bounds.
func (h Horizon) Clamp(t time.Time) time.Time {
	if t.Before(h.Start) {
		return h.Start
	}
	if t.After(h.End) {
		return h.End
	}
	return t
}

// Overlap returns the intersection of two horizons and whether it is
// non-empty.
func (h Horizon) Overlap(other Horizon) (Horizon, bool) {
	start := h.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := h.End
	if other.End.Before(end) {
		end = other.End
	}
	if end.Before(start) {
		return Horizon{}, false
	}
	return Horizon{Start: start, End: end}, true
}

// Interval is a closed time range [T0, T1] with T0 <= T1. It is the atomic
// unit of visibility and chain-activity results. Zero-duration intervals
// represent instantaneous tangencies; the visibility engine drops them by
// convention.
type Interval struct {
	T0 time.Time `json:"t0"`
	T1 time.Time `json:"t1"`
}

// Duration returns T1 - T0.
func (iv Interval) Duration() time.Duration {
	return iv.T1.Sub(iv.T0)
}

// Contains reports whether t lies inside the closed interval.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.T0) && !t.After(iv.T1)
}

// IntersectIntervals returns the pairwise intersection of two sorted,
// non-overlapping interval sequences. The result is again sorted and
// non-overlapping; zero-duration intersections are dropped.
func IntersectIntervals(a, b []Interval) []Interval {
	var out []Interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := a[i].T0
		if b[j].T0.After(start) {
			start = b[j].T0
		}
		end := a[i].T1
		if b[j].T1.Before(end) {
			end = b[j].T1
		}
		if end.After(start) {
			out = append(out, Interval{T0: start, T1: end})
		}
		// Advance whichever interval ends first.
		if a[i].T1.Before(b[j].T1) {
			i++
		} else {
			j++
		}
	}
	return out
}

// TotalDuration sums the durations of a set of intervals.
func TotalDuration(ivs []Interval) time.Duration {
	var total time.Duration
	for _, iv := range ivs {
		total += iv.Duration()
	}
	return total
}
