package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/missionbench/model"
)

// speedOfLightKmS is the one-way propagation speed used for hop latency.
const speedOfLightKmS = 299792.458

// ChainActiveIntervals returns the intervals within h during which every
// consecutive hop of the chain is simultaneously visible. Because the
// result is the intersection of the per-hop window sets, it can never
// exceed any single hop's visibility: the relay carries data in real time,
// with no store-and-forward at intermediate nodes.
//
// Hop constraints follow the engine defaults: minimum elevation for
// ground-satellite hops, Earth occlusion (plus the optional range cap) for
// satellite-satellite hops.
func (e *Engine) ChainActiveIntervals(ctx context.Context, chain model.RelayChain, h model.Horizon) ([]model.Interval, error) {
	hops := chain.Hops()
	if len(hops) == 0 {
		return nil, fmt.Errorf("chain needs at least two entities, got %d", len(chain.Path))
	}

	var active []model.Interval
	for i, hop := range hops {
		ivs, err := e.AccessIntervals(ctx, hop[0], hop[1], h, e.hopConstraints(hop[0], hop[1]))
		if err != nil {
			return nil, fmt.Errorf("hop %s-%s: %w", hop[0], hop[1], err)
		}
		if i == 0 {
			active = ivs
		} else {
			active = model.IntersectIntervals(active, ivs)
		}
		if len(active) == 0 {
			return nil, nil
		}
	}
	return active, nil
}

// LatencyAt returns the end-to-end propagation latency of the chain at the
// given instant: the sum of one-way light-time delays across each hop. It
// fails with ErrChainInactive when any hop is not visible at that instant.
func (e *Engine) LatencyAt(chain model.RelayChain, t time.Time) (time.Duration, error) {
	hops := chain.Hops()
	if len(hops) == 0 {
		return 0, fmt.Errorf("chain needs at least two entities, got %d", len(chain.Path))
	}

	var totalSec float64
	for _, hop := range hops {
		margin, err := e.visibilityMargin(hop[0], hop[1], t, e.hopConstraints(hop[0], hop[1]))
		if err != nil {
			return 0, err
		}
		if margin < 0 {
			return 0, fmt.Errorf("%w: hop %s-%s at %s", ErrChainInactive,
				hop[0], hop[1], t.UTC().Format(time.RFC3339))
		}

		pa, err := e.PositionECEF(hop[0], t)
		if err != nil {
			return 0, err
		}
		pb, err := e.PositionECEF(hop[1], t)
		if err != nil {
			return 0, err
		}
		totalSec += pa.DistanceTo(pb) / speedOfLightKmS
	}

	return time.Duration(totalSec * float64(time.Second)), nil
}

// BestChain selects, among the candidate chains active at t, the one with
// minimum total latency; ties break by fewest hops, then by lexicographic
// ordering of the path, so repeated scoring runs always agree. A candidate
// whose relay propagation is numerically degenerate at t is skipped like an
// inactive one: a satellite that cannot propagate cannot carry data, and
// losing it must not cost the remaining candidates their sample. BestChain
// fails with ErrChainInactive when no candidate can serve t.
func (e *Engine) BestChain(chains []model.RelayChain, t time.Time) (model.RelayChain, time.Duration, error) {
	var (
		best        model.RelayChain
		bestLatency time.Duration
		found       bool
	)

	for _, c := range chains {
		lat, err := e.LatencyAt(c, t)
		if err != nil {
			if errors.Is(err, ErrChainInactive) ||
				errors.Is(err, ErrNumericDegeneracy) ||
				errors.Is(err, ErrInvalidElementSet) {
				continue
			}
			return model.RelayChain{}, 0, err
		}
		if !found || chainLess(c, lat, best, bestLatency) {
			best = c
			bestLatency = lat
			found = true
		}
	}

	if !found {
		return model.RelayChain{}, 0, fmt.Errorf("%w: no candidate active at %s",
			ErrChainInactive, t.UTC().Format(time.RFC3339))
	}
	return best, bestLatency, nil
}

// chainLess orders (chain, latency) pairs: lower latency first, then
// shorter paths, then lexicographic path order.
func chainLess(a model.RelayChain, aLat time.Duration, b model.RelayChain, bLat time.Duration) bool {
	if aLat != bLat {
		return aLat < bLat
	}
	if len(a.Path) != len(b.Path) {
		return len(a.Path) < len(b.Path)
	}
	for i := range a.Path {
		if a.Path[i] != b.Path[i] {
			return a.Path[i] < b.Path[i]
		}
	}
	return false
}
