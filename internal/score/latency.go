package score

import (
	"context"
	"errors"
	"time"

	"github.com/signalsfoundry/missionbench/core"
	"github.com/signalsfoundry/missionbench/model"
	"github.com/signalsfoundry/missionbench/timegrid"
)

// Latency scores one station-pair priority window: the window is sampled
// at the given step, each sample takes the best active candidate chain's
// latency, and samples where no candidate is active count against the
// coverage fraction. A pair with zero coverage scores zeroed latencies;
// that is a reportable result, not an error.
func Latency(ctx context.Context, eng *core.Engine, pair model.StationPairWindow, step time.Duration) (model.LatencyScore, error) {
	score := model.LatencyScore{StationA: pair.StationA, StationB: pair.StationB}

	window, ok := eng.Horizon().Overlap(pair.Window)
	if !ok {
		return score, nil
	}
	grid := timegrid.FromHorizon(window, step)
	if !grid.Valid() {
		return score, nil
	}

	var (
		total   time.Duration
		covered int
		samples int
		walkErr error
	)
	grid.Walk(func(t time.Time) bool {
		if ctx.Err() != nil {
			walkErr = ctx.Err()
			return false
		}
		samples++

		_, lat, err := eng.BestChain(pair.Chains, t)
		switch {
		case err == nil:
			covered++
			total += lat
			if score.MinLatency == 0 || lat < score.MinLatency {
				score.MinLatency = lat
			}
			if lat > score.MaxLatency {
				score.MaxLatency = lat
			}
		case sampleUnserved(err):
			// uncovered sample; keep walking
		default:
			walkErr = err
			return false
		}
		return true
	})
	if walkErr != nil {
		return score, walkErr
	}

	if samples > 0 {
		score.CoverageFraction = float64(covered) / float64(samples)
	}
	if covered > 0 {
		score.MeanLatency = total / time.Duration(covered)
	}
	return score, nil
}

// sampleUnserved reports whether an error only means this sample could not
// be served: no candidate active, or a relay's propagation numerically
// degenerate at the instant. Both count against the coverage fraction;
// neither fails the pair, and the rest of the case is untouched.
func sampleUnserved(err error) bool {
	return errors.Is(err, core.ErrChainInactive) ||
		errors.Is(err, core.ErrNumericDegeneracy) ||
		errors.Is(err, core.ErrInvalidElementSet)
}
