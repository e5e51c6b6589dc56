// Package score computes the benchmark metrics of a verified plan:
// revisit gap statistics, stereo pair coverage, mapping-region coverage,
// and relay latency over priority windows. Aggregators consume only valid
// observations; the verifier decides validity before scoring.
package score

import (
	"math"
	"sort"
	"time"

	"github.com/signalsfoundry/missionbench/model"
)

// Pass is one valid observation of a ground target, reduced to the
// quantities the aggregators need: when it happened and where the
// satellite stood in the target's sky.
type Pass struct {
	Time         time.Time
	AzimuthDeg   float64
	ElevationDeg float64
}

// Revisit computes gap statistics for one monitoring target. Gaps to the
// horizon boundaries count: the stretch before the first observation and
// after the last one are gaps like any other, and a target never observed
// scores a single gap spanning the whole horizon.
func Revisit(h model.Horizon, req model.MonitoringTarget, times []time.Time) model.RevisitScore {
	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	gaps := make([]time.Duration, 0, len(sorted)+1)
	prev := h.Start
	for _, t := range sorted {
		gaps = append(gaps, t.Sub(prev))
		prev = t
	}
	gaps = append(gaps, h.End.Sub(prev))

	var maxGap, total time.Duration
	for _, g := range gaps {
		if g > maxGap {
			maxGap = g
		}
		total += g
	}

	return model.RevisitScore{
		TargetID:     req.GroundPointID,
		Observations: len(sorted),
		MaxGap:       maxGap,
		MeanGap:      total / time.Duration(len(gaps)),
		QuotaMet:     len(sorted) >= req.Quota,
	}
}

// Stereo reports whether a target acquired at least one qualifying stereo
// pair: two passes whose azimuth separation falls inside the requirement's
// band, whose temporal gap stays within the bound, and whose elevations
// both clear the minimum.
func Stereo(req model.StereoRequirement, passes []Pass) model.StereoScore {
	score := model.StereoScore{TargetID: req.GroundPointID}

	for i := 0; i < len(passes); i++ {
		if passes[i].ElevationDeg < req.MinElevationDeg {
			continue
		}
		for j := i + 1; j < len(passes); j++ {
			if passes[j].ElevationDeg < req.MinElevationDeg {
				continue
			}
			gap := passes[j].Time.Sub(passes[i].Time)
			if gap < 0 {
				gap = -gap
			}
			if gap > req.MaxTemporalGap {
				continue
			}
			sep := azimuthSeparationDeg(passes[i].AzimuthDeg, passes[j].AzimuthDeg)
			if sep < req.MinAzimuthSepDeg || sep > req.MaxAzimuthSepDeg {
				continue
			}
			score.Pairs++
		}
	}

	score.Covered = score.Pairs > 0
	return score
}

// azimuthSeparationDeg folds the difference of two compass azimuths into
// [0, 180].
func azimuthSeparationDeg(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
