package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/missionbench/model"
)

// pairGeometry is the resolved geometry of an entity pair at one instant.
// ground is non-nil (and holds the ground-side ECEF position) when exactly
// one side of the pair is a ground point.
type pairGeometry struct {
	a, b   Vec3
	ground *Vec3
	space  *Vec3
}

func (e *Engine) pairGeometryAt(aID, bID string, t time.Time) (pairGeometry, error) {
	pa, err := e.PositionECEF(aID, t)
	if err != nil {
		return pairGeometry{}, err
	}
	pb, err := e.PositionECEF(bID, t)
	if err != nil {
		return pairGeometry{}, err
	}
	g := pairGeometry{a: pa, b: pb}
	switch {
	case e.isGround(aID) && !e.isGround(bID):
		g.ground, g.space = &pa, &pb
	case e.isGround(bID) && !e.isGround(aID):
		g.ground, g.space = &pb, &pa
	}
	return g, nil
}

// constraintMargin evaluates one tagged constraint variant against the
// pair geometry. The margin is a continuous function of time, positive
// when the constraint holds; the visibility engine root-finds its sign
// changes. Constraint kinds that do not apply to the pair shape (e.g. a
// minimum elevation between two satellites) are satisfied vacuously with
// an infinite margin.
func constraintMargin(c model.Constraint, g pairGeometry) float64 {
	switch c.Kind {
	case model.ConstraintMinElevation:
		if g.ground == nil {
			return math.Inf(1)
		}
		return ElevationDegrees(*g.ground, *g.space) - c.MinElevationDeg
	case model.ConstraintEarthOcclusion:
		return lineOfSightMarginKm(g.a, g.b)
	case model.ConstraintMaxRange:
		if c.MaxRangeKm <= 0 {
			return math.Inf(1)
		}
		return c.MaxRangeKm - g.a.DistanceTo(g.b)
	default:
		return math.Inf(1)
	}
}

// visibilityMargin is the combined metric for a constraint set: the
// minimum margin over all variants. The pair is mutually visible exactly
// where the margin is non-negative.
func (e *Engine) visibilityMargin(aID, bID string, t time.Time, cons []model.Constraint) (float64, error) {
	g, err := e.pairGeometryAt(aID, bID, t)
	if err != nil {
		return 0, err
	}
	margin := math.Inf(1)
	for _, c := range cons {
		if m := constraintMargin(c, g); m < margin {
			margin = m
		}
	}
	return margin, nil
}

// hopConstraints selects the default constraint set for one chain hop:
// elevation for ground-satellite hops, occlusion (plus the optional range
// cap) for satellite-satellite hops.
func (e *Engine) hopConstraints(aID, bID string) []model.Constraint {
	if e.isGround(aID) || e.isGround(bID) {
		return []model.Constraint{model.MinElevation(e.opts.MinElevationDeg)}
	}
	cons := []model.Constraint{model.EarthOcclusion()}
	if e.opts.MaxISLRangeKm > 0 {
		cons = append(cons, model.MaxRange(e.opts.MaxISLRangeKm))
	}
	return cons
}
