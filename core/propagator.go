package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/missionbench/model"
)

// StateVector is an ECI position/velocity pair in km and km/s.
type StateVector struct {
	Position Vec3
	Velocity Vec3
}

// propagator produces the ECI state of one satellite at a query time.
// Implementations must be deterministic: identical inputs always yield
// bit-reproducible outputs, since agents, baselines, and verifiers must
// agree on every window boundary.
type propagator interface {
	stateAt(t time.Time) (StateVector, error)
}

// sgp4Propagator wraps go-satellite for a TLE element set.
//
// Propagate takes the Satellite by value, so SGP4 error codes are not
// visible after the call; failures are detected by checking the output for
// NaN/Inf and unphysical magnitudes instead.
type sgp4Propagator struct {
	id  string
	sat satellite.Satellite
}

func newSGP4Propagator(s *model.Satellite) (*sgp4Propagator, error) {
	if err := validateTLELines(s.TLELine1, s.TLELine2); err != nil {
		return nil, fmt.Errorf("%w: satellite %s: %v", ErrInvalidElementSet, s.ID, err)
	}
	sat := satellite.TLEToSat(s.TLELine1, s.TLELine2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: satellite %s: sgp4 init code=%d %s",
			ErrInvalidElementSet, s.ID, sat.Error, sat.ErrorStr)
	}
	return &sgp4Propagator{id: s.ID, sat: sat}, nil
}

// validateTLELines performs basic format validation before handing the
// lines to go-satellite, which log.Fatals on malformed input.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got %q", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got %q", line2[0])
	}
	return nil
}

func (p *sgp4Propagator) stateAt(t time.Time) (StateVector, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second())

	sv := StateVector{
		Position: Vec3{X: pos.X, Y: pos.Y, Z: pos.Z},
		Velocity: Vec3{X: vel.X, Y: vel.Y, Z: vel.Z},
	}
	if err := saneState(p.id, t, sv.Position); err != nil {
		return StateVector{}, err
	}
	return sv, nil
}

// saneState checks propagator output against a LEO-to-GEO physical
// envelope. A position outside it means the element set has stopped
// describing a real orbit at this epoch, whatever the upstream math did.
func saneState(id string, t time.Time, pos Vec3) error {
	if !finite(pos.X) || !finite(pos.Y) || !finite(pos.Z) {
		return fmt.Errorf("%w: satellite %s at %s: NaN/Inf output",
			ErrNumericDegeneracy, id, t.Format(time.RFC3339))
	}
	if mag := pos.Norm(); mag < 6200.0 || mag > 50000.0 {
		return fmt.Errorf("%w: satellite %s at %s: position magnitude %.1f km",
			ErrNumericDegeneracy, id, t.Format(time.RFC3339), mag)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// keplerPropagator propagates a classical element set with the closed-form
// two-body model. Adequate for days-long LEO access-window horizons.
type keplerPropagator struct {
	id    string
	el    model.KeplerElements
	epoch time.Time
}

func newKeplerPropagator(s *model.Satellite) (*keplerPropagator, error) {
	if err := validateKepler(s.Kepler); err != nil {
		return nil, fmt.Errorf("satellite %s: %w", s.ID, err)
	}
	return &keplerPropagator{id: s.ID, el: s.Kepler, epoch: s.Epoch.UTC()}, nil
}

func (p *keplerPropagator) stateAt(t time.Time) (StateVector, error) {
	pos, vel := propagateKepler(p.el, p.epoch, t.UTC())
	if err := saneState(p.id, t.UTC(), pos); err != nil {
		return StateVector{}, err
	}
	return StateVector{Position: pos, Velocity: vel}, nil
}

func newPropagator(s *model.Satellite) (propagator, error) {
	switch s.Form {
	case model.ElementFormTLE:
		return newSGP4Propagator(s)
	case model.ElementFormKepler:
		return newKeplerPropagator(s)
	default:
		return nil, fmt.Errorf("%w: satellite %s: unknown element form", ErrInvalidElementSet, s.ID)
	}
}
