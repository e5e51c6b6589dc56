package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/signalsfoundry/missionbench/kb"
	"github.com/signalsfoundry/missionbench/model"
)

// Options tunes window detection. Zero values take defaults.
type Options struct {
	// SampleStep is the coarse sampling interval for the visibility
	// metric across the horizon.
	SampleStep time.Duration

	// Precision is the bisection refinement target for window edges.
	// SGP4 propagation resolves whole seconds, so values below one second
	// are rounded up.
	Precision time.Duration

	// MinElevationDeg is the default station/target visibility threshold
	// applied to chain hops that touch the ground.
	MinElevationDeg float64

	// MaxISLRangeKm caps inter-satellite hop slant range when positive.
	MaxISLRangeKm float64
}

func (o Options) withDefaults() Options {
	if o.SampleStep <= 0 {
		o.SampleStep = 30 * time.Second
	}
	if o.Precision < time.Second {
		o.Precision = time.Second
	}
	return o
}

// Engine is the case-scoped access and constraint engine. It owns the
// propagators and precomputed ground positions for one case and exposes
// the query surface shared by baselines, agents, and verifiers. An Engine
// is immutable after construction and safe for concurrent use.
type Engine struct {
	kb      *kb.CaseKB
	horizon model.Horizon
	opts    Options

	props      map[string]propagator
	degenerate map[string]error
	groundECEF map[string]Vec3
}

// NewEngine builds an engine over the registered case entities. Satellites
// whose element sets fail validation are recorded as degenerate rather
// than failing construction: other satellites still verify.
func NewEngine(ckb *kb.CaseKB, horizon model.Horizon, opts Options) *Engine {
	e := &Engine{
		kb:         ckb,
		horizon:    horizon,
		opts:       opts.withDefaults(),
		props:      make(map[string]propagator),
		degenerate: make(map[string]error),
		groundECEF: make(map[string]Vec3),
	}

	for _, s := range ckb.Satellites() {
		p, err := newPropagator(s)
		if err != nil {
			e.degenerate[s.ID] = err
			continue
		}
		e.props[s.ID] = p
	}
	for _, g := range ckb.GroundPoints() {
		e.groundECEF[g.ID] = GeodeticToECEF(g.LatDeg, g.LonDeg, g.AltM)
	}
	return e
}

// Horizon returns the case validity window.
func (e *Engine) Horizon() model.Horizon { return e.horizon }

// Options returns the engine's effective options.
func (e *Engine) Options() Options { return e.opts }

// Degeneracy returns the recorded element-set error for a satellite, or
// nil when the satellite propagates normally.
func (e *Engine) Degeneracy(satID string) error { return e.degenerate[satID] }

// DegenerateSatellites lists satellites excluded by element-set validation,
// sorted by ID.
func (e *Engine) DegenerateSatellites() []string {
	out := make([]string, 0, len(e.degenerate))
	for id := range e.degenerate {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// StateAt returns the ECI state of a satellite at the given epoch. It
// fails with ErrOutOfHorizon outside the case validity window and with the
// recorded element-set error for degenerate satellites.
func (e *Engine) StateAt(satID string, t time.Time) (StateVector, error) {
	if !e.horizon.Contains(t) {
		return StateVector{}, fmt.Errorf("%w: %s at %s", ErrOutOfHorizon, satID, t.UTC().Format(time.RFC3339))
	}
	if err := e.degenerate[satID]; err != nil {
		return StateVector{}, err
	}
	p, ok := e.props[satID]
	if !ok {
		return StateVector{}, fmt.Errorf("%w: %s", ErrUnknownEntity, satID)
	}
	return p.stateAt(t)
}

// PositionECEF returns the Earth-fixed position of any case entity at t:
// fixed coordinates for ground points, propagated and rotated state for
// satellites.
func (e *Engine) PositionECEF(entityID string, t time.Time) (Vec3, error) {
	if pos, ok := e.groundECEF[entityID]; ok {
		return pos, nil
	}
	sv, err := e.StateAt(entityID, t)
	if err != nil {
		return Vec3{}, err
	}
	return ECIToECEF(sv.Position, t), nil
}

// SubSatellitePoint returns the geodetic ground-track point beneath a
// satellite at t (degrees, metres).
func (e *Engine) SubSatellitePoint(satID string, t time.Time) (latDeg, lonDeg, altM float64, err error) {
	pos, err := e.PositionECEF(satID, t)
	if err != nil {
		return 0, 0, 0, err
	}
	latDeg, lonDeg, altM = ECEFToGeodetic(pos)
	return latDeg, lonDeg, altM, nil
}

// ObservationGeometry returns the look angles from a ground point to a
// satellite at t. Used by the stereo and coverage aggregators.
func (e *Engine) ObservationGeometry(groundID, satID string, t time.Time) (LookAngles, error) {
	gp := e.kb.GroundPoint(groundID)
	if gp == nil {
		return LookAngles{}, fmt.Errorf("%w: %s", ErrUnknownEntity, groundID)
	}
	sat, err := e.PositionECEF(satID, t)
	if err != nil {
		return LookAngles{}, err
	}
	return ECEFLookAngles(gp, sat), nil
}

// isGround reports whether the entity is a fixed ground point.
func (e *Engine) isGround(entityID string) bool {
	_, ok := e.groundECEF[entityID]
	return ok
}

// knows reports whether the ID names any entity visible to the engine,
// including degenerate satellites.
func (e *Engine) knows(entityID string) bool {
	if e.isGround(entityID) {
		return true
	}
	if _, ok := e.props[entityID]; ok {
		return true
	}
	_, deg := e.degenerate[entityID]
	return deg
}
