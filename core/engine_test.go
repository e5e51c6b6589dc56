package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/missionbench/kb"
	"github.com/signalsfoundry/missionbench/model"
)

var (
	testEpoch   = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testHorizon = model.Horizon{Start: testEpoch, End: testEpoch.Add(4 * time.Hour)}
)

// leoSat is an equatorial circular LEO satellite at ~500 km altitude.
// Because the orbit is circular and equatorial, its ECEF track stays on
// the equator at constant radius, which makes pass geometry provable
// without fixing the Earth rotation angle.
func leoSat(id string) model.Satellite {
	return model.Satellite{
		ID:    id,
		Form:  model.ElementFormKepler,
		Epoch: testEpoch,
		Kepler: model.KeplerElements{
			SemiMajorAxisKm: 6878,
			Eccentricity:    0,
			InclinationDeg:  0,
		},
	}
}

func equatorStation(id string, lonDeg float64) model.GroundPoint {
	return model.GroundPoint{ID: id, Kind: model.GroundKindStation, LatDeg: 0, LonDeg: lonDeg}
}

func newTestEngine(t *testing.T, sats []model.Satellite, gps []model.GroundPoint, opts Options) *Engine {
	t.Helper()
	c := &model.Case{Horizon: testHorizon, Satellites: sats, GroundPoints: gps}
	ckb, err := kb.FromCase(c)
	if err != nil {
		t.Fatalf("build case KB: %v", err)
	}
	return NewEngine(ckb, testHorizon, opts)
}

func TestStateAt_OutOfHorizon(t *testing.T) {
	e := newTestEngine(t, []model.Satellite{leoSat("sat-1")}, nil, Options{})

	_, err := e.StateAt("sat-1", testHorizon.End.Add(time.Minute))
	if !errors.Is(err, ErrOutOfHorizon) {
		t.Errorf("after horizon: err = %v, want ErrOutOfHorizon", err)
	}
	_, err = e.StateAt("sat-1", testHorizon.Start.Add(-time.Minute))
	if !errors.Is(err, ErrOutOfHorizon) {
		t.Errorf("before horizon: err = %v, want ErrOutOfHorizon", err)
	}
}

func TestStateAt_UnknownSatellite(t *testing.T) {
	e := newTestEngine(t, []model.Satellite{leoSat("sat-1")}, nil, Options{})
	if _, err := e.StateAt("sat-9", testEpoch.Add(time.Hour)); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("err = %v, want ErrUnknownEntity", err)
	}
}

func TestNewEngine_DegenerateSatelliteIsolated(t *testing.T) {
	bad := leoSat("sat-bad")
	bad.Kepler.Eccentricity = 1.5

	e := newTestEngine(t, []model.Satellite{leoSat("sat-ok"), bad}, nil, Options{})

	if got := e.DegenerateSatellites(); len(got) != 1 || got[0] != "sat-bad" {
		t.Fatalf("degenerate list = %v, want [sat-bad]", got)
	}
	if _, err := e.StateAt("sat-bad", testEpoch.Add(time.Hour)); !errors.Is(err, ErrInvalidElementSet) {
		t.Errorf("degenerate StateAt err = %v, want ErrInvalidElementSet", err)
	}
	// The healthy satellite still propagates.
	sv, err := e.StateAt("sat-ok", testEpoch.Add(time.Hour))
	if err != nil {
		t.Fatalf("healthy StateAt: %v", err)
	}
	if math.Abs(sv.Position.Norm()-6878) > 1e-6 {
		t.Errorf("healthy radius = %.6f, want 6878", sv.Position.Norm())
	}
}

func TestStateAt_SubSurfacePerigeeIsDegenerate(t *testing.T) {
	// The element set is valid (e < 1), but the perigee radius
	// a(1-e) = 5846 km dips below the Earth's surface. Construction
	// succeeds; queries near perigee fail with ErrNumericDegeneracy while
	// queries near apogee still propagate.
	dip := leoSat("sat-dip")
	dip.Kepler.Eccentricity = 0.15

	e := newTestEngine(t, []model.Satellite{dip}, nil, Options{})

	if err := e.Degeneracy("sat-dip"); err != nil {
		t.Fatalf("construction degeneracy = %v, want nil", err)
	}
	// Mean anomaly zero at epoch puts the satellite at perigee.
	if _, err := e.StateAt("sat-dip", testEpoch); !errors.Is(err, ErrNumericDegeneracy) {
		t.Errorf("perigee err = %v, want ErrNumericDegeneracy", err)
	}
	// Roughly half an orbital period later it is near apogee at ~7910 km.
	sv, err := e.StateAt("sat-dip", testEpoch.Add(47*time.Minute))
	if err != nil {
		t.Fatalf("apogee StateAt: %v", err)
	}
	if sv.Position.Norm() < 6200 {
		t.Errorf("apogee radius = %.1f km, want above the sanity floor", sv.Position.Norm())
	}
}

func TestNewEngine_MalformedTLE(t *testing.T) {
	sat := model.Satellite{
		ID:       "sat-tle",
		Form:     model.ElementFormTLE,
		TLELine1: "garbage",
		TLELine2: "also garbage",
	}
	e := newTestEngine(t, []model.Satellite{sat}, nil, Options{})
	if err := e.Degeneracy("sat-tle"); !errors.Is(err, ErrInvalidElementSet) {
		t.Errorf("degeneracy = %v, want ErrInvalidElementSet", err)
	}
}

func TestPositionECEF_GroundPointFixed(t *testing.T) {
	gs := equatorStation("gs-1", 0)
	e := newTestEngine(t, nil, []model.GroundPoint{gs}, Options{})

	p1, err := e.PositionECEF("gs-1", testEpoch)
	if err != nil {
		t.Fatalf("PositionECEF: %v", err)
	}
	p2, err := e.PositionECEF("gs-1", testEpoch.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("PositionECEF: %v", err)
	}
	if p1 != p2 {
		t.Errorf("ground position moved: %+v vs %+v", p1, p2)
	}
	if math.Abs(p1.X-wgs84AKm) > 1e-9 {
		t.Errorf("equator station X = %f, want %f", p1.X, wgs84AKm)
	}
}

func TestPositionECEF_EquatorialSatelliteStaysOnEquator(t *testing.T) {
	e := newTestEngine(t, []model.Satellite{leoSat("sat-1")}, nil, Options{})

	// The GMST rotation is about the Z axis, so an equatorial ECI orbit
	// maps to an equatorial ECEF track at the same radius.
	for _, offset := range []time.Duration{0, 29 * time.Minute, 2 * time.Hour} {
		p, err := e.PositionECEF("sat-1", testEpoch.Add(offset))
		if err != nil {
			t.Fatalf("offset %v: %v", offset, err)
		}
		if math.Abs(p.Z) > 1e-6 {
			t.Errorf("offset %v: Z = %f, want 0", offset, p.Z)
		}
		if math.Abs(p.Norm()-6878) > 1e-6 {
			t.Errorf("offset %v: radius = %f, want 6878", offset, p.Norm())
		}
	}
}

func TestSubSatellitePoint_EquatorialLatitudeZero(t *testing.T) {
	e := newTestEngine(t, []model.Satellite{leoSat("sat-1")}, nil, Options{})

	lat, _, altM, err := e.SubSatellitePoint("sat-1", testEpoch.Add(time.Hour))
	if err != nil {
		t.Fatalf("SubSatellitePoint: %v", err)
	}
	if math.Abs(lat) > 1e-6 {
		t.Errorf("equatorial sub-satellite latitude = %f, want 0", lat)
	}
	// ~500 km above the equatorial radius.
	wantAlt := (6878 - wgs84AKm) * 1000
	if math.Abs(altM-wantAlt) > 100 {
		t.Errorf("altitude = %.0f m, want ≈ %.0f m", altM, wantAlt)
	}
}
