package core

import (
	"context"
	"testing"
	"time"

	"github.com/signalsfoundry/missionbench/model"
)

func stationConstraints(minElevDeg float64) []model.Constraint {
	return []model.Constraint{model.MinElevation(minElevDeg)}
}

// An equatorial LEO satellite and an equatorial station drift relative to
// each other with a synodic period of ~100 minutes, so a 4-hour horizon is
// guaranteed to contain at least one zenith-crossing pass.
func TestAccessWindows_EquatorialPassExists(t *testing.T) {
	e := newTestEngine(t,
		[]model.Satellite{leoSat("sat-1")},
		[]model.GroundPoint{equatorStation("gs-1", 0)},
		Options{})

	windows, err := e.AccessWindows(context.Background(), "sat-1", "gs-1", testHorizon, stationConstraints(5))
	if err != nil {
		t.Fatalf("AccessWindows: %v", err)
	}
	if len(windows) == 0 {
		t.Fatalf("expected at least one pass in a 4h horizon")
	}
	// Equatorial orbit over an equatorial station passes through zenith.
	var best float64
	for _, w := range windows {
		if w.MaxElevationDeg > best {
			best = w.MaxElevationDeg
		}
	}
	if best < 60 {
		t.Errorf("peak elevation %.1f°, expected a near-zenith pass", best)
	}
}

func TestAccessWindows_OrderedDisjointContained(t *testing.T) {
	e := newTestEngine(t,
		[]model.Satellite{leoSat("sat-1")},
		[]model.GroundPoint{equatorStation("gs-1", 0)},
		Options{})

	windows, err := e.AccessWindows(context.Background(), "sat-1", "gs-1", testHorizon, stationConstraints(5))
	if err != nil {
		t.Fatalf("AccessWindows: %v", err)
	}
	for i, w := range windows {
		iv := w.Window
		if !iv.T1.After(iv.T0) {
			t.Errorf("window %d: zero or negative duration %v", i, iv)
		}
		if iv.T0.Before(testHorizon.Start) || iv.T1.After(testHorizon.End) {
			t.Errorf("window %d: %v not contained in horizon", i, iv)
		}
		if i > 0 && !windows[i-1].Window.T1.Before(iv.T0) {
			t.Errorf("window %d overlaps or touches previous (%v after %v)",
				i, iv.T0, windows[i-1].Window.T1)
		}
	}
}

func TestAccessWindows_Idempotent(t *testing.T) {
	e := newTestEngine(t,
		[]model.Satellite{leoSat("sat-1")},
		[]model.GroundPoint{equatorStation("gs-1", 0)},
		Options{})

	first, err := e.AccessWindows(context.Background(), "sat-1", "gs-1", testHorizon, stationConstraints(5))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := e.AccessWindows(context.Background(), "sat-1", "gs-1", testHorizon, stationConstraints(5))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("window count changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Window.T0.Equal(second[i].Window.T0) || !first[i].Window.T1.Equal(second[i].Window.T1) {
			t.Errorf("window %d differs between identical calls", i)
		}
		if first[i].MaxElevationDeg != second[i].MaxElevationDeg {
			t.Errorf("window %d quality differs between identical calls", i)
		}
	}
}

func TestAccessWindows_PolarStationNeverSees(t *testing.T) {
	polar := model.GroundPoint{ID: "gs-pole", Kind: model.GroundKindStation, LatDeg: 89.5, LonDeg: 0}
	e := newTestEngine(t,
		[]model.Satellite{leoSat("sat-1")},
		[]model.GroundPoint{polar},
		Options{})

	windows, err := e.AccessWindows(context.Background(), "sat-1", "gs-pole", testHorizon, stationConstraints(5))
	if err != nil {
		t.Fatalf("AccessWindows: %v", err)
	}
	if len(windows) != 0 {
		t.Errorf("equatorial LEO visible from the pole: %v", windows)
	}
}

func TestAccessWindows_NoHorizonOverlapIsEmpty(t *testing.T) {
	e := newTestEngine(t,
		[]model.Satellite{leoSat("sat-1")},
		[]model.GroundPoint{equatorStation("gs-1", 0)},
		Options{})

	outside := model.Horizon{
		Start: testHorizon.End.Add(time.Hour),
		End:   testHorizon.End.Add(2 * time.Hour),
	}
	windows, err := e.AccessWindows(context.Background(), "sat-1", "gs-1", outside, stationConstraints(5))
	if err != nil {
		t.Fatalf("AccessWindows: %v", err)
	}
	if len(windows) != 0 {
		t.Errorf("expected empty result for non-overlapping horizon, got %d windows", len(windows))
	}
}

func TestAccessWindows_UnknownEntity(t *testing.T) {
	e := newTestEngine(t, []model.Satellite{leoSat("sat-1")}, nil, Options{})
	if _, err := e.AccessWindows(context.Background(), "sat-1", "gs-missing", testHorizon, nil); err == nil {
		t.Errorf("expected error for unknown entity")
	}
}

func TestAccessWindows_CancelledContext(t *testing.T) {
	e := newTestEngine(t,
		[]model.Satellite{leoSat("sat-1")},
		[]model.GroundPoint{equatorStation("gs-1", 0)},
		Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.AccessWindows(ctx, "sat-1", "gs-1", testHorizon, stationConstraints(5)); err == nil {
		t.Errorf("expected context error")
	}
}

func TestAccessWindows_SatelliteToSatellite(t *testing.T) {
	// Two satellites in the same circular equatorial orbit, phased 20°
	// apart: the chord between them stays well above Earth, so they are
	// permanently visible and the single window clips to the horizon.
	satB := leoSat("sat-b")
	satB.Kepler.MeanAnomalyDeg = 20

	e := newTestEngine(t,
		[]model.Satellite{leoSat("sat-a"), satB},
		nil,
		Options{})

	cons := []model.Constraint{model.EarthOcclusion()}
	windows, err := e.AccessWindows(context.Background(), "sat-a", "sat-b", testHorizon, cons)
	if err != nil {
		t.Fatalf("AccessWindows: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("expected one continuous window, got %d", len(windows))
	}
	w := windows[0].Window
	if !w.T0.Equal(testHorizon.Start) || !w.T1.Equal(testHorizon.End) {
		t.Errorf("window %v not clipped to full horizon", w)
	}
}

func TestAccessWindows_MaxRangeCutsCoOrbital(t *testing.T) {
	// Same orbit, 40° apart: the chord clears the Earth (closest approach
	// a·cos(20°) ≈ 6463 km) but its fixed length 2·a·sin(20°) ≈ 4705 km
	// exceeds a 4000 km range cap.
	satB := leoSat("sat-b")
	satB.Kepler.MeanAnomalyDeg = 40

	e := newTestEngine(t,
		[]model.Satellite{leoSat("sat-a"), satB},
		nil,
		Options{})

	cons := []model.Constraint{model.EarthOcclusion(), model.MaxRange(4000)}
	windows, err := e.AccessWindows(context.Background(), "sat-a", "sat-b", testHorizon, cons)
	if err != nil {
		t.Fatalf("AccessWindows: %v", err)
	}
	if len(windows) != 0 {
		t.Errorf("expected range cap to suppress visibility, got %d windows", len(windows))
	}
}
