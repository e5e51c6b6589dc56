package core

import (
	"math"
	"testing"
)

func TestHasLineOfSight_NoObstruction(t *testing.T) {
	// Two satellites high and on the same side of Earth, separated in Y.
	// The segment between them stays at x ≈ 8000 km, well outside Earth.
	posA := Vec3{X: 8000, Y: 0, Z: 0}
	posB := Vec3{X: 8000, Y: 1000, Z: 0}

	if !HasLineOfSight(posA, posB) {
		t.Errorf("expected LoS between two high satellites on same side of Earth")
	}
}

func TestHasLineOfSight_Obstructed(t *testing.T) {
	// Two points on opposite sides: the chord passes through the Earth.
	posA := Vec3{X: 7000, Y: 0, Z: 0}
	posB := Vec3{X: -7000, Y: 0, Z: 0}

	if HasLineOfSight(posA, posB) {
		t.Errorf("expected LoS to be blocked by Earth")
	}
}

func TestLineOfSightMargin_SignConvention(t *testing.T) {
	grazing := lineOfSightMarginKm(Vec3{X: 7000, Y: 0, Z: 0}, Vec3{X: -7000, Y: 0, Z: 0})
	if grazing >= 0 {
		t.Errorf("blocked chord should have negative margin, got %.1f", grazing)
	}

	clear := lineOfSightMarginKm(Vec3{X: 8000, Y: 0, Z: 0}, Vec3{X: 8000, Y: 1000, Z: 0})
	want := 8000.0 - EarthRadiusKm
	if math.Abs(clear-want) > 1 {
		t.Errorf("clear margin = %.1f, want ≈ %.1f", clear, want)
	}
}

func TestElevationDegrees_Overhead(t *testing.T) {
	observer := Vec3{X: EarthRadiusKm, Y: 0, Z: 0}
	target := Vec3{X: EarthRadiusKm + 500, Y: 0, Z: 0}

	el := ElevationDegrees(observer, target)
	if math.Abs(el-90) > 1e-9 {
		t.Errorf("overhead elevation = %f, want 90", el)
	}
}

func TestElevationDegrees_OnHorizonPlane(t *testing.T) {
	// Target in the observer's local horizontal plane: elevation ≈ 0.
	observer := Vec3{X: EarthRadiusKm, Y: 0, Z: 0}
	target := Vec3{X: EarthRadiusKm, Y: 1000, Z: 0}

	el := ElevationDegrees(observer, target)
	if math.Abs(el) > 1e-9 {
		t.Errorf("horizon-plane elevation = %f, want 0", el)
	}
}

func TestAngularSeparationDeg(t *testing.T) {
	cases := []struct {
		name                     string
		az1, el1, az2, el2, want float64
	}{
		{"identical", 45, 30, 45, 30, 0},
		{"azimuth only", 10, 0, 40, 0, 30},
		{"elevation only", 0, 10, 0, 55, 45},
		{"opposite horizon", 0, 0, 180, 0, 180},
	}
	for _, tc := range cases {
		got := AngularSeparationDeg(tc.az1, tc.el1, tc.az2, tc.el2)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: separation = %f, want %f", tc.name, got, tc.want)
		}
	}
}
