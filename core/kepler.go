package core

import (
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/missionbench/model"
)

// muEarthKm3S2 is the WGS-84 geocentric gravitational constant.
const muEarthKm3S2 = 398600.4418

// validateKepler rejects element sets that do not describe a closed orbit.
func validateKepler(el model.KeplerElements) error {
	if el.SemiMajorAxisKm <= 0 {
		return fmt.Errorf("%w: semi-major axis %.3f km must be positive",
			ErrInvalidElementSet, el.SemiMajorAxisKm)
	}
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return fmt.Errorf("%w: eccentricity %.6f outside [0, 1)",
			ErrInvalidElementSet, el.Eccentricity)
	}
	return nil
}

// propagateKepler computes the ECI state of a closed two-body orbit at
// time t, given classical elements valid at epoch. Everything here is
// closed-form plus a fixed-iteration Newton solve, so identical inputs
// always produce bit-identical outputs.
func propagateKepler(el model.KeplerElements, epoch, t time.Time) (pos, vel Vec3) {
	const d2r = math.Pi / 180.0

	a := el.SemiMajorAxisKm
	e := el.Eccentricity
	inc := el.InclinationDeg * d2r
	raan := el.RAANDeg * d2r
	argp := el.ArgPerigeeDeg * d2r
	m0 := el.MeanAnomalyDeg * d2r

	// Mean motion and mean anomaly at t.
	n := math.Sqrt(muEarthKm3S2 / (a * a * a))
	dt := t.Sub(epoch).Seconds()
	m := math.Mod(m0+n*dt, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}

	// Kepler's equation by Newton iteration. The fixed iteration count
	// keeps the result deterministic across platforms.
	ecc := m
	for i := 0; i < 30; i++ {
		delta := (ecc - e*math.Sin(ecc) - m) / (1 - e*math.Cos(ecc))
		ecc -= delta
		if math.Abs(delta) < 1e-14 {
			break
		}
	}

	sinE := math.Sin(ecc)
	cosE := math.Cos(ecc)

	// True anomaly and radius.
	nu := math.Atan2(math.Sqrt(1-e*e)*sinE, cosE-e)
	r := a * (1 - e*cosE)

	// Perifocal position and velocity.
	cosNu := math.Cos(nu)
	sinNu := math.Sin(nu)
	pPF := Vec3{X: r * cosNu, Y: r * sinNu}

	h := math.Sqrt(muEarthKm3S2 * a * (1 - e*e))
	vPF := Vec3{
		X: -muEarthKm3S2 / h * sinNu,
		Y: muEarthKm3S2 / h * (e + cosNu),
	}

	rot := perifocalToECI(raan, inc, argp)
	return rot.apply(pPF), rot.apply(vPF)
}

// mat3 is a row-major 3x3 rotation matrix.
type mat3 [3][3]float64

func (m mat3) apply(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// perifocalToECI is the classical 313 rotation R3(-Ω) R1(-i) R3(-ω).
func perifocalToECI(raan, inc, argp float64) mat3 {
	cO := math.Cos(raan)
	sO := math.Sin(raan)
	cI := math.Cos(inc)
	sI := math.Sin(inc)
	cW := math.Cos(argp)
	sW := math.Sin(argp)

	return mat3{
		{cO*cW - sO*sW*cI, -cO*sW - sO*cW*cI, sO * sI},
		{sO*cW + cO*sW*cI, -sO*sW + cO*cW*cI, -cO * sI},
		{sW * sI, cW * sI, cI},
	}
}
