package core

import "math"

// EarthRadiusKm is the mean Earth radius used for line-of-sight occlusion
// tests (kilometres). Visibility of ground points is governed by elevation
// angle, not by this sphere, so the spherical approximation only affects
// inter-satellite links.
const EarthRadiusKm = 6371.0

// Vec3 is an ECEF- or ECI-frame vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// lineOfSightMarginKm returns the clearance between the p1-p2 segment and
// the Earth sphere: the distance from the Earth's centre to the closest
// point of the segment, minus EarthRadiusKm. Positive means the line of
// sight is clear; the sign change is what the visibility engine
// root-finds.
func lineOfSightMarginKm(p1, p2 Vec3) float64 {
	v := p2.Sub(p1)
	a := v.Dot(v)
	if a == 0 {
		// Degenerate case: same point.
		return p1.Norm() - EarthRadiusKm
	}

	// t* minimises |p1 + t v|^2 over t ∈ [0, 1].
	t := -p1.Dot(v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := p1.Add(v.Scale(t))
	return closest.Norm() - EarthRadiusKm
}

// HasLineOfSight checks whether the straight segment between p1 and p2
// clears the Earth sphere. All positions are ECEF in kilometres.
func HasLineOfSight(p1, p2 Vec3) bool {
	return lineOfSightMarginKm(p1, p2) > 0
}

// ElevationDegrees returns the elevation angle of the target as seen from
// the observer, in degrees. 0° = geometric horizon, 90° = overhead.
func ElevationDegrees(observer, target Vec3) float64 {
	v := target.Sub(observer)
	vNorm := v.Norm()
	if vNorm == 0 {
		return 90
	}

	// Local zenith at observer is its normalised position vector.
	r := observer.Norm()
	if r == 0 {
		return 90
	}
	zenith := observer.Scale(1 / r)

	cosGamma := v.Dot(zenith) / vNorm
	if cosGamma > 1 {
		cosGamma = 1
	} else if cosGamma < -1 {
		cosGamma = -1
	}
	gammaDeg := math.Acos(cosGamma) * 180.0 / math.Pi

	// Elevation is measured from local horizon (90° − zenith angle).
	return 90.0 - gammaDeg
}

// AngularSeparationDeg returns the angle between two azimuth/elevation
// pointing directions, in degrees. Used for slew feasibility.
func AngularSeparationDeg(az1, el1, az2, el2 float64) float64 {
	const d2r = math.Pi / 180.0
	u := unitFromAzEl(az1*d2r, el1*d2r)
	w := unitFromAzEl(az2*d2r, el2*d2r)
	cos := u.Dot(w)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) / d2r
}

func unitFromAzEl(azRad, elRad float64) Vec3 {
	cosEl := math.Cos(elRad)
	return Vec3{
		X: cosEl * math.Cos(azRad),
		Y: cosEl * math.Sin(azRad),
		Z: math.Sin(elRad),
	}
}
