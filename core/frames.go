package core

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/missionbench/model"
)

// WGS-84 ellipsoid parameters, kilometres.
const (
	wgs84AKm = 6378.137
	wgs84F   = 1.0 / 298.257223563
	wgs84E2  = wgs84F * (2 - wgs84F)
)

// GeodeticToECEF converts a geodetic position (degrees, metres above the
// WGS-84 ellipsoid) to ECEF kilometres.
func GeodeticToECEF(latDeg, lonDeg, altM float64) Vec3 {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	altKm := altM / 1000.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	n := wgs84AKm / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Vec3{
		X: (n + altKm) * cosLat * math.Cos(lon),
		Y: (n + altKm) * cosLat * math.Sin(lon),
		Z: (n*(1-wgs84E2) + altKm) * sinLat,
	}
}

// ECEFToGeodetic converts ECEF kilometres to geodetic latitude/longitude
// (degrees) and altitude (metres), using the iterative Bowring method.
// Converges in a handful of iterations for Earth orbits.
func ECEFToGeodetic(p Vec3) (latDeg, lonDeg, altM float64) {
	lon := math.Atan2(p.Y, p.X)
	rho := math.Sqrt(p.X*p.X + p.Y*p.Y)

	lat := math.Atan2(p.Z, rho*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84AKm / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(p.Z+wgs84E2*n*sinLat, rho)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := wgs84AKm / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var altKm float64
	if math.Abs(cosLat) > 1e-10 {
		altKm = rho/cosLat - n
	} else {
		altKm = math.Abs(p.Z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return lat * 180.0 / math.Pi, lon * 180.0 / math.Pi, altKm * 1000.0
}

// gmstAt returns the Greenwich mean sidereal time angle for t, using the
// same Julian-day routine the SGP4 path uses so both element forms share
// one Earth-rotation model.
func gmstAt(t time.Time) float64 {
	t = t.UTC()
	jd := satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	return satellite.ThetaG_JD(jd)
}

// ECIToECEF rotates an ECI (TEME) position into the Earth-fixed frame at
// time t.
func ECIToECEF(eci Vec3, t time.Time) Vec3 {
	rotated := satellite.ECIToECEF(satellite.Vector3{X: eci.X, Y: eci.Y, Z: eci.Z}, gmstAt(t))
	return Vec3{X: rotated.X, Y: rotated.Y, Z: rotated.Z}
}

// LookAngles holds azimuth, elevation, and slant range from a ground point
// to a satellite.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// ECEFLookAngles computes look angles from a ground point to an ECEF
// position via the SEZ (South-East-Zenith) topocentric rotation.
func ECEFLookAngles(gp *model.GroundPoint, sat Vec3) LookAngles {
	obs := GeodeticToECEF(gp.LatDeg, gp.LonDeg, gp.AltM)
	lat := gp.LatDeg * math.Pi / 180.0
	lon := gp.LonDeg * math.Pi / 180.0

	r := sat.Sub(obs)

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	sinLon := math.Sin(lon)
	cosLon := math.Cos(lon)

	south := sinLat*cosLon*r.X + sinLat*sinLon*r.Y - cosLat*r.Z
	east := -sinLon*r.X + cosLon*r.Y
	zenith := cosLat*cosLon*r.X + cosLat*sinLon*r.Y + sinLat*r.Z

	rangeKm := math.Sqrt(south*south + east*east + zenith*zenith)
	if rangeKm == 0 {
		return LookAngles{ElevationDeg: 90}
	}

	el := math.Asin(zenith / rangeKm)

	// Azimuth measured clockwise from North: az = atan2(east, -south).
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
		RangeKm:      rangeKm,
	}
}
