package score

import (
	"math"

	"github.com/signalsfoundry/missionbench/core"
	"github.com/signalsfoundry/missionbench/model"
)

const earthMeanRadiusKm = 6371.0

// GroundTrack is one valid observation reduced to its imaging footprint:
// the sub-satellite point, the satellite's Earth-fixed position at that
// instant, and the sensor swath width.
type GroundTrack struct {
	SubLatDeg float64
	SubLonDeg float64
	SatECEF   core.Vec3
	SwathKm   float64
}

// Coverage scores one mapping region against the plan's footprints. The
// polygon is discretized to a fixed lat/lon cell grid; a cell counts as
// covered when any footprint's swath half-width reaches the cell center
// with the satellite high enough in the cell's sky. Cells are evaluated
// at their centers only, so the fraction is exact for the grid, not the
// continuous polygon.
func Coverage(region model.MappingRegion, tracks []GroundTrack) model.CoverageScore {
	score := model.CoverageScore{RegionID: region.ID}
	cells := regionCells(region)
	score.CellsTotal = len(cells)
	if len(cells) == 0 {
		return score
	}

	for _, cell := range cells {
		if cellCovered(cell, region.MinElevationDeg, tracks) {
			score.CellsCovered++
		}
	}
	score.Fraction = float64(score.CellsCovered) / float64(score.CellsTotal)
	return score
}

func cellCovered(cell model.LatLon, minElevDeg float64, tracks []GroundTrack) bool {
	for _, tr := range tracks {
		half := tr.SwathKm / 2
		if half <= 0 {
			continue
		}
		if greatCircleKm(cell.LatDeg, cell.LonDeg, tr.SubLatDeg, tr.SubLonDeg) > half {
			continue
		}
		if minElevDeg > 0 {
			cellECEF := core.GeodeticToECEF(cell.LatDeg, cell.LonDeg, 0)
			if core.ElevationDegrees(cellECEF, tr.SatECEF) < minElevDeg {
				continue
			}
		}
		return true
	}
	return false
}

// regionCells enumerates the centers of the grid cells whose center falls
// inside the region polygon.
func regionCells(region model.MappingRegion) []model.LatLon {
	if len(region.Vertices) < 3 || region.CellSizeDeg <= 0 {
		return nil
	}

	minLat, maxLat := region.Vertices[0].LatDeg, region.Vertices[0].LatDeg
	minLon, maxLon := region.Vertices[0].LonDeg, region.Vertices[0].LonDeg
	for _, v := range region.Vertices[1:] {
		minLat = math.Min(minLat, v.LatDeg)
		maxLat = math.Max(maxLat, v.LatDeg)
		minLon = math.Min(minLon, v.LonDeg)
		maxLon = math.Max(maxLon, v.LonDeg)
	}

	var cells []model.LatLon
	for lat := minLat + region.CellSizeDeg/2; lat < maxLat; lat += region.CellSizeDeg {
		for lon := minLon + region.CellSizeDeg/2; lon < maxLon; lon += region.CellSizeDeg {
			if pointInPolygon(lat, lon, region.Vertices) {
				cells = append(cells, model.LatLon{LatDeg: lat, LonDeg: lon})
			}
		}
	}
	return cells
}

// pointInPolygon is the even-odd ray casting test in plate carrée
// coordinates. Regions are benchmark-sized (well under a hemisphere, away
// from the antimeridian), where the flat approximation holds.
func pointInPolygon(lat, lon float64, ring []model.LatLon) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := ring[i], ring[j]
		if (vi.LatDeg > lat) == (vj.LatDeg > lat) {
			continue
		}
		crossLon := vj.LonDeg + (lat-vj.LatDeg)/(vi.LatDeg-vj.LatDeg)*(vi.LonDeg-vj.LonDeg)
		if lon < crossLon {
			inside = !inside
		}
	}
	return inside
}

// greatCircleKm is the haversine distance between two geodetic points.
func greatCircleKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	phi1, phi2 := lat1*degToRad, lat2*degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	return 2 * earthMeanRadiusKm * math.Asin(math.Sqrt(a))
}
