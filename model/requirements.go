package model

import "time"

// MonitoringTarget is a point target scored by revisit gap and/or
// observation quota.
type MonitoringTarget struct {
	GroundPointID   string  `yaml:"ground_point_id"`
	Quota           int     `yaml:"quota"`
	MinElevationDeg float64 `yaml:"min_elevation_deg"`
}

// LatLon is a polygon vertex in degrees.
type LatLon struct {
	LatDeg float64 `yaml:"lat_deg"`
	LonDeg float64 `yaml:"lon_deg"`
}

// MappingRegion is a polygon region scored by covered-area fraction.
// Vertices are an open ring (no repeated closing vertex).
type MappingRegion struct {
	ID              string   `yaml:"id"`
	Vertices        []LatLon `yaml:"vertices"`
	CellSizeDeg     float64  `yaml:"cell_size_deg"`
	MinElevationDeg float64  `yaml:"min_elevation_deg"`
}

// StereoRequirement bounds the geometry of a qualifying stereo pair for one
// target.
type StereoRequirement struct {
	GroundPointID    string        `yaml:"ground_point_id"`
	MinAzimuthSepDeg float64       `yaml:"min_azimuth_sep_deg"`
	MaxAzimuthSepDeg float64       `yaml:"max_azimuth_sep_deg"`
	MaxTemporalGap   time.Duration `yaml:"max_temporal_gap"`
	MinElevationDeg  float64       `yaml:"min_elevation_deg"`
}

// StationPairWindow is a priority relay window between two stations,
// together with the candidate multi-hop chains the plan proposes to serve
// it with.
type StationPairWindow struct {
	StationA string       `yaml:"station_a"`
	StationB string       `yaml:"station_b"`
	Window   Horizon      `yaml:"window"`
	Chains   []RelayChain `yaml:"chains"`
}

// Requirements bundles the benchmark-specific scoring inputs of a case.
// All fields are consumed read-only by the metric aggregators.
type Requirements struct {
	Monitoring  []MonitoringTarget  `yaml:"monitoring"`
	Mapping     []MappingRegion     `yaml:"mapping"`
	Stereo      []StereoRequirement `yaml:"stereo"`
	StationPair []StationPairWindow `yaml:"station_pairs"`
}

// Case is the complete static input of one verification run: bodies,
// horizon, and scoring requirements. Immutable after loading; a single
// Case may be verified concurrently against many plans.
type Case struct {
	ID           string
	Horizon      Horizon
	Satellites   []Satellite
	GroundPoints []GroundPoint
	Requirements Requirements

	// MinElevationDeg is the default station/target visibility threshold
	// applied when a requirement does not override it.
	MinElevationDeg float64

	// MaxISLRangeKm optionally caps inter-satellite link slant range.
	// Zero means uncapped.
	MaxISLRangeKm float64
}

// SatelliteByID returns the satellite with the given ID, or nil.
func (c *Case) SatelliteByID(id string) *Satellite {
	for i := range c.Satellites {
		if c.Satellites[i].ID == id {
			return &c.Satellites[i]
		}
	}
	return nil
}

// GroundPointByID returns the ground point with the given ID, or nil.
func (c *Case) GroundPointByID(id string) *GroundPoint {
	for i := range c.GroundPoints {
		if c.GroundPoints[i].ID == id {
			return &c.GroundPoints[i]
		}
	}
	return nil
}
