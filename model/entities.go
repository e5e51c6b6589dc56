package model

import "time"

// ElementForm indicates which orbital element representation a satellite
// carries.
type ElementForm int

const (
	ElementFormUnknown ElementForm = iota
	ElementFormTLE                 // two-line element set, SGP4 propagation
	ElementFormKepler              // classical elements, two-body propagation
)

// KeplerElements is a classical element set at a reference epoch.
// Angles are in degrees, the semi-major axis in kilometres.
type KeplerElements struct {
	SemiMajorAxisKm float64 `yaml:"semi_major_axis_km"`
	Eccentricity    float64 `yaml:"eccentricity"`
	InclinationDeg  float64 `yaml:"inclination_deg"`
	RAANDeg         float64 `yaml:"raan_deg"`
	ArgPerigeeDeg   float64 `yaml:"arg_perigee_deg"`
	MeanAnomalyDeg  float64 `yaml:"mean_anomaly_deg"`
}

// Capabilities describes a satellite's resource and agility limits.
// All fields are read-only once the case is loaded.
type Capabilities struct {
	BatteryCapacityWh float64 `yaml:"battery_capacity_wh"`
	StorageCapacityMB float64 `yaml:"storage_capacity_mb"`
	NumTerminals      int     `yaml:"num_terminals"`
	MaxSlewRateDegSec float64 `yaml:"max_slew_rate_deg_s"`
	SwathWidthKm      float64 `yaml:"swath_width_km"`
}

// Satellite identifies one spacecraft in a case: an element set, its epoch
// of validity, and resource capabilities. Immutable once loaded.
type Satellite struct {
	ID    string
	Name  string
	Form  ElementForm
	Epoch time.Time // element set epoch

	// TLE lines, used when Form == ElementFormTLE.
	TLELine1 string
	TLELine2 string

	// Classical elements, used when Form == ElementFormKepler.
	Kepler KeplerElements

	Capabilities Capabilities
}

// GroundKind distinguishes stations (comm endpoints) from observation
// targets.
type GroundKind int

const (
	GroundKindStation GroundKind = iota
	GroundKindTarget
)

// GroundPoint is a station or target at a fixed geodetic location.
// Immutable once loaded.
type GroundPoint struct {
	ID     string
	Name   string
	Kind   GroundKind
	LatDeg float64
	LonDeg float64
	AltM   float64
}
