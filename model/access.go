package model

// ConstraintKind enumerates the closed set of geometric visibility
// constraints. New kinds are added by extending this enum; the dispatcher
// in core evaluates every kind it knows about.
type ConstraintKind int

const (
	// ConstraintMinElevation requires the target's elevation above the
	// observing ground point's horizon to meet a threshold.
	ConstraintMinElevation ConstraintKind = iota
	// ConstraintEarthOcclusion requires the straight line between the two
	// entities to clear the Earth's solid body.
	ConstraintEarthOcclusion
	// ConstraintMaxRange caps the slant range between the entities.
	ConstraintMaxRange
)

// Constraint is one tagged variant of the visibility constraint set. Only
// the field matching Kind is meaningful.
type Constraint struct {
	Kind            ConstraintKind
	MinElevationDeg float64
	MaxRangeKm      float64
}

// MinElevation builds a minimum-elevation constraint.
func MinElevation(deg float64) Constraint {
	return Constraint{Kind: ConstraintMinElevation, MinElevationDeg: deg}
}

// EarthOcclusion builds a line-of-sight clearance constraint.
func EarthOcclusion() Constraint {
	return Constraint{Kind: ConstraintEarthOcclusion}
}

// MaxRange builds a maximum slant-range constraint.
func MaxRange(km float64) Constraint {
	return Constraint{Kind: ConstraintMaxRange, MaxRangeKm: km}
}

// AccessWindow is one visibility interval between a pair of entities, with
// the constraints under which it was computed and the peak elevation
// reached during the window. Never mutated after creation.
type AccessWindow struct {
	EntityA     string       `json:"entity_a"`
	EntityB     string       `json:"entity_b"`
	Window      Interval     `json:"window"`
	Constraints []Constraint `json:"-"`

	// MaxElevationDeg is the highest elevation observed while sampling the
	// window. Zero for satellite-satellite windows, where elevation is not
	// defined.
	MaxElevationDeg float64 `json:"max_elevation_deg,omitempty"`
}

// RelayChain is an ordered path of entity identifiers, station to station
// through one or more relay satellites. The chain is usable only at
// instants where every consecutive hop is simultaneously visible: data is
// never latched at an intermediate node.
type RelayChain struct {
	Path []string `json:"path" yaml:"path"`
}

// Hops returns the consecutive entity pairs along the chain.
func (c RelayChain) Hops() [][2]string {
	if len(c.Path) < 2 {
		return nil
	}
	hops := make([][2]string, 0, len(c.Path)-1)
	for i := 0; i+1 < len(c.Path); i++ {
		hops = append(hops, [2]string{c.Path[i], c.Path[i+1]})
	}
	return hops
}
