package model

import "time"

// ViolationKind classifies why an event failed verification.
type ViolationKind string

const (
	ViolationBatteryDepleted  ViolationKind = "battery_depleted"
	ViolationStorageExceeded  ViolationKind = "storage_exceeded"
	ViolationTerminalConflict ViolationKind = "terminal_conflict"
	ViolationSlewInfeasible   ViolationKind = "slew_infeasible"
	ViolationNoAccess         ViolationKind = "no_access"
	ViolationUnknownEntity    ViolationKind = "unknown_entity"
	ViolationDegenerateOrbit  ViolationKind = "degenerate_orbit"
	ViolationMalformedEvent   ViolationKind = "malformed_event"
)

// Violation is one recorded constraint failure.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Detail string        `json:"detail,omitempty"`
}

// EventVerdict is the per-event verification outcome. An event is valid
// only when Violations is empty; the two states are mutually exclusive.
type EventVerdict struct {
	EventID     string      `json:"event_id"`
	SatelliteID string      `json:"satellite_id"`
	Valid       bool        `json:"valid"`
	Violations  []Violation `json:"violations,omitempty"`
}

// ResourceSample is one point of the per-satellite resource trace, taken at
// an event boundary after the boundary's deltas were applied.
type ResourceSample struct {
	Time            time.Time `json:"time"`
	EventID         string    `json:"event_id"`
	BatteryWh       float64   `json:"battery_wh"`
	StorageMB       float64   `json:"storage_mb"`
	ActiveTerminals int       `json:"active_terminals"`
}

// ResourceTrace is the full boundary-sampled resource history for one
// satellite. Computed once in event-time order and then read-only.
type ResourceTrace struct {
	SatelliteID string           `json:"satellite_id"`
	Samples     []ResourceSample `json:"samples"`
}

// RevisitScore reports the gap statistics for one monitoring target.
// Horizon-boundary gaps are included by convention: a target with no valid
// observation scores a single gap equal to the full horizon.
type RevisitScore struct {
	TargetID     string        `json:"target_id"`
	Observations int           `json:"observations"`
	MaxGap       time.Duration `json:"max_gap"`
	MeanGap      time.Duration `json:"mean_gap"`
	QuotaMet     bool          `json:"quota_met"`
}

// CoverageScore reports the covered-area fraction of one mapping region.
type CoverageScore struct {
	RegionID     string  `json:"region_id"`
	CellsTotal   int     `json:"cells_total"`
	CellsCovered int     `json:"cells_covered"`
	Fraction     float64 `json:"fraction"`
}

// StereoScore reports whether one stereo target acquired a qualifying pair.
type StereoScore struct {
	TargetID string `json:"target_id"`
	Covered  bool   `json:"covered"`
	Pairs    int    `json:"pairs"`
}

// LatencyScore reports relay latency statistics over one station-pair
// priority window. CoverageFraction of zero with zeroed latencies means no
// chain was ever active in the window; that is a reportable score, not an
// error.
type LatencyScore struct {
	StationA         string        `json:"station_a"`
	StationB         string        `json:"station_b"`
	CoverageFraction float64       `json:"coverage_fraction"`
	MeanLatency      time.Duration `json:"mean_latency"`
	MinLatency       time.Duration `json:"min_latency"`
	MaxLatency       time.Duration `json:"max_latency"`
}

// Scores bundles all benchmark metric outputs of one run.
type Scores struct {
	Revisit  []RevisitScore  `json:"revisit,omitempty"`
	Coverage []CoverageScore `json:"coverage,omitempty"`
	Stereo   []StereoScore   `json:"stereo,omitempty"`
	Latency  []LatencyScore  `json:"latency,omitempty"`
}

// SatelliteError records a per-satellite degeneracy that excluded that
// satellite's contribution without aborting the case.
type SatelliteError struct {
	SatelliteID string `json:"satellite_id"`
	Error       string `json:"error"`
}

// Report is the structured output of one verification run. A partially
// valid plan is a normal, scorable outcome: the report always carries
// every verdict, the full trace, and all scores.
type Report struct {
	RunID       string           `json:"run_id"`
	CaseID      string           `json:"case_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Verdicts    []EventVerdict   `json:"verdicts"`
	Traces      []ResourceTrace  `json:"traces"`
	Scores      Scores           `json:"scores"`
	SatErrors   []SatelliteError `json:"satellite_errors,omitempty"`
}

// ValidEventCount returns how many events passed every check.
func (r *Report) ValidEventCount() int {
	n := 0
	for _, v := range r.Verdicts {
		if v.Valid {
			n++
		}
	}
	return n
}
