package model

import "time"

// EventKind enumerates the schedule entry types a plan may contain.
type EventKind string

const (
	EventObservation EventKind = "observation"
	EventDownlink    EventKind = "downlink"
	EventCrosslink   EventKind = "crosslink"
	EventSlew        EventKind = "slew"
)

// Pointing is the attitude a satellite holds during an event, as a
// body-relative azimuth/elevation direction. The slew feasibility check
// uses the angular separation between the pointings of consecutive events.
type Pointing struct {
	AzimuthDeg   float64 `json:"azimuth_deg" yaml:"azimuth_deg"`
	ElevationDeg float64 `json:"elevation_deg" yaml:"elevation_deg"`
}

// ScheduleEvent is one entry of the plan under test. The engine treats it
// as read-only input; resource deltas are taken at face value and checked
// against capabilities.
type ScheduleEvent struct {
	ID          string    `json:"id" yaml:"id"`
	SatelliteID string    `json:"satellite_id" yaml:"satellite_id"`
	Kind        EventKind `json:"kind" yaml:"kind"`
	Start       time.Time `json:"start" yaml:"start"`
	End         time.Time `json:"end" yaml:"end"`

	// TargetID names the counterpart entity: the observed ground target,
	// the downlink station, or the crosslink peer satellite. Empty for
	// pure slew events.
	TargetID string `json:"target_id,omitempty" yaml:"target_id,omitempty"`

	// EnergyWh is drawn from the battery at the event's start boundary.
	EnergyWh float64 `json:"energy_wh" yaml:"energy_wh"`

	// StorageDeltaMB is applied at the start boundary when positive (data
	// recorded) and at the end boundary when negative (data freed, e.g. by
	// a completed downlink).
	StorageDeltaMB float64 `json:"storage_delta_mb" yaml:"storage_delta_mb"`

	// Pointing held for the duration of the event, when the event kind
	// requires an attitude.
	Pointing *Pointing `json:"pointing,omitempty" yaml:"pointing,omitempty"`
}

// UsesTerminal reports whether the event occupies an RF terminal for its
// duration.
func (e ScheduleEvent) UsesTerminal() bool {
	return e.Kind == EventDownlink || e.Kind == EventCrosslink
}

// Plan is the full submitted schedule: an ordered collection of events,
// externally produced and read-only to the engine.
type Plan struct {
	Events []ScheduleEvent `json:"events" yaml:"events"`
}

// EventsBySatellite groups events per satellite preserving input order.
func (p Plan) EventsBySatellite() map[string][]ScheduleEvent {
	out := make(map[string][]ScheduleEvent)
	for _, ev := range p.Events {
		out[ev.SatelliteID] = append(out[ev.SatelliteID], ev)
	}
	return out
}
