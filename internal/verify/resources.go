package verify

import (
	"fmt"
	"sort"
	"time"

	"github.com/signalsfoundry/missionbench/core"
	"github.com/signalsfoundry/missionbench/model"
)

// boundaryKind orders coincident boundaries: an event ending at instant T
// releases its resources before an event starting at T claims them, so
// back-to-back terminal use on a single-terminal satellite is legal.
type boundaryKind int

const (
	boundaryEnd boundaryKind = iota
	boundaryStart
)

type boundary struct {
	t    time.Time
	kind boundaryKind
	ev   *model.ScheduleEvent
}

// checkResources replays one satellite's events through the resource state
// machine. Deltas apply at boundaries: energy and recorded data at the
// start, freed data and released terminals at the end. Invariants are
// checked after every boundary and breaches attach to the event whose
// boundary broke them; the machine always runs the full horizon, a
// depleted battery does not stop later events from being checked.
func checkResources(sat *model.Satellite, events []model.ScheduleEvent) (map[string][]model.Violation, model.ResourceTrace) {
	violations := make(map[string][]model.Violation)
	trace := model.ResourceTrace{SatelliteID: sat.ID}

	caps := sat.Capabilities
	boundaries := make([]boundary, 0, 2*len(events))
	for i := range events {
		ev := &events[i]
		if !ev.End.After(ev.Start) {
			// malformed events are reported by the semantic checks and
			// excluded from the machine
			continue
		}
		boundaries = append(boundaries,
			boundary{t: ev.Start, kind: boundaryStart, ev: ev},
			boundary{t: ev.End, kind: boundaryEnd, ev: ev},
		)
	}
	sort.Slice(boundaries, func(i, j int) bool {
		bi, bj := boundaries[i], boundaries[j]
		if !bi.t.Equal(bj.t) {
			return bi.t.Before(bj.t)
		}
		if bi.kind != bj.kind {
			return bi.kind < bj.kind
		}
		return bi.ev.ID < bj.ev.ID
	})

	battery := caps.BatteryCapacityWh
	storage := 0.0
	terminals := 0

	record := func(evID string, kind model.ViolationKind, format string, args ...any) {
		violations[evID] = append(violations[evID], model.Violation{
			Kind:   kind,
			Detail: fmt.Sprintf(format, args...),
		})
	}

	for _, b := range boundaries {
		ev := b.ev
		switch b.kind {
		case boundaryStart:
			battery -= ev.EnergyWh
			if battery > caps.BatteryCapacityWh {
				battery = caps.BatteryCapacityWh
			}
			if battery <= 0 {
				record(ev.ID, model.ViolationBatteryDepleted,
					"battery at %.1f Wh after drawing %.1f Wh", battery, ev.EnergyWh)
			}
			if ev.StorageDeltaMB > 0 {
				storage += ev.StorageDeltaMB
				if storage > caps.StorageCapacityMB {
					record(ev.ID, model.ViolationStorageExceeded,
						"storage at %.1f MB exceeds capacity %.1f MB", storage, caps.StorageCapacityMB)
				}
			}
			if ev.UsesTerminal() {
				terminals++
				if terminals > caps.NumTerminals {
					record(ev.ID, model.ViolationTerminalConflict,
						"%d terminals active, only %d fitted", terminals, caps.NumTerminals)
				}
			}
		case boundaryEnd:
			if ev.StorageDeltaMB < 0 {
				storage += ev.StorageDeltaMB
				if storage < 0 {
					storage = 0
				}
			}
			if ev.UsesTerminal() && terminals > 0 {
				terminals--
			}
		}

		trace.Samples = append(trace.Samples, model.ResourceSample{
			Time:            b.t,
			EventID:         ev.ID,
			BatteryWh:       battery,
			StorageMB:       storage,
			ActiveTerminals: terminals,
		})
	}

	for id, vs := range checkSlews(sat, events) {
		violations[id] = append(violations[id], vs...)
	}
	return violations, trace
}

// checkSlews verifies that the gap between consecutive pointed events
// leaves enough time to slew between their attitudes at the satellite's
// maximum slew rate. An infeasible transition invalidates the later
// event only: the earlier one already happened by the time the slew
// becomes impossible.
func checkSlews(sat *model.Satellite, events []model.ScheduleEvent) map[string][]model.Violation {
	pointed := make([]*model.ScheduleEvent, 0, len(events))
	for i := range events {
		ev := &events[i]
		if ev.Pointing != nil && ev.End.After(ev.Start) {
			pointed = append(pointed, ev)
		}
	}
	sort.Slice(pointed, func(i, j int) bool {
		if !pointed[i].Start.Equal(pointed[j].Start) {
			return pointed[i].Start.Before(pointed[j].Start)
		}
		return pointed[i].ID < pointed[j].ID
	})

	violations := make(map[string][]model.Violation)
	for i := 1; i < len(pointed); i++ {
		prev, next := pointed[i-1], pointed[i]
		sep := core.AngularSeparationDeg(
			prev.Pointing.AzimuthDeg, prev.Pointing.ElevationDeg,
			next.Pointing.AzimuthDeg, next.Pointing.ElevationDeg,
		)
		if sep == 0 {
			continue
		}

		gap := next.Start.Sub(prev.End)
		if sat.Capabilities.MaxSlewRateDegSec <= 0 {
			violations[next.ID] = append(violations[next.ID], model.Violation{
				Kind:   model.ViolationSlewInfeasible,
				Detail: fmt.Sprintf("%.1f deg offset from %s but no slew capability", sep, prev.ID),
			})
			continue
		}
		needed := time.Duration(sep / sat.Capabilities.MaxSlewRateDegSec * float64(time.Second))
		if gap < needed {
			violations[next.ID] = append(violations[next.ID], model.Violation{
				Kind: model.ViolationSlewInfeasible,
				Detail: fmt.Sprintf("%.1f deg slew from %s needs %s, gap is %s",
					sep, prev.ID, needed, gap),
			})
		}
	}
	return violations
}
