package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/missionbench/core"
	"github.com/signalsfoundry/missionbench/internal/observability"
	"github.com/signalsfoundry/missionbench/model"
)

// checkEvent validates one event's shape, the entities it names, and the
// line-of-sight access it presupposes. Returned violations attach to the
// event; a non-nil error aborts the case (engine failures that are not
// part of the normal taxonomy).
func checkEvent(ctx context.Context, eng *core.Engine, c *model.Case, ev *model.ScheduleEvent, metrics *observability.VerifierCollector) ([]model.Violation, error) {
	var violations []model.Violation
	record := func(kind model.ViolationKind, format string, args ...any) {
		violations = append(violations, model.Violation{
			Kind:   kind,
			Detail: fmt.Sprintf(format, args...),
		})
	}

	switch ev.Kind {
	case model.EventObservation, model.EventDownlink, model.EventCrosslink, model.EventSlew:
	default:
		record(model.ViolationMalformedEvent, "unknown event kind %q", ev.Kind)
		return violations, nil
	}
	if !ev.End.After(ev.Start) {
		record(model.ViolationMalformedEvent, "end %s not after start %s",
			ev.End.Format("15:04:05"), ev.Start.Format("15:04:05"))
		return violations, nil
	}

	sat := c.SatelliteByID(ev.SatelliteID)
	if sat == nil {
		record(model.ViolationUnknownEntity, "unknown satellite %q", ev.SatelliteID)
		return violations, nil
	}
	if err := eng.Degeneracy(ev.SatelliteID); err != nil {
		record(model.ViolationDegenerateOrbit, "%v", err)
		return violations, nil
	}

	if ev.Kind == model.EventSlew {
		return violations, nil
	}

	// comm and imaging events need a counterpart
	if ev.TargetID == "" {
		record(model.ViolationMalformedEvent, "%s event without a target", ev.Kind)
		return violations, nil
	}
	cons, ok := counterpartConstraints(eng, c, ev, record)
	if !ok {
		return violations, nil
	}

	h := model.Horizon{Start: ev.Start, End: ev.End}
	if clipped, ok := eng.Horizon().Overlap(h); !ok || !clipped.Start.Equal(h.Start) || !clipped.End.Equal(h.End) {
		record(model.ViolationNoAccess, "event extends outside the case horizon")
		return violations, nil
	}

	ivs, err := eng.AccessIntervals(ctx, ev.SatelliteID, ev.TargetID, h, cons)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUnknownEntity):
			record(model.ViolationUnknownEntity, "%v", err)
		case errors.Is(err, core.ErrOutOfHorizon):
			record(model.ViolationNoAccess, "%v", err)
		case errors.Is(err, core.ErrInvalidElementSet), errors.Is(err, core.ErrNumericDegeneracy):
			record(model.ViolationDegenerateOrbit, "%v", err)
		default:
			return nil, err
		}
		return violations, nil
	}
	metrics.AddAccessWindows(len(ivs))

	if covered := model.TotalDuration(ivs); covered < h.Duration() {
		record(model.ViolationNoAccess, "%s visible for %s of the event's %s",
			ev.TargetID, covered, h.Duration())
	}
	return violations, nil
}

// counterpartConstraints resolves the event's target and the visibility
// constraints its access must satisfy. Thresholds come from the engine's
// effective options, so run-level overrides bind event checks and chain
// hops identically. The second return is false when the target itself is
// invalid (violations already recorded).
func counterpartConstraints(eng *core.Engine, c *model.Case, ev *model.ScheduleEvent, record func(model.ViolationKind, string, ...any)) ([]model.Constraint, bool) {
	opts := eng.Options()
	switch ev.Kind {
	case model.EventCrosslink:
		if c.SatelliteByID(ev.TargetID) == nil {
			record(model.ViolationUnknownEntity, "unknown crosslink peer %q", ev.TargetID)
			return nil, false
		}
		cons := []model.Constraint{model.EarthOcclusion()}
		if opts.MaxISLRangeKm > 0 {
			cons = append(cons, model.MaxRange(opts.MaxISLRangeKm))
		}
		return cons, true

	case model.EventDownlink:
		gp := c.GroundPointByID(ev.TargetID)
		if gp == nil {
			record(model.ViolationUnknownEntity, "unknown station %q", ev.TargetID)
			return nil, false
		}
		if gp.Kind != model.GroundKindStation {
			record(model.ViolationMalformedEvent, "downlink target %q is not a station", ev.TargetID)
			return nil, false
		}
		return []model.Constraint{model.MinElevation(opts.MinElevationDeg)}, true

	default: // observation
		if c.GroundPointByID(ev.TargetID) == nil {
			record(model.ViolationUnknownEntity, "unknown ground target %q", ev.TargetID)
			return nil, false
		}
		return []model.Constraint{model.MinElevation(opts.MinElevationDeg)}, true
	}
}
