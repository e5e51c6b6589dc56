// Package verify runs the full verification pipeline for one case and
// plan: entity and access validation per event, the per-satellite
// resource state machine, and the benchmark score aggregation, all
// folded into a single structured report.
package verify

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/missionbench/core"
	"github.com/signalsfoundry/missionbench/internal/logging"
	"github.com/signalsfoundry/missionbench/internal/observability"
	"github.com/signalsfoundry/missionbench/internal/score"
	"github.com/signalsfoundry/missionbench/kb"
	"github.com/signalsfoundry/missionbench/model"
)

// Options tunes a verification run. All fields are optional.
type Options struct {
	// Engine tunes window detection (sample step, refinement precision).
	// Its elevation and range fields are ignored here: the case supplies
	// those defaults, and the pointer overrides below replace them.
	Engine core.Options

	// MinElevationDeg replaces the case's default visibility threshold
	// when non-nil. An explicit zero is honoured, so a pointer keeps a
	// deliberate zero-degree threshold distinguishable from "unset".
	MinElevationDeg *float64

	// MaxISLRangeKm replaces the case's inter-satellite range cap when
	// non-nil.
	MaxISLRangeKm *float64

	// Workers bounds the satellite- and pair-level parallelism. Defaults
	// to the CPU count.
	Workers int

	Logger  logging.Logger
	Metrics *observability.VerifierCollector
}

// engineOptions merges the case defaults with the run's explicit
// overrides into the effective engine tuning.
func engineOptions(c *model.Case, opts Options) core.Options {
	eo := opts.Engine
	eo.MinElevationDeg = c.MinElevationDeg
	eo.MaxISLRangeKm = c.MaxISLRangeKm
	if opts.MinElevationDeg != nil {
		eo.MinElevationDeg = *opts.MinElevationDeg
	}
	if opts.MaxISLRangeKm != nil {
		eo.MaxISLRangeKm = *opts.MaxISLRangeKm
	}
	return eo
}

// Run verifies a plan against a case and returns the full report. The
// report is always complete for a run that finishes: an invalid plan is a
// scorable outcome, not an error. Errors mean the case itself could not
// be verified.
func Run(ctx context.Context, c *model.Case, plan *model.Plan, opts Options) (*model.Report, error) {
	ctx, log := logging.WithRunLogger(ctx, opts.Logger)
	ctx = logging.ContextWithLogger(ctx, log)
	runID := logging.RunIDFromContext(ctx)
	ctx, span := observability.StartSpan(ctx, "verify.case",
		attribute.String("case_id", c.ID),
		attribute.Int("events", len(plan.Events)),
	)
	defer span.End()

	ckb, err := kb.FromCase(c)
	if err != nil {
		opts.Metrics.RecordCase("input_error")
		err = fmt.Errorf("case %s: %w", c.ID, err)
		span.RecordError(err)
		return nil, err
	}

	eng := core.NewEngine(ckb, c.Horizon, engineOptions(c, opts))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	opts.Metrics.SetPlanEvents(len(plan.Events))
	log.Info(ctx, "verification started",
		logging.String("case_id", c.ID),
		logging.Int("events", len(plan.Events)),
		logging.Int("satellites", len(c.Satellites)),
	)

	stageStart := time.Now()
	verdicts, traces, err := checkPlan(ctx, eng, c, plan, workers, opts.Metrics)
	opts.Metrics.ObserveStage("verify", time.Since(stageStart))
	if err != nil {
		opts.Metrics.RecordCase("failed")
		err = fmt.Errorf("case %s: %w", c.ID, err)
		span.RecordError(err)
		return nil, err
	}
	for _, v := range verdicts {
		for _, viol := range v.Violations {
			opts.Metrics.RecordViolation(string(viol.Kind))
		}
	}

	stageStart = time.Now()
	scores, err := aggregateScores(ctx, eng, c, plan, verdicts, workers)
	opts.Metrics.ObserveStage("scores", time.Since(stageStart))
	if err != nil {
		opts.Metrics.RecordCase("failed")
		err = fmt.Errorf("case %s: %w", c.ID, err)
		span.RecordError(err)
		return nil, err
	}

	report := &model.Report{
		RunID:       runID,
		CaseID:      c.ID,
		GeneratedAt: time.Now().UTC(),
		Verdicts:    verdicts,
		Traces:      traces,
		Scores:      scores,
	}
	for _, satID := range eng.DegenerateSatellites() {
		report.SatErrors = append(report.SatErrors, model.SatelliteError{
			SatelliteID: satID,
			Error:       eng.Degeneracy(satID).Error(),
		})
	}

	opts.Metrics.RecordCase("ok")
	log.Info(ctx, "verification finished",
		logging.String("case_id", c.ID),
		logging.Int("valid_events", report.ValidEventCount()),
		logging.Int("events", len(report.Verdicts)),
		logging.Int("degenerate_satellites", len(report.SatErrors)),
	)
	return report, nil
}

// checkPlan fans the plan out per satellite: access and semantic checks
// per event plus the resource machine, bounded by the worker semaphore.
// Satellites are independent, so one worker per satellite suffices and
// the engine's immutability makes concurrent queries safe.
func checkPlan(ctx context.Context, eng *core.Engine, c *model.Case, plan *model.Plan, workers int, metrics *observability.VerifierCollector) ([]model.EventVerdict, []model.ResourceTrace, error) {
	groups := plan.EventsBySatellite()
	satIDs := make([]string, 0, len(groups))
	for id := range groups {
		satIDs = append(satIDs, id)
	}
	sort.Strings(satIDs)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		sem      = make(chan struct{}, workers)
		perEvent = make(map[string][]model.Violation)
		traces   []model.ResourceTrace
		firstErr error
	)

	for _, satID := range satIDs {
		events := groups[satID]
		wg.Add(1)
		sem <- struct{}{}
		go func(satID string, events []model.ScheduleEvent) {
			defer wg.Done()
			defer func() { <-sem }()

			local := make(map[string][]model.Violation)
			for i := range events {
				vs, err := checkEvent(ctx, eng, c, &events[i], metrics)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				if len(vs) > 0 {
					local[events[i].ID] = append(local[events[i].ID], vs...)
				}
			}

			var trace model.ResourceTrace
			if sat := c.SatelliteByID(satID); sat != nil {
				var resourceViolations map[string][]model.Violation
				resourceViolations, trace = checkResources(sat, events)
				for id, vs := range resourceViolations {
					local[id] = append(local[id], vs...)
				}
			}

			mu.Lock()
			for id, vs := range local {
				perEvent[id] = append(perEvent[id], vs...)
			}
			if trace.SatelliteID != "" {
				traces = append(traces, trace)
			}
			mu.Unlock()

			if log := logging.LoggerFromContext(ctx); log != nil {
				log.Debug(ctx, "satellite checked",
					logging.String("satellite_id", satID),
					logging.Int("events", len(events)),
					logging.Int("flagged_events", len(local)),
				)
			}
		}(satID, events)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	verdicts := make([]model.EventVerdict, 0, len(plan.Events))
	for _, ev := range plan.Events {
		vs := perEvent[ev.ID]
		verdicts = append(verdicts, model.EventVerdict{
			EventID:     ev.ID,
			SatelliteID: ev.SatelliteID,
			Valid:       len(vs) == 0,
			Violations:  vs,
		})
	}
	sort.Slice(traces, func(i, j int) bool { return traces[i].SatelliteID < traces[j].SatelliteID })
	return verdicts, traces, nil
}

// observation is one valid observation event reduced to its scoring
// geometry, sampled at the event midpoint.
type observation struct {
	targetID string
	time     time.Time
	angles   core.LookAngles
	track    score.GroundTrack
}

// aggregateScores computes the benchmark metrics over the plan's valid
// observations and the case's declared relay windows.
func aggregateScores(ctx context.Context, eng *core.Engine, c *model.Case, plan *model.Plan, verdicts []model.EventVerdict, workers int) (model.Scores, error) {
	var scores model.Scores

	valid := make(map[string]bool, len(verdicts))
	for _, v := range verdicts {
		valid[v.EventID] = v.Valid
	}

	var observations []observation
	for i := range plan.Events {
		ev := &plan.Events[i]
		if ev.Kind != model.EventObservation || !valid[ev.ID] {
			continue
		}
		mid := ev.Start.Add(ev.End.Sub(ev.Start) / 2)

		angles, err := eng.ObservationGeometry(ev.TargetID, ev.SatelliteID, mid)
		if err != nil {
			return scores, fmt.Errorf("observation %s geometry: %w", ev.ID, err)
		}
		satECEF, err := eng.PositionECEF(ev.SatelliteID, mid)
		if err != nil {
			return scores, fmt.Errorf("observation %s position: %w", ev.ID, err)
		}
		subLat, subLon, _, err := eng.SubSatellitePoint(ev.SatelliteID, mid)
		if err != nil {
			return scores, fmt.Errorf("observation %s ground track: %w", ev.ID, err)
		}

		var swath float64
		if sat := c.SatelliteByID(ev.SatelliteID); sat != nil {
			swath = sat.Capabilities.SwathWidthKm
		}
		observations = append(observations, observation{
			targetID: ev.TargetID,
			time:     mid,
			angles:   angles,
			track: score.GroundTrack{
				SubLatDeg: subLat,
				SubLonDeg: subLon,
				SatECEF:   satECEF,
				SwathKm:   swath,
			},
		})
	}

	for _, req := range c.Requirements.Monitoring {
		var times []time.Time
		for _, obs := range observations {
			if obs.targetID != req.GroundPointID {
				continue
			}
			if req.MinElevationDeg > 0 && obs.angles.ElevationDeg < req.MinElevationDeg {
				continue
			}
			times = append(times, obs.time)
		}
		scores.Revisit = append(scores.Revisit, score.Revisit(c.Horizon, req, times))
	}

	for _, req := range c.Requirements.Stereo {
		var passes []score.Pass
		for _, obs := range observations {
			if obs.targetID != req.GroundPointID {
				continue
			}
			passes = append(passes, score.Pass{
				Time:         obs.time,
				AzimuthDeg:   obs.angles.AzimuthDeg,
				ElevationDeg: obs.angles.ElevationDeg,
			})
		}
		scores.Stereo = append(scores.Stereo, score.Stereo(req, passes))
	}

	tracks := make([]score.GroundTrack, 0, len(observations))
	for _, obs := range observations {
		tracks = append(tracks, obs.track)
	}
	for _, region := range c.Requirements.Mapping {
		scores.Coverage = append(scores.Coverage, score.Coverage(region, tracks))
	}

	latencies, err := scorePairWindows(ctx, eng, c, workers)
	if err != nil {
		return scores, err
	}
	scores.Latency = latencies
	return scores, nil
}

// scorePairWindows evaluates the station-pair priority windows in
// parallel. Chains routed through a degenerate satellite are dropped from
// the candidate set: the orbit that cannot propagate cannot relay either.
func scorePairWindows(ctx context.Context, eng *core.Engine, c *model.Case, workers int) ([]model.LatencyScore, error) {
	pairs := c.Requirements.StationPair
	if len(pairs) == 0 {
		return nil, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sem      = make(chan struct{}, workers)
		results  = make([]model.LatencyScore, len(pairs))
		firstErr error
	)
	for i, pair := range pairs {
		usable := pair
		usable.Chains = nil
		for _, chain := range pair.Chains {
			if chainDegenerate(eng, chain) {
				continue
			}
			usable.Chains = append(usable.Chains, chain)
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, pair model.StationPairWindow) {
			defer wg.Done()
			defer func() { <-sem }()

			s, err := score.Latency(ctx, eng, pair, eng.Options().SampleStep)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			results[i] = s
		}(i, usable)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func chainDegenerate(eng *core.Engine, chain model.RelayChain) bool {
	for _, id := range chain.Path {
		if eng.Degeneracy(id) != nil {
			return true
		}
	}
	return false
}
