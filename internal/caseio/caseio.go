// Package caseio loads benchmark cases and schedule plans from disk.
//
// Wire shapes are kept unexported so the file format can evolve without
// touching the domain model. Structural problems surface as *InputError,
// which is fatal for the affected case only; semantic problems inside a
// plan (unknown satellites, inverted event times) are deliberately left
// to the verifier, which records them as per-event violations instead of
// refusing the whole file.
package caseio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/missionbench/model"
)

// InputError reports a malformed or internally inconsistent input file.
type InputError struct {
	Source string // file path or stream label
	Field  string // dotted path of the offending field, when known
	Reason string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("input %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("input %s: %s: %s", e.Source, e.Field, e.Reason)
}

// IsInputError reports whether err is (or wraps) an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

func inputErr(source, field, format string, args ...any) error {
	return &InputError{Source: source, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ---- case wire shapes ----

type caseYAML struct {
	ID           string           `yaml:"id"`
	Horizon      horizonYAML      `yaml:"horizon"`
	Defaults     defaultsYAML     `yaml:"defaults"`
	Satellites   []satelliteYAML  `yaml:"satellites"`
	GroundPoints []groundYAML     `yaml:"ground_points"`
	Requirements requirementsYAML `yaml:"requirements"`
}

type horizonYAML struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

type defaultsYAML struct {
	MinElevationDeg float64 `yaml:"min_elevation_deg"`
	MaxISLRangeKm   float64 `yaml:"max_isl_range_km"`
}

type satelliteYAML struct {
	ID           string                `yaml:"id"`
	Name         string                `yaml:"name"`
	Epoch        time.Time             `yaml:"epoch"`
	TLE          *tleYAML              `yaml:"tle"`
	Kepler       *model.KeplerElements `yaml:"kepler"`
	Capabilities model.Capabilities    `yaml:"capabilities"`
}

type tleYAML struct {
	Line1 string `yaml:"line1"`
	Line2 string `yaml:"line2"`
}

type groundYAML struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Kind   string  `yaml:"kind"` // "station" | "target"
	LatDeg float64 `yaml:"lat_deg"`
	LonDeg float64 `yaml:"lon_deg"`
	AltM   float64 `yaml:"alt_m"`
}

type requirementsYAML struct {
	Monitoring   []model.MonitoringTarget `yaml:"monitoring"`
	Mapping      []model.MappingRegion    `yaml:"mapping"`
	Stereo       []stereoYAML             `yaml:"stereo"`
	StationPairs []stationPairYAML        `yaml:"station_pairs"`
}

type stereoYAML struct {
	GroundPointID    string       `yaml:"ground_point_id"`
	MinAzimuthSepDeg float64      `yaml:"min_azimuth_sep_deg"`
	MaxAzimuthSepDeg float64      `yaml:"max_azimuth_sep_deg"`
	MaxTemporalGap   durationYAML `yaml:"max_temporal_gap"`
	MinElevationDeg  float64      `yaml:"min_elevation_deg"`
}

type stationPairYAML struct {
	StationA string      `yaml:"station_a"`
	StationB string      `yaml:"station_b"`
	Window   horizonYAML `yaml:"window"`
	Chains   [][]string  `yaml:"chains"`
}

// durationYAML accepts either a Go duration string ("1h30m") or a plain
// number of seconds.
type durationYAML time.Duration

func (d *durationYAML) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = durationYAML(parsed)
		return nil
	}
	var secs float64
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("duration must be a string or seconds: %w", err)
	}
	*d = durationYAML(time.Duration(secs * float64(time.Second)))
	return nil
}

// LoadCaseFile loads and validates one case description from a YAML file.
func LoadCaseFile(path string) (*model.Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, inputErr(path, "", "open: %v", err)
	}
	defer f.Close()
	return LoadCase(f, path)
}

// LoadCase loads and validates one case description from r. The source
// label is used in error messages only.
func LoadCase(r io.Reader, source string) (*model.Case, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var payload caseYAML
	if err := dec.Decode(&payload); err != nil {
		return nil, inputErr(source, "", "decode: %v", err)
	}

	if payload.ID == "" {
		return nil, inputErr(source, "id", "required")
	}
	if payload.Horizon.Start.IsZero() || payload.Horizon.End.IsZero() {
		return nil, inputErr(source, "horizon", "start and end are required")
	}
	if !payload.Horizon.End.After(payload.Horizon.Start) {
		return nil, inputErr(source, "horizon", "end must be after start")
	}
	if len(payload.Satellites) == 0 {
		return nil, inputErr(source, "satellites", "at least one satellite is required")
	}
	if payload.Defaults.MinElevationDeg < 0 || payload.Defaults.MinElevationDeg >= 90 {
		return nil, inputErr(source, "defaults.min_elevation_deg", "must be in [0, 90)")
	}

	c := &model.Case{
		ID: payload.ID,
		Horizon: model.Horizon{
			Start: payload.Horizon.Start.UTC(),
			End:   payload.Horizon.End.UTC(),
		},
		MinElevationDeg: payload.Defaults.MinElevationDeg,
		MaxISLRangeKm:   payload.Defaults.MaxISLRangeKm,
	}

	seen := make(map[string]string, len(payload.Satellites)+len(payload.GroundPoints))

	for i, sy := range payload.Satellites {
		field := fmt.Sprintf("satellites[%d]", i)
		if sy.ID == "" {
			return nil, inputErr(source, field+".id", "required")
		}
		if prev, dup := seen[sy.ID]; dup {
			return nil, inputErr(source, field+".id", "duplicate of %s %q", prev, sy.ID)
		}
		seen[sy.ID] = "satellite"

		sat := model.Satellite{
			ID:           sy.ID,
			Name:         sy.Name,
			Epoch:        sy.Epoch.UTC(),
			Capabilities: sy.Capabilities,
		}
		switch {
		case sy.TLE != nil && sy.Kepler != nil:
			return nil, inputErr(source, field, "tle and kepler are mutually exclusive")
		case sy.TLE != nil:
			sat.Form = model.ElementFormTLE
			sat.TLELine1 = strings.TrimRight(sy.TLE.Line1, " ")
			sat.TLELine2 = strings.TrimRight(sy.TLE.Line2, " ")
			if sat.TLELine1 == "" || sat.TLELine2 == "" {
				return nil, inputErr(source, field+".tle", "both lines are required")
			}
		case sy.Kepler != nil:
			sat.Form = model.ElementFormKepler
			sat.Kepler = *sy.Kepler
			if sy.Epoch.IsZero() {
				return nil, inputErr(source, field+".epoch", "required for kepler elements")
			}
		default:
			return nil, inputErr(source, field, "one of tle or kepler is required")
		}
		c.Satellites = append(c.Satellites, sat)
	}

	for i, gy := range payload.GroundPoints {
		field := fmt.Sprintf("ground_points[%d]", i)
		if gy.ID == "" {
			return nil, inputErr(source, field+".id", "required")
		}
		if prev, dup := seen[gy.ID]; dup {
			return nil, inputErr(source, field+".id", "duplicate of %s %q", prev, gy.ID)
		}
		seen[gy.ID] = "ground point"

		kind, err := groundKindFromString(gy.Kind)
		if err != nil {
			return nil, inputErr(source, field+".kind", "%v", err)
		}
		if gy.LatDeg < -90 || gy.LatDeg > 90 {
			return nil, inputErr(source, field+".lat_deg", "must be in [-90, 90]")
		}
		if gy.LonDeg < -180 || gy.LonDeg > 180 {
			return nil, inputErr(source, field+".lon_deg", "must be in [-180, 180]")
		}
		c.GroundPoints = append(c.GroundPoints, model.GroundPoint{
			ID:     gy.ID,
			Name:   gy.Name,
			Kind:   kind,
			LatDeg: gy.LatDeg,
			LonDeg: gy.LonDeg,
			AltM:   gy.AltM,
		})
	}

	reqs, err := requirementsFromYAML(source, payload.Requirements, c)
	if err != nil {
		return nil, err
	}
	c.Requirements = reqs

	return c, nil
}

func groundKindFromString(s string) (model.GroundKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "station":
		return model.GroundKindStation, nil
	case "target":
		return model.GroundKindTarget, nil
	default:
		return 0, fmt.Errorf("unknown kind %q (want station or target)", s)
	}
}

func requirementsFromYAML(source string, ry requirementsYAML, c *model.Case) (model.Requirements, error) {
	var reqs model.Requirements

	for i, mt := range ry.Monitoring {
		field := fmt.Sprintf("requirements.monitoring[%d]", i)
		gp := c.GroundPointByID(mt.GroundPointID)
		if gp == nil {
			return reqs, inputErr(source, field+".ground_point_id", "unknown ground point %q", mt.GroundPointID)
		}
		if mt.Quota < 0 {
			return reqs, inputErr(source, field+".quota", "must be non-negative")
		}
		reqs.Monitoring = append(reqs.Monitoring, mt)
	}

	for i, mr := range ry.Mapping {
		field := fmt.Sprintf("requirements.mapping[%d]", i)
		if mr.ID == "" {
			return reqs, inputErr(source, field+".id", "required")
		}
		if len(mr.Vertices) < 3 {
			return reqs, inputErr(source, field+".vertices", "polygon needs at least 3 vertices")
		}
		if mr.CellSizeDeg <= 0 {
			return reqs, inputErr(source, field+".cell_size_deg", "must be positive")
		}
		reqs.Mapping = append(reqs.Mapping, mr)
	}

	for i, sy := range ry.Stereo {
		field := fmt.Sprintf("requirements.stereo[%d]", i)
		if c.GroundPointByID(sy.GroundPointID) == nil {
			return reqs, inputErr(source, field+".ground_point_id", "unknown ground point %q", sy.GroundPointID)
		}
		if sy.MaxAzimuthSepDeg < sy.MinAzimuthSepDeg {
			return reqs, inputErr(source, field, "max_azimuth_sep_deg below min_azimuth_sep_deg")
		}
		if sy.MaxTemporalGap <= 0 {
			return reqs, inputErr(source, field+".max_temporal_gap", "must be positive")
		}
		reqs.Stereo = append(reqs.Stereo, model.StereoRequirement{
			GroundPointID:    sy.GroundPointID,
			MinAzimuthSepDeg: sy.MinAzimuthSepDeg,
			MaxAzimuthSepDeg: sy.MaxAzimuthSepDeg,
			MaxTemporalGap:   time.Duration(sy.MaxTemporalGap),
			MinElevationDeg:  sy.MinElevationDeg,
		})
	}

	for i, py := range ry.StationPairs {
		field := fmt.Sprintf("requirements.station_pairs[%d]", i)
		for _, stationID := range []string{py.StationA, py.StationB} {
			gp := c.GroundPointByID(stationID)
			if gp == nil {
				return reqs, inputErr(source, field, "unknown station %q", stationID)
			}
			if gp.Kind != model.GroundKindStation {
				return reqs, inputErr(source, field, "%q is not a station", stationID)
			}
		}
		if !py.Window.End.After(py.Window.Start) {
			return reqs, inputErr(source, field+".window", "end must be after start")
		}

		pair := model.StationPairWindow{
			StationA: py.StationA,
			StationB: py.StationB,
			Window: model.Horizon{
				Start: py.Window.Start.UTC(),
				End:   py.Window.End.UTC(),
			},
		}
		for j, path := range py.Chains {
			cf := fmt.Sprintf("%s.chains[%d]", field, j)
			if len(path) < 2 {
				return reqs, inputErr(source, cf, "chain needs at least 2 entities")
			}
			if path[0] != py.StationA || path[len(path)-1] != py.StationB {
				return reqs, inputErr(source, cf, "chain must run from %q to %q", py.StationA, py.StationB)
			}
			for _, id := range path[1 : len(path)-1] {
				if c.SatelliteByID(id) == nil {
					return reqs, inputErr(source, cf, "unknown relay satellite %q", id)
				}
			}
			pair.Chains = append(pair.Chains, model.RelayChain{Path: append([]string(nil), path...)})
		}
		reqs.StationPair = append(reqs.StationPair, pair)
	}

	return reqs, nil
}

// ---- plan loading ----

// LoadPlanFile loads a schedule plan from a YAML or JSON file, chosen by
// extension (.json means JSON, anything else YAML).
func LoadPlanFile(path string) (*model.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, inputErr(path, "", "open: %v", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadPlanJSON(f, path)
	}
	return LoadPlanYAML(f, path)
}

// LoadPlanYAML decodes a plan from YAML.
func LoadPlanYAML(r io.Reader, source string) (*model.Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var plan model.Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, inputErr(source, "", "decode: %v", err)
	}
	return &plan, validatePlan(source, &plan)
}

// LoadPlanJSON decodes a plan from JSON.
func LoadPlanJSON(r io.Reader, source string) (*model.Plan, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var plan model.Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, inputErr(source, "", "decode: %v", err)
	}
	return &plan, validatePlan(source, &plan)
}

// validatePlan enforces only what verdict reporting cannot live without:
// each event needs an ID to attribute a verdict to, a satellite to charge
// it against, and IDs must be unique. Everything else (unknown entities,
// inverted times, unknown kinds) is the verifier's job to record.
func validatePlan(source string, plan *model.Plan) error {
	seen := make(map[string]struct{}, len(plan.Events))
	for i, ev := range plan.Events {
		field := fmt.Sprintf("events[%d]", i)
		if ev.ID == "" {
			return inputErr(source, field+".id", "required")
		}
		if _, dup := seen[ev.ID]; dup {
			return inputErr(source, field+".id", "duplicate event id %q", ev.ID)
		}
		seen[ev.ID] = struct{}{}
		if ev.SatelliteID == "" {
			return inputErr(source, field+".satellite_id", "required")
		}
	}
	return nil
}
