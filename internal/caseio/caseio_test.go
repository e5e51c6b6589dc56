package caseio

import (
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/missionbench/model"
)

const validCaseYAML = `
id: case-leo-demo
horizon:
  start: 2026-03-01T00:00:00Z
  end: 2026-03-02T00:00:00Z
defaults:
  min_elevation_deg: 5
  max_isl_range_km: 6000
satellites:
  - id: sat-1
    name: Pathfinder-1
    epoch: 2026-03-01T00:00:00Z
    kepler:
      semi_major_axis_km: 6878
      eccentricity: 0.001
      inclination_deg: 97.4
      raan_deg: 120
      arg_perigee_deg: 0
      mean_anomaly_deg: 45
    capabilities:
      battery_capacity_wh: 500
      storage_capacity_mb: 4096
      num_terminals: 2
      max_slew_rate_deg_s: 1.5
      swath_width_km: 120
  - id: sat-2
    name: Pathfinder-2
    tle:
      line1: "1 25544U 98067A   26060.50000000  .00016717  00000-0  10270-3 0  9000"
      line2: "2 25544  51.6400 208.9163 0006317  69.9862 290.2553 15.54225995 00000"
ground_points:
  - id: gs-svalbard
    name: Svalbard
    kind: station
    lat_deg: 78.2
    lon_deg: 15.4
    alt_m: 450
  - id: gs-punta
    kind: station
    lat_deg: -53.0
    lon_deg: -70.8
  - id: tgt-reef
    kind: target
    lat_deg: -18.2
    lon_deg: 147.7
requirements:
  monitoring:
    - ground_point_id: tgt-reef
      quota: 4
      min_elevation_deg: 20
  mapping:
    - id: region-coast
      cell_size_deg: 0.5
      min_elevation_deg: 15
      vertices:
        - {lat_deg: -17.0, lon_deg: 146.0}
        - {lat_deg: -17.0, lon_deg: 149.0}
        - {lat_deg: -20.0, lon_deg: 149.0}
        - {lat_deg: -20.0, lon_deg: 146.0}
  stereo:
    - ground_point_id: tgt-reef
      min_azimuth_sep_deg: 10
      max_azimuth_sep_deg: 40
      max_temporal_gap: 1h
      min_elevation_deg: 30
  station_pairs:
    - station_a: gs-svalbard
      station_b: gs-punta
      window:
        start: 2026-03-01T06:00:00Z
        end: 2026-03-01T08:00:00Z
      chains:
        - [gs-svalbard, sat-1, gs-punta]
        - [gs-svalbard, sat-1, sat-2, gs-punta]
`

func TestLoadCaseValid(t *testing.T) {
	c, err := LoadCase(strings.NewReader(validCaseYAML), "test")
	if err != nil {
		t.Fatalf("LoadCase: %v", err)
	}

	if c.ID != "case-leo-demo" {
		t.Errorf("ID = %q, want case-leo-demo", c.ID)
	}
	if got := c.Horizon.Duration(); got != 24*time.Hour {
		t.Errorf("horizon duration = %v, want 24h", got)
	}
	if c.MinElevationDeg != 5 || c.MaxISLRangeKm != 6000 {
		t.Errorf("defaults = (%v, %v), want (5, 6000)", c.MinElevationDeg, c.MaxISLRangeKm)
	}

	if len(c.Satellites) != 2 {
		t.Fatalf("satellites = %d, want 2", len(c.Satellites))
	}
	sat1 := c.SatelliteByID("sat-1")
	if sat1 == nil || sat1.Form != model.ElementFormKepler {
		t.Fatalf("sat-1 missing or wrong form: %+v", sat1)
	}
	if sat1.Kepler.SemiMajorAxisKm != 6878 || sat1.Kepler.InclinationDeg != 97.4 {
		t.Errorf("sat-1 elements = %+v", sat1.Kepler)
	}
	if sat1.Capabilities.NumTerminals != 2 || sat1.Capabilities.SwathWidthKm != 120 {
		t.Errorf("sat-1 capabilities = %+v", sat1.Capabilities)
	}
	sat2 := c.SatelliteByID("sat-2")
	if sat2 == nil || sat2.Form != model.ElementFormTLE {
		t.Fatalf("sat-2 missing or wrong form: %+v", sat2)
	}
	if !strings.HasPrefix(sat2.TLELine1, "1 25544U") || !strings.HasPrefix(sat2.TLELine2, "2 25544") {
		t.Errorf("sat-2 TLE lines = %q / %q", sat2.TLELine1, sat2.TLELine2)
	}

	if len(c.GroundPoints) != 3 {
		t.Fatalf("ground points = %d, want 3", len(c.GroundPoints))
	}
	if gp := c.GroundPointByID("tgt-reef"); gp == nil || gp.Kind != model.GroundKindTarget {
		t.Errorf("tgt-reef = %+v, want target", gp)
	}
	if gp := c.GroundPointByID("gs-punta"); gp == nil || gp.Kind != model.GroundKindStation {
		t.Errorf("gs-punta = %+v, want station", gp)
	}

	if len(c.Requirements.Monitoring) != 1 || c.Requirements.Monitoring[0].Quota != 4 {
		t.Errorf("monitoring = %+v", c.Requirements.Monitoring)
	}
	if len(c.Requirements.Mapping) != 1 || len(c.Requirements.Mapping[0].Vertices) != 4 {
		t.Errorf("mapping = %+v", c.Requirements.Mapping)
	}
	if len(c.Requirements.Stereo) != 1 {
		t.Fatalf("stereo = %+v", c.Requirements.Stereo)
	}
	if got := c.Requirements.Stereo[0].MaxTemporalGap; got != time.Hour {
		t.Errorf("stereo max_temporal_gap = %v, want 1h", got)
	}
	if len(c.Requirements.StationPair) != 1 {
		t.Fatalf("station pairs = %+v", c.Requirements.StationPair)
	}
	pair := c.Requirements.StationPair[0]
	if len(pair.Chains) != 2 || len(pair.Chains[1].Path) != 4 {
		t.Errorf("pair chains = %+v", pair.Chains)
	}
}

func TestLoadCaseRejectsMalformedInput(t *testing.T) {
	mutate := func(from, to string) string {
		if !strings.Contains(validCaseYAML, from) {
			t.Fatalf("fixture does not contain %q", from)
		}
		return strings.Replace(validCaseYAML, from, to, 1)
	}

	cases := []struct {
		name string
		yaml string
		want string // substring of the error
	}{
		{
			name: "missing id",
			yaml: mutate("id: case-leo-demo", "id: \"\""),
			want: "id: required",
		},
		{
			name: "inverted horizon",
			yaml: mutate("end: 2026-03-02T00:00:00Z", "end: 2026-02-01T00:00:00Z"),
			want: "end must be after start",
		},
		{
			name: "duplicate entity id",
			yaml: mutate("id: gs-punta", "id: sat-1"),
			want: "duplicate",
		},
		{
			name: "unknown ground kind",
			yaml: mutate("kind: target", "kind: beacon"),
			want: "unknown kind",
		},
		{
			name: "latitude out of range",
			yaml: mutate("lat_deg: -18.2", "lat_deg: -99"),
			want: "lat_deg",
		},
		{
			name: "monitoring names unknown target",
			yaml: mutate("ground_point_id: tgt-reef\n      quota: 4", "ground_point_id: tgt-nowhere\n      quota: 4"),
			want: "unknown ground point",
		},
		{
			name: "chain endpoint mismatch",
			yaml: mutate("- [gs-svalbard, sat-1, gs-punta]", "- [gs-punta, sat-1, gs-svalbard]"),
			want: "chain must run from",
		},
		{
			name: "chain relay unknown",
			yaml: mutate("- [gs-svalbard, sat-1, gs-punta]", "- [gs-svalbard, sat-9, gs-punta]"),
			want: "unknown relay satellite",
		},
		{
			name: "bad duration",
			yaml: mutate("max_temporal_gap: 1h", "max_temporal_gap: soon"),
			want: "decode",
		},
		{
			name: "unknown field",
			yaml: mutate("defaults:", "flux_capacitor: 88\ndefaults:"),
			want: "decode",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCase(strings.NewReader(tc.yaml), "test")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !IsInputError(err) {
				t.Fatalf("error is not an InputError: %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadCaseRequiresElementSet(t *testing.T) {
	yaml := strings.Replace(validCaseYAML, `    tle:
      line1: "1 25544U 98067A   26060.50000000  .00016717  00000-0  10270-3 0  9000"
      line2: "2 25544  51.6400 208.9163 0006317  69.9862 290.2553 15.54225995 00000"`, "", 1)

	_, err := LoadCase(strings.NewReader(yaml), "test")
	if err == nil || !strings.Contains(err.Error(), "one of tle or kepler") {
		t.Fatalf("want element-set error, got %v", err)
	}
}

func TestLoadCaseDurationAsSeconds(t *testing.T) {
	yaml := strings.Replace(validCaseYAML, "max_temporal_gap: 1h", "max_temporal_gap: 5400", 1)
	c, err := LoadCase(strings.NewReader(yaml), "test")
	if err != nil {
		t.Fatalf("LoadCase: %v", err)
	}
	if got := c.Requirements.Stereo[0].MaxTemporalGap; got != 90*time.Minute {
		t.Errorf("max_temporal_gap = %v, want 90m", got)
	}
}

const validPlanYAML = `
events:
  - id: ev-obs-1
    satellite_id: sat-1
    kind: observation
    start: 2026-03-01T01:00:00Z
    end: 2026-03-01T01:02:00Z
    target_id: tgt-reef
    energy_wh: 15
    storage_delta_mb: 800
    pointing:
      azimuth_deg: 90
      elevation_deg: 45
  - id: ev-dl-1
    satellite_id: sat-1
    kind: downlink
    start: 2026-03-01T02:00:00Z
    end: 2026-03-01T02:08:00Z
    target_id: gs-svalbard
    energy_wh: 30
    storage_delta_mb: -800
`

func TestLoadPlanYAML(t *testing.T) {
	plan, err := LoadPlanYAML(strings.NewReader(validPlanYAML), "test")
	if err != nil {
		t.Fatalf("LoadPlanYAML: %v", err)
	}
	if len(plan.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(plan.Events))
	}

	obs := plan.Events[0]
	if obs.Kind != model.EventObservation || obs.TargetID != "tgt-reef" {
		t.Errorf("obs event = %+v", obs)
	}
	if obs.Pointing == nil || obs.Pointing.ElevationDeg != 45 {
		t.Errorf("obs pointing = %+v", obs.Pointing)
	}
	if got := obs.End.Sub(obs.Start); got != 2*time.Minute {
		t.Errorf("obs duration = %v, want 2m", got)
	}

	dl := plan.Events[1]
	if !dl.UsesTerminal() {
		t.Error("downlink should occupy a terminal")
	}
	if dl.StorageDeltaMB != -800 {
		t.Errorf("downlink storage delta = %v, want -800", dl.StorageDeltaMB)
	}
}

func TestLoadPlanJSON(t *testing.T) {
	const doc = `{
	  "events": [
	    {
	      "id": "ev-1",
	      "satellite_id": "sat-1",
	      "kind": "slew",
	      "start": "2026-03-01T01:00:00Z",
	      "end": "2026-03-01T01:01:00Z",
	      "energy_wh": 2,
	      "storage_delta_mb": 0,
	      "pointing": {"azimuth_deg": 180, "elevation_deg": 60}
	    }
	  ]
	}`

	plan, err := LoadPlanJSON(strings.NewReader(doc), "test")
	if err != nil {
		t.Fatalf("LoadPlanJSON: %v", err)
	}
	if len(plan.Events) != 1 || plan.Events[0].Kind != model.EventSlew {
		t.Fatalf("plan = %+v", plan)
	}
}

func TestLoadPlanRejectsDuplicateEventIDs(t *testing.T) {
	doc := strings.Replace(validPlanYAML, "id: ev-dl-1", "id: ev-obs-1", 1)
	_, err := LoadPlanYAML(strings.NewReader(doc), "test")
	if err == nil || !strings.Contains(err.Error(), "duplicate event id") {
		t.Fatalf("want duplicate-id error, got %v", err)
	}
}

func TestLoadPlanKeepsSemanticProblemsForVerifier(t *testing.T) {
	// Unknown satellites and inverted times load fine; the verifier
	// records them as violations instead.
	doc := strings.Replace(validPlanYAML, "satellite_id: sat-1\n    kind: downlink", "satellite_id: sat-ghost\n    kind: downlink", 1)
	plan, err := LoadPlanYAML(strings.NewReader(doc), "test")
	if err != nil {
		t.Fatalf("LoadPlanYAML: %v", err)
	}
	if plan.Events[1].SatelliteID != "sat-ghost" {
		t.Fatalf("events = %+v", plan.Events)
	}
}
