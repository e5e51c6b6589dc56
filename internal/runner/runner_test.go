package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalsfoundry/missionbench/internal/caseio"
)

const runnerCaseYAML = `
id: case-runner
horizon:
  start: 2026-03-01T00:00:00Z
  end: 2026-03-01T02:00:00Z
defaults:
  min_elevation_deg: 5
satellites:
  - id: sat-1
    epoch: 2026-03-01T00:00:00Z
    kepler:
      semi_major_axis_km: 6878
    capabilities:
      battery_capacity_wh: 500
      storage_capacity_mb: 1024
      num_terminals: 1
ground_points:
  - id: gs-a
    kind: station
    lat_deg: 0
    lon_deg: 0
`

const runnerPlanYAML = `
events:
  - id: ev-slew
    satellite_id: sat-1
    kind: slew
    start: 2026-03-01T00:30:00Z
    end: 2026-03-01T00:31:00Z
    energy_wh: 2
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestVerifyAllPreservesJobOrderAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	casePath := writeFile(t, dir, "case.yaml", runnerCaseYAML)
	planPath := writeFile(t, dir, "plan.yaml", runnerPlanYAML)
	brokenPath := writeFile(t, dir, "broken.yaml", "id: [unterminated")

	jobs := []Job{
		{CaseFile: casePath, PlanFile: planPath},
		{CaseFile: brokenPath, PlanFile: planPath},
		{CaseFile: filepath.Join(dir, "missing.yaml"), PlanFile: planPath},
		{CaseFile: casePath, PlanFile: planPath},
	}

	r := &Runner{Workers: 2}
	results := r.VerifyAll(context.Background(), jobs)

	if len(results) != len(jobs) {
		t.Fatalf("results = %d, want %d", len(results), len(jobs))
	}
	for i, res := range results {
		if res.Job != jobs[i] {
			t.Errorf("result %d carries job %+v, want %+v", i, res.Job, jobs[i])
		}
	}

	for _, i := range []int{0, 3} {
		if results[i].Err != nil {
			t.Errorf("job %d: unexpected error %v", i, results[i].Err)
			continue
		}
		report := results[i].Report
		if report == nil || report.CaseID != "case-runner" {
			t.Errorf("job %d: report = %+v", i, report)
			continue
		}
		if len(report.Verdicts) != 1 || !report.Verdicts[0].Valid {
			t.Errorf("job %d: verdicts = %+v, want one valid slew", i, report.Verdicts)
		}
	}

	for _, i := range []int{1, 2} {
		if results[i].Err == nil {
			t.Errorf("job %d: expected error", i)
			continue
		}
		if results[i].Report != nil {
			t.Errorf("job %d: report should be nil on failure", i)
		}
		if !caseio.IsInputError(results[i].Err) {
			t.Errorf("job %d: error %v is not an InputError", i, results[i].Err)
		}
	}
}

func TestVerifyAllEmptyBatch(t *testing.T) {
	r := &Runner{}
	if results := r.VerifyAll(context.Background(), nil); len(results) != 0 {
		t.Errorf("results = %v, want empty", results)
	}
}

func TestRunOnePlanError(t *testing.T) {
	dir := t.TempDir()
	casePath := writeFile(t, dir, "case.yaml", runnerCaseYAML)
	badPlan := writeFile(t, dir, "plan.yaml", "events: {not: a list}")

	r := &Runner{}
	res := r.runOne(context.Background(), Job{CaseFile: casePath, PlanFile: badPlan})
	if res.Err == nil || !caseio.IsInputError(res.Err) {
		t.Fatalf("err = %v, want an InputError from the plan", res.Err)
	}
	if res.Report != nil {
		t.Errorf("report = %+v, want nil", res.Report)
	}
}
