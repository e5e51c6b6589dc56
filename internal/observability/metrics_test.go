package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCollectorRecordsCasesAndViolations(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewVerifierCollector(reg)
	if err != nil {
		t.Fatalf("NewVerifierCollector: %v", err)
	}

	collector.RecordCase("ok")
	collector.RecordCase("ok")
	collector.RecordCase("input_error")
	collector.RecordViolation("battery_depleted")
	collector.AddAccessWindows(7)
	collector.SetPlanEvents(12)

	if got := testutil.ToFloat64(collector.CasesVerified.WithLabelValues("ok")); got != 2 {
		t.Fatalf("verifier_cases_total{outcome=ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.CasesVerified.WithLabelValues("input_error")); got != 1 {
		t.Fatalf("verifier_cases_total{outcome=input_error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Violations.WithLabelValues("battery_depleted")); got != 1 {
		t.Fatalf("verifier_violations_total{kind=battery_depleted} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.AccessWindowsComputed); got != 7 {
		t.Fatalf("verifier_access_windows_total = %v, want 7", got)
	}
	if got := testutil.ToFloat64(collector.PlanEvents); got != 12 {
		t.Fatalf("verifier_plan_events = %v, want 12", got)
	}
}

func TestObserveStageRecordsHistogramSamples(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewVerifierCollector(reg)
	if err != nil {
		t.Fatalf("NewVerifierCollector: %v", err)
	}

	collector.ObserveStage("visibility", 40*time.Millisecond)
	collector.ObserveStage("visibility", 120*time.Millisecond)
	collector.ObserveStage("resources", 5*time.Millisecond)

	if count := histogramSampleCount(t, reg, "verifier_stage_duration_seconds", map[string]string{
		"stage": "visibility",
	}); count != 2 {
		t.Fatalf("verifier_stage_duration_seconds{stage=visibility} sample_count = %d, want 2", count)
	}
	if count := histogramSampleCount(t, reg, "verifier_stage_duration_seconds", map[string]string{
		"stage": "resources",
	}); count != 1 {
		t.Fatalf("verifier_stage_duration_seconds{stage=resources} sample_count = %d, want 1", count)
	}
}

func TestNilCollectorHelpersAreSafe(t *testing.T) {
	var collector *VerifierCollector
	collector.RecordCase("ok")
	collector.RecordViolation("storage_exceeded")
	collector.ObserveStage("scores", time.Second)
	collector.AddAccessWindows(3)
	collector.SetPlanEvents(1)
}

func TestRepeatedConstructionReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewVerifierCollector(reg)
	if err != nil {
		t.Fatalf("NewVerifierCollector: %v", err)
	}
	second, err := NewVerifierCollector(reg)
	if err != nil {
		t.Fatalf("NewVerifierCollector (repeat): %v", err)
	}

	first.RecordCase("ok")
	second.RecordCase("ok")
	if got := testutil.ToFloat64(second.CasesVerified.WithLabelValues("ok")); got != 2 {
		t.Fatalf("shared counter after re-registration = %v, want 2", got)
	}
}

func TestMetricsHandlerExposesVerifierSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewVerifierCollector(reg)
	if err != nil {
		t.Fatalf("NewVerifierCollector: %v", err)
	}
	collector.RecordCase("ok")
	collector.RecordViolation("terminal_conflict")
	collector.ObserveStage("propagation", 25*time.Millisecond)
	collector.AddAccessWindows(2)
	collector.SetPlanEvents(9)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"verifier_cases_total",
		"verifier_stage_duration_seconds",
		"verifier_access_windows_total",
		"verifier_plan_events",
		"verifier_violations_total",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
