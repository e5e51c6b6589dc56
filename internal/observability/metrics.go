package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// VerifierCollector bundles Prometheus metrics for verification runs and
// provides a ready-to-serve /metrics handler for batch drivers that want
// to be scraped.
type VerifierCollector struct {
	gatherer prometheus.Gatherer

	CasesVerified  *prometheus.CounterVec
	StageDurations *prometheus.HistogramVec

	AccessWindowsComputed prometheus.Counter
	PlanEvents            prometheus.Gauge
	Violations            *prometheus.CounterVec
}

// NewVerifierCollector registers verifier Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when
// nil. Registration tolerates collectors that already exist, so repeated
// construction in one process reuses them.
func NewVerifierCollector(reg prometheus.Registerer) (*VerifierCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	cases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verifier_cases_total",
		Help: "Total verified cases, labeled by outcome (ok, input_error, failed).",
	}, []string{"outcome"})
	cases, err := registerCounterVec(reg, cases, "verifier_cases_total")
	if err != nil {
		return nil, err
	}

	stages := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "verifier_stage_duration_seconds",
		Help:    "Duration of verification pipeline stages.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"stage"})
	stages, err = registerHistogramVec(reg, stages, "verifier_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	windows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verifier_access_windows_total",
		Help: "Total access windows produced by the visibility engine.",
	})
	windows, err = registerCounter(reg, windows, "verifier_access_windows_total")
	if err != nil {
		return nil, err
	}

	events, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "verifier_plan_events",
		Help: "Number of schedule events in the plan currently under verification.",
	}), "verifier_plan_events")
	if err != nil {
		return nil, err
	}

	violations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verifier_violations_total",
		Help: "Total constraint violations recorded, labeled by violation kind.",
	}, []string{"kind"})
	violations, err = registerCounterVec(reg, violations, "verifier_violations_total")
	if err != nil {
		return nil, err
	}

	return &VerifierCollector{
		gatherer:              gatherer,
		CasesVerified:         cases,
		StageDurations:        stages,
		AccessWindowsComputed: windows,
		PlanEvents:            events,
		Violations:            violations,
	}, nil
}

// ObserveStage records the duration of one pipeline stage. Nil-safe so
// callers can run without a collector.
func (c *VerifierCollector) ObserveStage(stage string, d time.Duration) {
	if c == nil || c.StageDurations == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordCase increments the per-outcome case counter.
func (c *VerifierCollector) RecordCase(outcome string) {
	if c == nil || c.CasesVerified == nil {
		return
	}
	c.CasesVerified.WithLabelValues(outcome).Inc()
}

// RecordViolation counts one constraint violation by kind.
func (c *VerifierCollector) RecordViolation(kind string) {
	if c == nil || c.Violations == nil {
		return
	}
	c.Violations.WithLabelValues(kind).Inc()
}

// AddAccessWindows counts windows produced by the visibility engine.
func (c *VerifierCollector) AddAccessWindows(n int) {
	if c == nil || c.AccessWindowsComputed == nil || n <= 0 {
		return
	}
	c.AccessWindowsComputed.Add(float64(n))
}

// SetPlanEvents publishes the size of the plan under verification.
func (c *VerifierCollector) SetPlanEvents(n int) {
	if c == nil || c.PlanEvents == nil {
		return
	}
	c.PlanEvents.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *VerifierCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
