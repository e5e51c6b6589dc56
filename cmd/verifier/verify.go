package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/missionbench/core"
	"github.com/signalsfoundry/missionbench/internal/logging"
	"github.com/signalsfoundry/missionbench/internal/observability"
	"github.com/signalsfoundry/missionbench/internal/runner"
	"github.com/signalsfoundry/missionbench/internal/verify"
)

var (
	verifyCaseFiles   []string
	verifyPlanFiles   []string
	verifyOutputDir   string
	verifyStep        time.Duration
	verifyPrecision   time.Duration
	verifyWorkers     int
	verifyMetricsAddr string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify one or more plans against their cases",
	Long: "verify loads case/plan file pairs, runs the full verification\n" +
		"pipeline on each, and writes one JSON report per pair.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(verifyCaseFiles) == 0 {
			return fmt.Errorf("at least one --case is required")
		}
		if len(verifyCaseFiles) != len(verifyPlanFiles) {
			return fmt.Errorf("--case and --plan must be given the same number of times (%d vs %d)",
				len(verifyCaseFiles), len(verifyPlanFiles))
		}

		log := logging.NewFromEnv()
		ctx := cmd.Context()

		shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

		collector, err := observability.NewVerifierCollector(nil)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		metricsSrv := serveMetrics(verifyMetricsAddr, collector, log)
		if metricsSrv != nil {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metricsSrv.Shutdown(shutdownCtx)
			}()
		}

		jobs := make([]runner.Job, len(verifyCaseFiles))
		for i := range verifyCaseFiles {
			jobs[i] = runner.Job{CaseFile: verifyCaseFiles[i], PlanFile: verifyPlanFiles[i]}
		}

		r := &runner.Runner{
			Workers: verifyWorkers,
			Logger:  log,
			Verify: verify.Options{
				Engine: core.Options{
					SampleStep: verifyStep,
					Precision:  verifyPrecision,
				},
				Metrics: collector,
			},
		}
		results := r.VerifyAll(ctx, jobs)

		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Job.CaseFile, res.Err)
				continue
			}
			if err := emitReport(cmd, res); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d cases failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringArrayVar(&verifyCaseFiles, "case", nil, "case YAML file (repeatable, pairs with --plan)")
	verifyCmd.Flags().StringArrayVar(&verifyPlanFiles, "plan", nil, "plan YAML/JSON file (repeatable, pairs with --case)")
	verifyCmd.Flags().StringVar(&verifyOutputDir, "output", "", "directory for JSON reports (default stdout)")
	verifyCmd.Flags().DurationVar(&verifyStep, "step", 0, "coarse visibility sampling step (default 30s)")
	verifyCmd.Flags().DurationVar(&verifyPrecision, "precision", 0, "window edge refinement precision (default 1s)")
	verifyCmd.Flags().IntVar(&verifyWorkers, "workers", 0, "concurrent cases (default CPU count)")
	verifyCmd.Flags().StringVar(&verifyMetricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics (disabled when empty)")
}

func emitReport(cmd *cobra.Command, res runner.Result) error {
	data, err := json.MarshalIndent(res.Report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report for %s: %w", res.Report.CaseID, err)
	}
	data = append(data, '\n')

	if verifyOutputDir == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(verifyOutputDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(verifyOutputDir, res.Report.CaseID+".json")
	return os.WriteFile(path, data, 0o644)
}

// serveMetrics starts the Prometheus endpoint when an address is
// configured and returns the server for shutdown, or nil when disabled.
func serveMetrics(addr string, collector *observability.VerifierCollector, log logging.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info(context.Background(), "metrics endpoint listening", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()
	return srv
}
