// Package runner drives batch verification: many case/plan file pairs
// fanned out over a bounded worker pool, one verification run per pair.
package runner

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/missionbench/internal/caseio"
	"github.com/signalsfoundry/missionbench/internal/logging"
	"github.com/signalsfoundry/missionbench/internal/observability"
	"github.com/signalsfoundry/missionbench/internal/verify"
	"github.com/signalsfoundry/missionbench/model"
)

// Job names the input files of one verification run.
type Job struct {
	CaseFile string
	PlanFile string
}

// Result pairs a job with its report. Err is set when the case could not
// be verified at all (unreadable input, inconsistent case); a plan full
// of violations is a report, not an error.
type Result struct {
	Job    Job
	Report *model.Report
	Err    error
}

// Runner verifies batches of jobs.
type Runner struct {
	// Workers bounds how many cases verify concurrently. Defaults to the
	// CPU count. Per-case parallelism is governed by Verify.Workers.
	Workers int

	Verify verify.Options
	Logger logging.Logger
}

// VerifyAll runs every job and returns results in job order. Jobs are
// independent; one failing case never stops the rest of the batch.
func (r *Runner) VerifyAll(ctx context.Context, jobs []Job) []Result {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := r.Logger
	if log == nil {
		log = logging.Noop()
	}

	results := make([]Result, len(jobs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job Job) {
			defer wg.Done()
			defer func() { <-sem }()

			started := time.Now()
			results[i] = r.runOne(ctx, job)
			if err := results[i].Err; err != nil {
				log.Error(ctx, "case failed",
					logging.String("case_file", job.CaseFile),
					logging.String("error", err.Error()),
				)
				return
			}
			log.Info(ctx, "case verified",
				logging.String("case_id", results[i].Report.CaseID),
				logging.Duration("elapsed", time.Since(started)),
			)
		}(i, job)
	}
	wg.Wait()
	return results
}

func (r *Runner) runOne(ctx context.Context, job Job) Result {
	ctx, span := observability.StartSpan(ctx, "verify.job",
		attribute.String("case_file", job.CaseFile),
		attribute.String("plan_file", job.PlanFile),
	)
	defer span.End()

	res := Result{Job: job}

	c, err := caseio.LoadCaseFile(job.CaseFile)
	if err != nil {
		res.Err = err
		return res
	}
	plan, err := caseio.LoadPlanFile(job.PlanFile)
	if err != nil {
		res.Err = err
		return res
	}

	opts := r.Verify
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	res.Report, res.Err = verify.Run(ctx, c, plan, opts)
	return res
}
