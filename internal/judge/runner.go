// internal/judge/runner.go
package judge

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"lamatest/internal/discovery"
	"lamatest/internal/extract"
	"lamatest/internal/report"
	"lamatest/internal/toolchain"
)

// harnessError marks a condition the batch must not survive: a broken
// fixture is a misconfigured harness, not a failing test.
type harnessError struct {
	err error
}

func (e *harnessError) Error() string { return e.err.Error() }
func (e *harnessError) Unwrap() error { return e.err }

// Runner drives the batch: compile, run target, optionally run reference,
// decide, report. Strictly sequential: one case runs to completion before
// the next. A case that errors is counted failed and never stops the batch;
// only missing tools or fixtures abort the run.
type Runner struct {
	tools   *toolchain.Toolchain
	refMode string
	console *report.Console
	failLog *report.FailureLog
	logger  *zap.Logger
}

func NewRunner(tools *toolchain.Toolchain, refMode string, console *report.Console, failLog *report.FailureLog, logger *zap.Logger) *Runner {
	return &Runner{
		tools:   tools,
		refMode: refMode,
		console: console,
		failLog: failLog,
		logger:  logger,
	}
}

// Run processes every case and returns the accumulated stats and per-case
// results. The returned error is non-nil only for harness-fatal conditions;
// everything per-test has already been folded into the stats by then.
func (r *Runner) Run(ctx context.Context, cases []discovery.TestCase) (report.BatchStats, []report.CaseResult, error) {
	stats := report.BatchStats{Total: len(cases)}
	results := make([]report.CaseResult, 0, len(cases))

	for _, tc := range cases {
		res, err := r.runCase(ctx, tc, &stats)
		if err != nil {
			if isFatal(err) {
				return stats, results, err
			}
			stats.Failed++
			res = report.CaseResult{
				Name:   tc.Name(),
				Source: tc.Source,
				Status: report.StatusError,
				Detail: err.Error(),
			}
			r.console.ErrorLine(tc.Name(), err)
			if logErr := r.failLog.Exception(tc.Name(), err); logErr != nil {
				r.logger.Warn("failed to append to failure log", zap.Error(logErr))
			}
		}
		results = append(results, res)
	}
	return stats, results, nil
}

func (r *Runner) runCase(ctx context.Context, tc discovery.TestCase, stats *report.BatchStats) (report.CaseResult, error) {
	bc, err := r.tools.Compile(ctx, tc.Source)
	if err != nil {
		return report.CaseResult{}, err
	}

	target, err := r.tools.RunTarget(ctx, bc, tc.Input)
	if err != nil {
		return report.CaseResult{}, err
	}
	stats.TargetTime += target.Elapsed

	if _, err := os.Stat(tc.Answers); err != nil {
		return report.CaseResult{}, &harnessError{fmt.Errorf("answers file %s not found", tc.Answers)}
	}
	golden, err := extract.FromFile(tc.Answers)
	if err != nil {
		return report.CaseResult{}, &harnessError{err}
	}
	got := extract.FromText(target.Output)

	var ref *toolchain.RunResult
	if r.refMode != "" {
		rr, err := r.tools.RunReference(ctx, tc.Source, tc.Input, r.refMode)
		if err != nil {
			return report.CaseResult{}, err
		}
		stats.RefTime += rr.Elapsed
		ref = &rr
	}

	outcome := Decide(target, ref, golden, got)

	res := report.CaseResult{
		Name:   tc.Name(),
		Source: tc.Source,
		Target: target.Elapsed,
	}
	if ref != nil {
		res.Ref = ref.Elapsed
	}

	if outcome.Passed {
		stats.Passed++
		res.Status = report.StatusPass
	} else {
		stats.Failed++
		res.Status = report.StatusFail
		res.Detail = target.Output

		var refOut *string
		if ref != nil {
			refOut = &ref.Output
		}
		diffAnswers := outcome.BaseOK && !outcome.AnswersMatch
		if logErr := r.failLog.Failure(tc.Name(), target.Output, golden, got, diffAnswers, refOut); logErr != nil {
			r.logger.Warn("failed to append to failure log", zap.Error(logErr))
		}
	}

	r.console.CaseLine(res, r.refMode)
	r.logger.Debug("case decided",
		zap.String("source", tc.Source),
		zap.String("status", string(res.Status)),
		zap.Duration("target", target.Elapsed))
	return res, nil
}

func isFatal(err error) bool {
	var notFound *toolchain.NotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	var he *harnessError
	return errors.As(err, &he)
}
