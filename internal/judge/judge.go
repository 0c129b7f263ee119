// internal/judge/judge.go
package judge

import (
	"strings"

	"lamatest/internal/extract"
	"lamatest/internal/toolchain"
)

// failureMarker is emitted by the Lama runtime on internal failures; its
// presence flags a runtime failure even when the process exits zero.
const failureMarker = "*** FAILURE:"

// RuntimeFailure reports whether a target run failed at runtime: a
// non-zero exit code or the failure marker anywhere in the combined output.
func RuntimeFailure(exitCode int, output string) bool {
	return exitCode != 0 || strings.Contains(output, failureMarker)
}

// Outcome is the decomposed verdict for one test case. BaseOK is the run
// health before answers are considered; the failure log needs it separately
// from the final verdict to decide whether diffing the answer sequences is
// meaningful.
type Outcome struct {
	BaseOK       bool
	AnswersMatch bool
	Passed       bool
}

// Decide combines the target run, the optional reference run and the two
// answer sequences into the final verdict. In reference mode the run is
// only healthy if the reference exited zero and produced byte-identical
// combined output. The verdict is PASS only when the run is healthy and
// the extracted answers equal the golden ones element-wise.
func Decide(target toolchain.RunResult, ref *toolchain.RunResult, golden, got []int) Outcome {
	ok := !RuntimeFailure(target.ExitCode, target.Output)
	if ref != nil {
		ok = ok && ref.ExitCode == 0 && target.Output == ref.Output
	}
	match := extract.Equal(got, golden)
	return Outcome{
		BaseOK:       ok,
		AnswersMatch: match,
		Passed:       ok && match,
	}
}
