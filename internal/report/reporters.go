// internal/report/reporters.go
package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"time"
)

// BatchReport is the machine-readable form of one harness run, written on
// request as JSON or JUnit XML for CI consumption.
type BatchReport struct {
	RunID            string       `json:"run_id"`
	StartedAt        time.Time    `json:"started_at"`
	ReferenceMode    string       `json:"reference_mode,omitempty"`
	Total            int          `json:"total"`
	Passed           int          `json:"passed"`
	Failed           int          `json:"failed"`
	TargetSeconds    float64      `json:"target_seconds"`
	ReferenceSeconds float64      `json:"reference_seconds,omitempty"`
	Cases            []CaseReport `json:"cases"`
}

type CaseReport struct {
	Name             string  `json:"name"`
	Source           string  `json:"source"`
	Status           Status  `json:"status"`
	TargetSeconds    float64 `json:"target_seconds"`
	ReferenceSeconds float64 `json:"reference_seconds,omitempty"`
	Detail           string  `json:"detail,omitempty"`
}

// NewBatchReport folds the batch stats and per-case results into a report.
func NewBatchReport(runID string, started time.Time, refMode string, stats BatchStats, results []CaseResult) BatchReport {
	rep := BatchReport{
		RunID:            runID,
		StartedAt:        started,
		ReferenceMode:    refMode,
		Total:            stats.Total,
		Passed:           stats.Passed,
		Failed:           stats.Failed,
		TargetSeconds:    stats.TargetTime.Seconds(),
		ReferenceSeconds: stats.RefTime.Seconds(),
		Cases:            make([]CaseReport, 0, len(results)),
	}
	for _, r := range results {
		rep.Cases = append(rep.Cases, CaseReport{
			Name:             r.Name,
			Source:           r.Source,
			Status:           r.Status,
			TargetSeconds:    r.Target.Seconds(),
			ReferenceSeconds: r.Ref.Seconds(),
			Detail:           r.Detail,
		})
	}
	return rep
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(path string, rep BatchReport) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

// JUnit XML shapes. One suite per run; ERROR cases are emitted as JUnit
// errors, FAIL cases as failures carrying the captured output.
type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Error     *junitFailure `xml:"error,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// WriteJUnit writes the report as JUnit XML.
func WriteJUnit(path string, rep BatchReport) error {
	suite := junitTestSuite{
		Name:      "lamatest",
		Tests:     rep.Total,
		Time:      rep.TargetSeconds + rep.ReferenceSeconds,
		TestCases: make([]junitTestCase, 0, len(rep.Cases)),
	}
	for _, c := range rep.Cases {
		tc := junitTestCase{
			Name:      c.Name,
			ClassName: "lama.regression",
			Time:      c.TargetSeconds + c.ReferenceSeconds,
		}
		switch c.Status {
		case StatusFail:
			suite.Failures++
			tc.Failure = &junitFailure{
				Message: "output mismatch",
				Type:    "RegressionFailure",
				Content: c.Detail,
			}
		case StatusError:
			suite.Errors++
			tc.Error = &junitFailure{
				Message: "harness error",
				Type:    "HarnessError",
				Content: c.Detail,
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	data, err := xml.MarshalIndent(junitTestSuites{Suites: []junitTestSuite{suite}}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JUnit report: %w", err)
	}
	out := []byte(xml.Header + string(data) + "\n")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write JUnit report: %w", err)
	}
	return nil
}
