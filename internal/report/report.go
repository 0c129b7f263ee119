// internal/report/report.go
package report

import (
	"time"
)

// Status is the verdict printed for one test case. ERROR marks cases that
// blew up before a verdict could be computed (compile failure, subprocess
// start failure); they count as failed in the batch totals.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// CaseResult is the record kept for one processed test case.
type CaseResult struct {
	Name   string
	Source string
	Status Status
	Target time.Duration
	Ref    time.Duration
	Detail string // error text for ERROR cases, target output for FAIL cases
}

// BatchStats accumulates over the sequential run. It is threaded through
// the driver loop explicitly; nothing here is package-level state.
type BatchStats struct {
	Total      int
	Passed     int
	Failed     int
	TargetTime time.Duration
	RefTime    time.Duration
}
