// internal/report/faillog.go
package report

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FailureLog is the shared failures.log file: truncated once at batch
// start, appended to per failing case. Two consecutive runs leave only the
// second run's failures in it.
type FailureLog struct {
	path string
	f    *os.File
}

func NewFailureLog(path string) (*FailureLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open failure log: %w", err)
	}
	return &FailureLog{path: path, f: f}, nil
}

func (l *FailureLog) Path() string { return l.path }

// Failure appends the diagnostic block for a FAIL verdict. The answer
// sequences are included only when they differed while the run itself was
// otherwise clean, since that is the only situation where diffing them
// explains the failure. Reference output is included in reference mode.
func (l *FailureLog) Failure(name, targetOut string, golden, got []int, answersDiffer bool, refOut *string) error {
	var sb strings.Builder
	sb.WriteString(name + ":\n")
	sb.WriteString("---- Target output ----\n")
	sb.WriteString(targetOut + "\n")
	if answersDiffer {
		sb.WriteString("\n---- Golden answers ----\n")
		sb.WriteString(formatInts(golden))
		sb.WriteString("\n---- Lamarik answers ----\n")
		sb.WriteString(formatInts(got))
	}
	if refOut != nil {
		sb.WriteString("\n---- Reference output ----\n")
		sb.WriteString(*refOut + "\n")
	}
	sb.WriteString("\n")
	_, err := l.f.WriteString(sb.String())
	return err
}

// Exception appends the block for a case that failed with an unexpected
// error instead of a verdict.
func (l *FailureLog) Exception(name string, cause error) error {
	_, err := fmt.Fprintf(l.f, "%s: EXCEPTION\n%v\n\n", name, cause)
	return err
}

func (l *FailureLog) Close() error {
	return l.f.Close()
}

func formatInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
